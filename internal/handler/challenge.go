package handler

import (
	"encoding/json"
	"net/http"

	"github.com/benchline/api/internal/metrics"
	"github.com/benchline/api/internal/middleware"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/service"
)

// ChallengeHandler handles challenge endpoints
type ChallengeHandler struct {
	challengeService *service.ChallengeService
	maxUploadBytes   int64
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(challengeService *service.ChallengeService, maxUploadBytes int64) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		maxUploadBytes:   maxUploadBytes,
	}
}

// additionalMetric is one extra scoring test in the create form.
type additionalMetric struct {
	Name   string         `json:"name"`
	Params metrics.Params `json:"params"`
}

// Create handles POST /challenges/create-challenge. The challenge
// definition and its expected-results file arrive as one multipart
// form.
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		WriteError(w, model.NewBadRequestError("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("expected_results")
	if err != nil {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "expected_results", Message: "expected results file is required"},
		}))
		return
	}
	defer file.Close()

	tests := []service.TestSpec{{
		Metric:     r.FormValue("metric"),
		MainMetric: true,
	}}
	if raw := r.FormValue("parameters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tests[0].Parameters); err != nil {
			WriteError(w, model.NewValidationError([]model.FieldError{
				{Field: "parameters", Message: "must be a JSON object"},
			}))
			return
		}
	}
	if raw := r.FormValue("additional_metrics"); raw != "" {
		var additional []additionalMetric
		if err := json.Unmarshal([]byte(raw), &additional); err != nil {
			WriteError(w, model.NewValidationError([]model.FieldError{
				{Field: "additional_metrics", Message: "must be a JSON list of {name, params}"},
			}))
			return
		}
		for _, m := range additional {
			tests = append(tests, service.TestSpec{Metric: m.Name, Parameters: m.Params})
		}
	}

	challenge, err := h.challengeService.Create(r.Context(), service.CreateRequest{
		Author:       user.Username,
		Title:        r.FormValue("title"),
		Source:       r.FormValue("source"),
		Type:         r.FormValue("type"),
		Description:  r.FormValue("description"),
		Deadline:     r.FormValue("deadline"),
		Award:        r.FormValue("award"),
		Tests:        tests,
		ExpectedName: header.Filename,
		Expected:     file,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, challenge)
}

// List handles GET /challenges/get-challenges
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challengeService.List(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, challenges)
}

// Get handles GET /challenges/challenge/{title}
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.challengeService.Get(r.Context(), r.PathValue("title"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, info)
}

// Delete handles DELETE /admin/challenges/{title}
func (h *ChallengeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.challengeService.Delete(r.Context(), user, r.PathValue("title")); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}
