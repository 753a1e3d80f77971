package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/benchline/api/internal/metrics"
	"github.com/benchline/api/internal/middleware"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/service"
)

// SubmissionHandler handles evaluation endpoints
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	maxUploadBytes    int64
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *service.SubmissionService, maxUploadBytes int64) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		maxUploadBytes:    maxUploadBytes,
	}
}

// SubmitResponse represents a scored submission
type SubmitResponse struct {
	ID         int                `json:"id"`
	Challenge  string             `json:"challenge"`
	MainMetric string             `json:"main_metric"`
	Scores     map[string]float64 `json:"scores"`
}

// Submit handles POST /evaluation/submit
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		WriteError(w, model.NewBadRequestError("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("submission")
	if err != nil {
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "submission", Message: "submission file is required"},
		}))
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".tsv" {
		WriteError(w, model.NewUnsupportedMediaError("submission must be a .tsv file"))
		return
	}

	title := r.FormValue("challenge_title")
	result, err := h.submissionService.Submit(r.Context(), service.SubmitRequest{
		Challenge:   title,
		Submitter:   user,
		Description: r.FormValue("description"),
		Output:      file,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, SubmitResponse{
		ID:         result.Submission.ID,
		Challenge:  title,
		MainMetric: result.MainMetric,
		Scores:     result.Scores,
	})
}

// Metrics handles GET /evaluation/get-metrics
func (h *SubmissionHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	all := metrics.All()
	infos := make([]metrics.Info, 0, len(all))
	for _, m := range all {
		infos = append(infos, m.Info())
	}
	WriteData(w, http.StatusOK, infos)
}

// AllSubmissions handles GET /evaluation/{challenge}/all-submissions
func (h *SubmissionHandler) AllSubmissions(w http.ResponseWriter, r *http.Request) {
	listing, err := h.submissionService.AllSubmissions(r.Context(), r.PathValue("challenge"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, listing)
}

// MySubmissions handles GET /evaluation/{challenge}/my-submissions
func (h *SubmissionHandler) MySubmissions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	listing, err := h.submissionService.MySubmissions(r.Context(), r.PathValue("challenge"), user)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, listing)
}

// Leaderboard handles GET /evaluation/{challenge}/leaderboard
func (h *SubmissionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	listing, err := h.submissionService.Leaderboard(r.Context(), r.PathValue("challenge"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, listing)
}
