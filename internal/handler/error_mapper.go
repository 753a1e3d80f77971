package handler

import (
	"errors"

	"github.com/benchline/api/internal/metrics"
	"github.com/benchline/api/internal/model"
	"github.com/benchline/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotAdmin),
		errors.Is(err, service.ErrNotAuthor),
		errors.Is(err, service.ErrSelfDemotion),
		errors.Is(err, service.ErrDeadlinePassed):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrChallengeNotFound):
		return model.NewNotFoundError("challenge")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrChallengeExists):
		return model.NewConflictError(err.Error())

	// ===== Media Type Errors → 415 =====
	case errors.Is(err, service.ErrBadFileExtension):
		return model.NewUnsupportedMediaError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrUsernameTooLong),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrInvalidTitle),
		errors.Is(err, service.ErrInvalidDeadline),
		errors.Is(err, service.ErrUnknownMetric),
		errors.Is(err, service.ErrInvalidParams),
		errors.Is(err, service.ErrEmptyExpectedFile),
		errors.Is(err, service.ErrChallengeUnknown),
		errors.Is(err, service.ErrEmptySubmission),
		errors.Is(err, service.ErrNoActiveTests),
		errors.Is(err, metrics.ErrLengthMismatch),
		errors.Is(err, metrics.ErrEmptyInput),
		errors.Is(err, metrics.ErrUnknownMetric):
		return model.NewUnprocessableError(err.Error())

	// ===== Everything else → 500 =====
	default:
		return model.NewInternalError("")
	}
}
