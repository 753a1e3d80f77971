package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already taken")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameTooLong    = errors.New("username must be at most 32 characters")
	ErrInvalidUsername    = errors.New("username may only contain letters, digits, '-' and '_'")
	ErrPasswordTooShort   = errors.New("password must be at least 10 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ===== Challenge Errors =====
var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeExists    = errors.New("a challenge with this title already exists")
	ErrTitleRequired      = errors.New("challenge title is required")
	ErrInvalidTitle       = errors.New("challenge title may only contain letters, digits, '-' and '_'")
	ErrInvalidDeadline    = errors.New("deadline must be an RFC 3339 timestamp")
	ErrUnknownMetric      = errors.New("unknown metric")
	ErrInvalidParams      = errors.New("invalid metric parameters")
	ErrBadFileExtension   = errors.New("expected results must be a .tsv file")
	ErrEmptyExpectedFile  = errors.New("expected results file is empty")
	ErrNotAuthor          = errors.New("challenge author rights required")
)

// ===== Submission Errors =====
var (
	// ErrChallengeUnknown rejects a submission naming a challenge that
	// does not exist. Unlike ErrChallengeNotFound it is a problem with
	// the submitted form, not with the request URL.
	ErrChallengeUnknown = errors.New("challenge does not exist")

	ErrDeadlinePassed  = errors.New("challenge deadline has passed")
	ErrEmptySubmission = errors.New("submission file is empty")
	ErrNoActiveTests   = errors.New("challenge has no active tests")
)

// ===== Admin Errors =====
var (
	ErrNotAdmin     = errors.New("admin rights required")
	ErrSelfDemotion = errors.New("cannot revoke your own admin rights")
)
