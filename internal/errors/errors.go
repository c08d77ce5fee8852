package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common error types for the SmartFAQ web client
var (
	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrNoSession      = errors.New("no session")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthService        = errors.New("authentication service unavailable")

	// Request errors
	ErrValidation     = errors.New("validation failed")
	ErrInvalidPage    = errors.New("invalid page")
	ErrRequestTimeout = errors.New("request timed out")
	ErrNotFound       = errors.New("not found")
	ErrNetwork        = errors.New("network error")
	ErrUnknown        = errors.New("unknown error")

	// Stream errors
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrStreamClosed         = errors.New("stream closed")
	ErrUnknownMessage       = errors.New("unknown message type")
)

// Stable error codes carried in the {error:{code,...}} envelope and on
// APIError. Handlers and the CLI classify on these, never on message text.
const (
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAuthServiceError   = "AUTH_SERVICE_ERROR"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidPage        = "INVALID_PAGE"
	CodeNotFound           = "NOT_FOUND"
	CodeRequestTimeout     = "REQUEST_TIMEOUT"
	CodeGenerationError    = "GENERATION_ERROR"
	CodeServerError        = "SERVER_ERROR"
	CodeUnknownError       = "UNKNOWN_ERROR"
)

// APIError is a failure reported by the backend, normalised into a stable
// code, a human readable message and optional per-field details. It unwraps
// to the matching sentinel so call sites can classify with errors.Is.
type APIError struct {
	Code    string
	Message string
	Status  int
	Details map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	fields := make([]string, 0, len(e.Details))
	for field, messages := range e.Details {
		fields = append(fields, field+": "+strings.Join(messages, ", "))
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(fields, "; "))
}

// Unwrap maps the stable code back to its sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeSessionExpired:
		return ErrSessionExpired
	case CodeInvalidCredentials:
		return ErrInvalidCredentials
	case CodeAuthServiceError:
		return ErrAuthService
	case CodeValidationError:
		return ErrValidation
	case CodeInvalidPage:
		return ErrInvalidPage
	case CodeNotFound:
		return ErrNotFound
	case CodeRequestTimeout:
		return ErrRequestTimeout
	case CodeGenerationError:
		return ErrGenerationFailed
	case CodeServerError:
		return ErrAuthService
	default:
		return ErrUnknown
	}
}

// CodeFor returns the stable code for an error chain, falling back to
// UNKNOWN_ERROR when nothing in the chain is classified.
func CodeFor(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	switch {
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrNoSession):
		return CodeSessionExpired
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrAuthService):
		return CodeAuthServiceError
	case errors.Is(err, ErrValidation):
		return CodeValidationError
	case errors.Is(err, ErrInvalidPage):
		return CodeInvalidPage
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrRequestTimeout):
		return CodeRequestTimeout
	case errors.Is(err, ErrGenerationFailed):
		return CodeGenerationError
	default:
		return CodeUnknownError
	}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
