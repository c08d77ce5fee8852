package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
)

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError converts a failure into the {error:{code,message,details}}
// envelope, preserving the backend's HTTP status when one is known.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) {
		status := apiErr.Status
		if status == 0 {
			status = statusForCode(apiErr.Code)
		}
		writeJSON(w, status, errorEnvelope{Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}})
		return
	}

	code := apperrors.CodeFor(err)
	writeJSON(w, statusForCode(code), errorEnvelope{Error: errorBody{
		Code:    code,
		Message: messageForCode(code),
	}})
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeSessionExpired, apperrors.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case apperrors.CodeValidationError:
		return http.StatusBadRequest
	case apperrors.CodeInvalidPage, apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeRequestTimeout:
		return http.StatusGatewayTimeout
	case apperrors.CodeAuthServiceError, apperrors.CodeGenerationError, apperrors.CodeServerError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageForCode(code string) string {
	switch code {
	case apperrors.CodeSessionExpired:
		return "Your session has expired. Please sign in again."
	case apperrors.CodeInvalidCredentials:
		return "Invalid email or password."
	case apperrors.CodeAuthServiceError:
		return "The authentication service is unavailable."
	case apperrors.CodeValidationError:
		return "The request was invalid."
	case apperrors.CodeInvalidPage:
		return "Invalid page."
	case apperrors.CodeNotFound:
		return "Not found."
	case apperrors.CodeRequestTimeout:
		return "The request timed out."
	case apperrors.CodeGenerationError:
		return "Generation failed."
	default:
		return "Something went wrong."
	}
}
