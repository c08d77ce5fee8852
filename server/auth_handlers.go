package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-smartfaq/client"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
)

// sessionInfo is what the browser learns about its session. Tokens stay
// server-side.
type sessionInfo struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, badRequest("request body must be JSON"))
			return
		}

		login, err := s.backendClient().Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.establishSession(w, r, login)
	}
}

func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req client.RegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, badRequest("request body must be JSON"))
			return
		}

		login, err := s.backendClient().Register(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.establishSession(w, r, login)
	}
}

// LogoutHandler signs the browser out. It always succeeds: a missing or
// unknown session still gets its cookie cleared.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, err := s.sessionIDFromRequest(r); err == nil {
			_ = s.sessions.Delete(sessionID)
			s.dropEntry(sessionID)
		}
		s.ClearSessionCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionHandler reports who the current session belongs to.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := s.sessionIDFromRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		stored, err := s.sessions.Get(sessionID)
		if err != nil {
			s.writeError(w, apperrors.ErrNoSession)
			return
		}
		writeJSON(w, http.StatusOK, sessionInfo{
			Email:     stored.Email,
			Name:      stored.Name,
			CreatedAt: stored.CreatedAt,
		})
	}
}

// establishSession turns a backend login into a server-side session and a
// signed cookie, then reports the session identity.
func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, login client.LoginResponse) {
	info, err := s.createSession(w, r, login)
	if err != nil {
		s.logger.Error().Err(err).Msg("establishing session failed")
		s.writeError(w, apperrors.ErrUnknown)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// createSession stores the token pair server-side and issues the cookie.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request, login client.LoginResponse) (sessionInfo, error) {
	sessionID := uuid.NewString()
	stored := session.StoredSession{
		AccessToken:  login.Access,
		RefreshToken: login.Refresh,
		Email:        login.User.Email,
		Name:         strings.TrimSpace(login.User.FirstName + " " + login.User.LastName),
		CreatedAt:    time.Now(),
	}

	if err := s.sessions.Upsert(sessionID, stored); err != nil {
		return sessionInfo{}, fmt.Errorf("[Server.createSession] store session: %w", err)
	}
	s.createEntry(sessionID, stored)

	if err := s.SetSessionCookie(w, r, sessionID); err != nil {
		return sessionInfo{}, err
	}

	return sessionInfo{
		Email:     stored.Email,
		Name:      stored.Name,
		CreatedAt: stored.CreatedAt,
	}, nil
}

func badRequest(message string) error {
	return &apperrors.APIError{
		Code:    apperrors.CodeValidationError,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}
