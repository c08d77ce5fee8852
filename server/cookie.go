package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
)

// sessionCookieName is the name of the cookie carrying the signed session id
const sessionCookieName = "smartfaq_session"

// SetSessionCookie issues the session cookie: an HS256-signed JWT whose only
// payload is the opaque session id. Token pairs never leave the server.
func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) error {
	maxAge := s.config.GetSessionMaxAge()
	now := time.Now()

	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(maxAge).Unix(),
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.GetSessionSecret())
	if err != nil {
		return fmt.Errorf("[Server.SetSessionCookie] sign cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
	return nil
}

func (s *Server) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// sessionIDFromRequest verifies the cookie signature and expiry and returns
// the session id. Any failure reads as "not signed in".
func (s *Server) sessionIDFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", apperrors.ErrNoSession
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.config.GetSessionSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", apperrors.ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.ErrNoSession
	}
	sessionID, ok := claims["sid"].(string)
	if !ok || sessionID == "" {
		return "", apperrors.ErrNoSession
	}
	return sessionID, nil
}
