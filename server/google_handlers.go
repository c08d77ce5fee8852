package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-smartfaq/server/flowstate"
)

const googleIssuer = "https://accounts.google.com"

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// googleOidcConfig lazily discovers Google's OIDC endpoints. Discovery needs
// the network, so it happens on first use rather than at construction.
func (s *Server) googleOidcConfig(ctx context.Context) (*GoogleOidc, error) {
	s.googleOidcLock.RLock()
	cfg := s.googleOidc
	s.googleOidcLock.RUnlock()
	if cfg != nil {
		return cfg, nil
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("[Server.googleOidcConfig] create OIDC provider: %w", err)
	}

	clientID := s.config.GetGoogleClientID()
	cfg = &GoogleOidc{
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: s.config.GetGoogleClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  s.config.GetBaseURL() + RouteAuthGoogleCallback,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}

	s.googleOidcLock.Lock()
	s.googleOidc = cfg
	s.googleOidcLock.Unlock()

	return cfg, nil
}

// GoogleLoginHandler starts the Google sign-in flow: it records a state and
// nonce for the pending attempt and redirects to Google's consent screen.
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		oidcConfig, err := s.googleOidcConfig(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("google OIDC discovery failed")
			s.writeError(w, err)
			return
		}

		state := generateRandomString(32)
		nonce := generateRandomString(32)

		if err := s.flows.Upsert(state, &flowstate.FlowState{
			Nonce:     nonce,
			ReturnURL: r.URL.Query().Get("return_url"),
			CreatedAt: time.Now(),
		}); err != nil {
			s.writeError(w, err)
			return
		}

		http.Redirect(w, r, oidcConfig.OAuth2Config.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusFound)
	}
}

// GoogleCallbackHandler finishes the Google sign-in flow: code exchange, ID
// token verification, nonce check, then a backend token exchange that turns
// the Google identity into a SmartFAQ session.
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", errorParam, errorDesc), http.StatusBadRequest)
			return
		}

		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		flow, err := s.flows.Get(state)
		if err != nil || flow == nil {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		// Clean up state after use
		if err := s.flows.Delete(state); err != nil {
			http.Error(w, "Invalid state parameter", http.StatusInternalServerError)
			return
		}

		oidcConfig, err := s.googleOidcConfig(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get OIDC config: %v", err), http.StatusInternalServerError)
			return
		}

		oauth2Token, err := oidcConfig.OAuth2Config.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			http.Error(w, "No ID token in response", http.StatusInternalServerError)
			return
		}

		// Verify the ID token signature and claims (including nonce)
		idToken, err := oidcConfig.Verifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			http.Error(w, fmt.Sprintf("ID token verification failed: %v", err), http.StatusInternalServerError)
			return
		}

		var claims struct {
			Nonce string `json:"nonce"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			http.Error(w, fmt.Sprintf("Failed to extract claims: %v", err), http.StatusInternalServerError)
			return
		}

		// Validate nonce to prevent replay attacks
		if claims.Nonce != flow.Nonce {
			http.Error(w, "Invalid nonce", http.StatusUnauthorized)
			return
		}

		// Exchange the Google identity for backend tokens
		login, err := s.backendClient().GoogleLogin(r.Context(), oauth2Token.AccessToken, rawIDToken)
		if err != nil {
			s.logger.Error().Err(err).Msg("backend google exchange failed")
			s.writeError(w, err)
			return
		}
		if login.User.Email == "" {
			login.User.Email = claims.Email
		}
		if login.User.FirstName == "" && login.User.LastName == "" {
			login.User.FirstName = claims.Name
		}

		if _, err := s.createSession(w, r, login); err != nil {
			s.logger.Error().Err(err).Msg("establishing session failed")
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		// Redirect to original destination or the dashboard
		returnURL := flow.ReturnURL
		if returnURL == "" {
			returnURL = "/"
		}
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
	}
}
