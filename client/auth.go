package client

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
)

// Login authenticates with email and password. A rejected credential pair
// resolves to ErrInvalidCredentials, a broken auth service to ErrAuthService.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out LoginResponse
	if err := c.send(ctx, "Client.Login", http.MethodPost, "/auth/login/", body, &out, false); err != nil {
		return LoginResponse{}, reclassifyAuth(err)
	}
	return out, nil
}

// GoogleLogin exchanges Google OAuth tokens for a backend session.
func (c *Client) GoogleLogin(ctx context.Context, accessToken, idToken string) (LoginResponse, error) {
	body := struct {
		AccessToken string `json:"access_token,omitempty"`
		IDToken     string `json:"id_token,omitempty"`
	}{AccessToken: accessToken, IDToken: idToken}

	var out LoginResponse
	if err := c.send(ctx, "Client.GoogleLogin", http.MethodPost, "/auth/google/", body, &out, false); err != nil {
		return LoginResponse{}, reclassifyAuth(err)
	}
	return out, nil
}

// Register creates a new account. The backend logs the account in on
// success, so the reply carries tokens like Login.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (LoginResponse, error) {
	var out LoginResponse
	if err := c.send(ctx, "Client.Register", http.MethodPost, "/auth/registration/", req, &out, false); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new pair. When the backend rotates
// without returning a new refresh token, the old one is carried forward so
// the pair stays complete. Implements session.Refresher.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error) {
	body := struct {
		Refresh string `json:"refresh"`
	}{Refresh: refreshToken}

	var out session.TokenPair
	if err := c.send(ctx, "Client.Refresh", http.MethodPost, "/auth/token/refresh/", body, &out, false); err != nil {
		return session.TokenPair{}, err
	}
	if out.AccessToken == "" {
		return session.TokenPair{}, fmt.Errorf("[Client.Refresh] response carried no access token: %w", apperrors.ErrAuthService)
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

var _ session.Refresher = (*Client)(nil)

// reclassifyAuth remaps login-flow failures: a 401 during login means the
// credentials were wrong, not that a session expired, and a 5xx means the
// auth service itself is unavailable.
func reclassifyAuth(err error) error {
	var apiErr *apperrors.APIError
	if !apperrors.As(err, &apiErr) {
		return err
	}
	_, nonFieldError := apiErr.Details["non_field_errors"]

	switch {
	case apiErr.Status == http.StatusUnauthorized:
		apiErr.Code = apperrors.CodeInvalidCredentials
	case apiErr.Status == http.StatusBadRequest && nonFieldError:
		apiErr.Code = apperrors.CodeInvalidCredentials
	case apiErr.Status >= http.StatusInternalServerError:
		apiErr.Code = apperrors.CodeAuthServiceError
	}
	return err
}
