// Package client is the typed REST surface of the SmartFAQ backend. It owns
// request plumbing, bearer auth via a session, and normalisation of backend
// failures into stable error codes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
)

// DefaultTimeout bounds every backend request unless overridden.
const DefaultTimeout = 15 * time.Second

const maxErrorBody = 64 << 10

// Client talks to the SmartFAQ backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	session    *session.Session
	logger     zerolog.Logger
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout. It applies whether or not a
// custom HTTP client is supplied, regardless of option order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSession attaches the session whose access token authenticates
// protected endpoints.
func WithSession(s *session.Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	return c
}

// UseSession attaches (or replaces) the session after construction.
func (c *Client) UseSession(s *session.Session) {
	c.session = s
}

// Session returns the attached session, nil when unauthenticated.
func (c *Client) Session() *session.Session {
	return c.session
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// send issues a JSON request and decodes the JSON response into out (when
// non-nil). Authenticated requests resolve a usable access token first, which
// may trigger a transparent refresh.
func (c *Client) send(ctx context.Context, op, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("[%s] marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("[%s] create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(op, req, authed)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[%s] decode response: %w", op, err)
	}
	return nil
}

// do executes a prepared request, attaching bearer auth when required, and
// converts any non-2xx response into an APIError. The caller owns the body of
// a successful response.
func (c *Client) do(op string, req *http.Request, authed bool) (*http.Response, error) {
	if authed {
		if c.session == nil {
			return nil, fmt.Errorf("[%s] no session attached: %w", op, apperrors.ErrNoSession)
		}
		token, err := c.session.AccessToken(req.Context())
		if err != nil {
			return nil, fmt.Errorf("[%s] resolve access token: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("backend request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("[%s] backend rejected request: %w", op, apiError(resp))
	}
	return resp, nil
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}

// classifyTransport separates timeouts from other transport failures.
func classifyTransport(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("[%s] %v: %w", op, err, apperrors.ErrRequestTimeout)
	}
	return fmt.Errorf("[%s] %v: %w", op, err, apperrors.ErrNetwork)
}

// apiError normalises a backend error response into an APIError with a
// stable code. The backend reports either {"detail": "..."} or a map of
// per-field validation messages.
func apiError(resp *http.Response) *apperrors.APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail, details := parseErrorBody(body)

	apiErr := &apperrors.APIError{
		Message: detail,
		Status:  resp.StatusCode,
		Details: details,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.Code = apperrors.CodeSessionExpired
	case resp.StatusCode == http.StatusNotFound && detail == "Invalid page.":
		apiErr.Code = apperrors.CodeInvalidPage
	case resp.StatusCode == http.StatusNotFound:
		apiErr.Code = apperrors.CodeNotFound
	case resp.StatusCode == http.StatusRequestTimeout:
		apiErr.Code = apperrors.CodeRequestTimeout
	case resp.StatusCode >= http.StatusInternalServerError:
		apiErr.Code = apperrors.CodeServerError
	case resp.StatusCode >= http.StatusBadRequest:
		apiErr.Code = apperrors.CodeValidationError
	default:
		apiErr.Code = apperrors.CodeUnknownError
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// parseErrorBody extracts a detail message and/or per-field messages from a
// backend error payload. Unparseable bodies yield neither.
func parseErrorBody(body []byte) (string, map[string][]string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil
	}

	var detail string
	if rawDetail, ok := raw["detail"]; ok {
		_ = json.Unmarshal(rawDetail, &detail)
		delete(raw, "detail")
	}

	details := map[string][]string{}
	for field, rawMessages := range raw {
		var messages []string
		if err := json.Unmarshal(rawMessages, &messages); err == nil {
			details[field] = messages
			continue
		}
		var message string
		if err := json.Unmarshal(rawMessages, &message); err == nil {
			details[field] = []string{message}
		}
	}
	if len(details) == 0 {
		details = nil
	}
	return detail, details
}
