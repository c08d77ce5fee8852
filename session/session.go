package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
)

// TokenPair holds an access/refresh token pair. The two tokens are only
// ever replaced together - a pair is never partially updated.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// Session owns the token pair for one authenticated context and hands out
// usable access tokens, refreshing transparently when the held one is
// stale. It is safe for concurrent use: callers that discover a stale token
// at the same time share a single in-flight refresh exchange.
type Session struct {
	refresher Refresher
	nowTime   func() time.Time // nowTime function (injectable for testing)
	onChange  func(TokenPair)

	mu   sync.Mutex
	pair TokenPair

	flight singleflight.Group
}

// Option defines a function type to modify the Session instance.
type Option func(*Session)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

// WithOnChange registers a callback invoked after every token pair
// replacement, including invalidation (empty pair). Used to persist the
// session artifact - the gateway rewrites its cookie store, the CLI its
// session file.
func WithOnChange(fn func(TokenPair)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// New initialises a Session with an initial token pair and the exchange
// used when the access token goes stale.
func New(pair TokenPair, refresher Refresher, options ...Option) *Session {
	s := &Session{
		refresher: refresher,
		nowTime:   time.Now,
		pair:      pair,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Tokens returns a copy of the current token pair.
func (s *Session) Tokens() TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

// SetTokens replaces both tokens together.
func (s *Session) SetTokens(pair TokenPair) {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(pair)
	}
}

// Clear invalidates the session - both tokens are dropped.
func (s *Session) Clear() {
	s.SetTokens(TokenPair{})
}

// AccessToken returns an access token that is currently usable. A usable
// held token is returned without any network call. A stale token triggers a
// refresh exchange; concurrent callers await the same exchange and all
// resolve with the same pair or fail together. Any refresh failure
// invalidates the whole session and is never retried automatically.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	pair := s.Tokens()

	if IsUsable(pair.AccessToken, s.nowTime()) {
		return pair.AccessToken, nil
	}

	if pair.RefreshToken == "" {
		return "", apperrors.ErrSessionExpired
	}

	v, err, _ := s.flight.Do("refresh", func() (any, error) {
		return s.refreshLocked(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(TokenPair).AccessToken, nil
}

// refreshLocked runs inside the single-flight group, so at most one
// execution is in progress per Session.
func (s *Session) refreshLocked(ctx context.Context) (TokenPair, error) {
	// A caller queued behind the flight lock may find the pair already
	// rotated by the execution it shared.
	pair := s.Tokens()
	if IsUsable(pair.AccessToken, s.nowTime()) {
		return pair, nil
	}
	if pair.RefreshToken == "" {
		return TokenPair{}, apperrors.ErrSessionExpired
	}

	fresh, err := s.refresher.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		// Fail closed: rejection, network failure and malformed responses
		// all invalidate the session. The caller must re-authenticate.
		s.Clear()
		return TokenPair{}, fmt.Errorf("[Session.AccessToken] refresh exchange failed: %v: %w", err, apperrors.ErrSessionExpired)
	}

	s.SetTokens(fresh)
	return fresh, nil
}
