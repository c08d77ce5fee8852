// Package server is the SmartFAQ gateway: it owns the browser session
// cookie, forwards API requests to the backend with transparent token
// refresh, runs the Google sign-in flow, and bridges the generation stream.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-smartfaq/client"
	"github.com/jrsteele09/go-smartfaq/internal/config"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/server/flowstate"
	"github.com/jrsteele09/go-smartfaq/session"
)

type GoogleOidc struct {
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
	Verifier     *oidc.IDTokenVerifier
}

// sessionEntry is the live state behind one session cookie: the token pair
// owner and the backend client bound to it.
type sessionEntry struct {
	session *session.Session
	api     *client.Client
}

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	logger   zerolog.Logger
	sessions session.Repo
	flows    flowstate.Repo

	googleOidc     *GoogleOidc
	googleOidcLock sync.RWMutex

	entries     map[string]*sessionEntry
	entriesLock sync.RWMutex

	upgrader websocket.Upgrader
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(config config.Config, sessionRepo session.Repo, flowRepo flowstate.Repo, options ...Option) (*Server, error) {
	if sessionRepo == nil {
		return nil, fmt.Errorf("[Server New] session repository is required")
	}
	if flowRepo == nil {
		return nil, fmt.Errorf("[Server New] flow state repository is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		logger:   zerolog.Nop(),
		sessions: sessionRepo,
		flows:    flowRepo,
		entries:  make(map[string]*sessionEntry),
	}
	s.env = config.GetEnv()
	for _, opt := range options {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if strings.HasPrefix(origin, getScheme(r)+"://"+r.Host) {
				return true
			}
			return s.config.GetAllowedOrigins().IsAllowedOrigin(origin)
		},
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.logger.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

// backendClient builds an unauthenticated client for login-flow calls.
func (s *Server) backendClient() *client.Client {
	return client.New(s.config.GetBackendAPIBase(),
		client.WithTimeout(s.config.GetRequestTimeout()),
		client.WithLogger(s.logger),
	)
}

// createEntry materialises the live session for a stored artifact and caches
// it. Token rotations are written back to the repository; invalidation
// removes the artifact so the next request is treated as signed out.
func (s *Server) createEntry(sessionID string, stored session.StoredSession) *sessionEntry {
	api := s.backendClient()

	sess := session.New(stored.Pair(), api, session.WithOnChange(func(pair session.TokenPair) {
		if pair.AccessToken == "" && pair.RefreshToken == "" {
			_ = s.sessions.Delete(sessionID)
			s.dropEntry(sessionID)
			return
		}
		stored.AccessToken = pair.AccessToken
		stored.RefreshToken = pair.RefreshToken
		if err := s.sessions.Upsert(sessionID, stored); err != nil {
			s.logger.Error().Err(err).Msg("persisting rotated tokens failed")
		}
	}))
	api.UseSession(sess)

	entry := &sessionEntry{session: sess, api: api}
	s.entriesLock.Lock()
	s.entries[sessionID] = entry
	s.entriesLock.Unlock()
	return entry
}

func (s *Server) dropEntry(sessionID string) {
	s.entriesLock.Lock()
	delete(s.entries, sessionID)
	s.entriesLock.Unlock()
}

// entryForRequest resolves the request's session cookie to a live entry.
func (s *Server) entryForRequest(r *http.Request) (*sessionEntry, string, error) {
	sessionID, err := s.sessionIDFromRequest(r)
	if err != nil {
		return nil, "", err
	}

	s.entriesLock.RLock()
	entry, ok := s.entries[sessionID]
	s.entriesLock.RUnlock()
	if ok {
		return entry, sessionID, nil
	}

	stored, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("[Server.entryForRequest] unknown session: %w", apperrors.ErrNoSession)
	}
	return s.createEntry(sessionID, stored), sessionID, nil
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
