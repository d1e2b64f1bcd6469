// Package web serves the portal's HTTP API: login and logout, the task
// dashboard read path (views, filters, stats, pagination), task creation,
// and batch save of edited views.
//
// Sessions are held in memory and keyed by an opaque cookie. Each session
// wraps one user's worksheet cache; a per-session mutex serializes handler
// access since the cache itself is single-owner.
package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/med-x/opsportal/internal/auth"
	"github.com/med-x/opsportal/internal/session"
	"github.com/med-x/opsportal/pkg/types"
)

// sessionCookie names the opaque session id cookie.
const sessionCookie = "opsportal_session"

// Identity headers set by an authenticating reverse proxy. When present they
// take precedence over the login endpoint.
const (
	headerAuthEmail = "X-Auth-Request-Email"
	headerAuthName  = "X-Auth-Request-User"
)

// SessionFactory builds a worksheet session for a verified identity. The
// wiring layer closes over the store backend and audit sink here.
type SessionFactory func(user types.Identity) (*session.Session, error)

// Config holds server configuration.
type Config struct {
	// Port to listen on (default: 8080).
	Port int

	// Logger for server activity (default: the process logger).
	Logger *log.Logger
}

// Server owns the HTTP listener and the in-memory session registry.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
	logger   *log.Logger

	verifier   *auth.Verifier
	newSession SessionFactory

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// liveSession pairs a session with the mutex that serializes access to it.
type liveSession struct {
	mu   sync.Mutex
	sess *session.Session
}

// NewServer creates the API server. verifier gates logins; factory builds a
// session per login.
func NewServer(cfg *Config, verifier *auth.Verifier, factory SessionFactory) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	port := cfg.Port
	if port == 0 {
		port = 8080
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		addr:       fmt.Sprintf(":%d", port),
		logger:     logger,
		verifier:   verifier,
		newSession: factory,
		sessions:   make(map[string]*liveSession),
	}
}

// Start begins listening and serving. Non-blocking; call Stop to shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		s.logger.Printf("portal API listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server and closes every live session.
func (s *Server) Stop() error {
	s.mu.Lock()
	for id, live := range s.sessions {
		live.mu.Lock()
		live.sess.Close()
		live.mu.Unlock()
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Println("portal API stopped")
	return nil
}

// Addr returns the listener address, or the configured address before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Handler returns the routed handler. Exposed for tests that serve through
// httptest instead of a real listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/tasks", s.handleTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreate)
	mux.HandleFunc("POST /api/tasks/save", s.handleSave)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// openSession verifies the identity, builds a session, and registers it
// under a fresh id.
func (s *Server) openSession(email, name string) (string, *liveSession, error) {
	user, err := s.verifier.Verify(email, name)
	if err != nil {
		return "", nil, err
	}
	sess, err := s.newSession(user)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	live := &liveSession{sess: sess}
	s.mu.Lock()
	s.sessions[id] = live
	s.mu.Unlock()

	s.logger.Printf("session opened for %s", user.Email)
	return id, live, nil
}

// closeSession tears down the session registered under id, if any.
func (s *Server) closeSession(id string) {
	s.mu.Lock()
	live, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	live.mu.Lock()
	email := live.sess.User().Email
	live.sess.Close()
	live.mu.Unlock()
	s.logger.Printf("session closed for %s", email)
}

// sessionFor resolves the request's session. When no cookie matches but the
// reverse proxy supplied identity headers, a session is opened transparently
// and the new cookie is set on the response.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*liveSession, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		live, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if ok {
			return live, true
		}
	}

	email := r.Header.Get(headerAuthEmail)
	if email == "" {
		return nil, false
	}
	id, live, err := s.openSession(email, r.Header.Get(headerAuthName))
	if err != nil {
		s.logger.Printf("proxy login rejected for %q: %v", email, err)
		return nil, false
	}
	setSessionCookie(w, id)
	return live, true
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
