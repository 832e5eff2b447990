package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/thruflo/clipsync/internal/logging"
	"github.com/thruflo/clipsync/internal/remote"
)

const (
	// DefaultPort is used when Config.Port is zero and Config.Listen is empty.
	DefaultPort = 8080

	// MaxTextBytes caps the size of a POST body.
	MaxTextBytes = 1 << 20
)

// Server is the reference clipboard store.
type Server struct {
	addr    string
	store   ValueStore
	limiter *rateLimiter
	logger  *logging.Logger

	// HTTP server
	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	started  bool
}

// Config holds server configuration options.
type Config struct {
	// Host to bind. Empty binds all interfaces.
	Host string
	// Port to bind. Zero picks DefaultPort; use Listen ":0" for a random port.
	Port int
	// Listen overrides Host and Port when set.
	Listen string

	// Store defaults to a MemoryStore.
	Store     ValueStore
	RateLimit RateLimitConfig
	Logger    *logging.Logger
}

// NewServer creates a new Server instance.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}

	addr := cfg.Listen
	if addr == "" {
		port := cfg.Port
		if port == 0 {
			port = DefaultPort
		}
		addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Server{
		addr:    addr,
		store:   store,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
	}, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the HTTP handler serving the store's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return mux
}

// Start starts the HTTP server.
// The server runs until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("clipboard store listening", "addr", listener.Addr().String())

	go s.cleanupRateLimits(ctx)
	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	// Run server (blocks until error or server closed)
	err = s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.started = false
	s.logger.Info("clipboard store stopped")
	return nil
}

// ListenAddr returns the actual address the server is listening on.
// Useful when port 0 is used to get an available port.
// Returns empty string if not started.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc(remote.ClipboardPath, s.handleClipboard)
	mux.HandleFunc("/healthz", s.handleHealth)
}

func (s *Server) cleanupRateLimits(ctx context.Context) {
	ticker := time.NewTicker(s.limiter.config.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.cleanup()
		}
	}
}

func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	text, err := s.store.Get(r.Context())
	if err != nil {
		s.logger.Error("failed to read value", "error", err)
		writeStatus(w, http.StatusInternalServerError, "failed to read value")
		return
	}
	writeJSON(w, http.StatusOK, remote.Payload{Text: text})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r)
	if result := s.limiter.check(ip); !result.Allowed {
		seconds := int((result.RetryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		s.logger.Warn("write rate limited", "ip", ip, "writes", result.Count, "retry_after", result.RetryAfter)
		writeStatus(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxTextBytes)

	var payload remote.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatus(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeStatus(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := s.store.Set(r.Context(), payload.Text); err != nil {
		s.logger.Error("failed to store value", "error", err)
		writeStatus(w, http.StatusInternalServerError, "failed to store value")
		return
	}

	s.logger.Debug("value updated", "ip", ip, "instance", r.Header.Get(remote.InstanceHeader), "bytes", len(payload.Text))
	writeJSON(w, http.StatusOK, remote.StatusResponse{Status: "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, remote.StatusResponse{Status: "ok"})
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, remote.StatusResponse{Status: "error", Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
