package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"github.com/hostgate-io/hostgate/sdk/go/hostgate"
)

// Config holds gate server configuration.
type Config struct {
	Listen     string
	Upstream   string
	ConfigPath string
	AuditPath  string
	Debug      bool
}

// Server is a reverse proxy that fronts one upstream and enforces the
// host allow-list on every inbound request. The gate is rebuilt on
// Reload so config-file changes take effect without a restart.
type Server struct {
	cfg      Config
	upstream *url.URL
	srv      *http.Server

	mu      sync.RWMutex
	gate    *hostgate.Client
	handler http.Handler
}

// New creates a gate server with a loaded config file and a parsed
// upstream URL.
func New(cfg Config) (*Server, error) {
	if cfg.Upstream == "" {
		return nil, errors.New("upstream URL is required")
	}
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", cfg.Upstream, err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must include scheme and host", cfg.Upstream)
	}

	s := &Server{cfg: cfg, upstream: upstream}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	s.srv = &http.Server{Addr: cfg.Listen, Handler: s.Handler()}
	return s, nil
}

// Reload rebuilds the gate from the config file and swaps it in. The
// previous gate is closed after the swap so in-flight requests finish
// against whichever gate they started with.
func (s *Server) Reload() error {
	opts := []hostgate.Option{hostgate.WithConfig(s.cfg.ConfigPath)}
	if s.cfg.AuditPath != "" {
		opts = append(opts, hostgate.WithAuditLog(s.cfg.AuditPath))
	}
	if s.cfg.Debug {
		opts = append(opts, hostgate.WithDebug(true))
	}

	gate, err := hostgate.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to build gate: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(s.upstream)
	handler := gate.Middleware(proxy)

	s.mu.Lock()
	old := s.gate
	s.gate = gate
	s.handler = handler
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Handler returns the gated proxy handler, always routing through the
// most recently loaded gate.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		h := s.handler
		s.mu.RUnlock()
		h.ServeHTTP(w, r)
	})
}

// Serve starts the HTTP server on the configured address. Blocks until
// Shutdown.
func (s *Server) Serve() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ServeOn starts the server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	err := s.srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and closes the gate.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)

	s.mu.Lock()
	gate := s.gate
	s.gate = nil
	s.mu.Unlock()

	if gate != nil {
		if cerr := gate.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
