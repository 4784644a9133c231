package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/metrics"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// VersionSource reports build and update information.
type VersionSource interface {
	Info() types.VersionInfo
}

// Server is the HTTP server of the audioctl daemon.
type Server struct {
	cfg      *config.Config
	commands *CommandHandler
	monitor  *Monitor
	metrics  *metrics.Metrics
	version  VersionSource
}

// New returns a Server serving the given command handler and monitor.
func New(cfg *config.Config, commands *CommandHandler, monitor *Monitor, m *metrics.Metrics, version VersionSource) *Server {
	return &Server{
		cfg:      cfg,
		commands: commands,
		monitor:  monitor,
		metrics:  m,
		version:  version,
	}
}

// Routes returns an [http.Handler] configured with all daemon routes.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/devices", s.apiKeyAuth(s.handleListDevices))
	mux.HandleFunc("GET /api/devices/{id}", s.apiKeyAuth(s.handleGetDevice))
	mux.HandleFunc("POST /api/devices/default", s.apiKeyAuth(s.handleSetDefault))
	mux.HandleFunc("GET /api/volume", s.apiKeyAuth(s.handleGetVolume))
	mux.HandleFunc("POST /api/volume", s.apiKeyAuth(s.handleSetVolume))
	mux.HandleFunc("GET /api/mute", s.apiKeyAuth(s.handleGetMute))
	mux.HandleFunc("POST /api/mute", s.apiKeyAuth(s.handleSetMute))
	mux.HandleFunc("GET /api/events", s.apiKeyAuth(s.handleListEvents))
	mux.HandleFunc("POST /api/notifications/{channel}/test", s.apiKeyAuth(s.handleTestNotification))
	mux.HandleFunc("GET /api/version", s.apiKeyAuth(s.handleVersion))

	mux.HandleFunc("GET /ws", s.apiKeyAuth(s.handleWebSocket))
	mux.Handle("GET /metrics", s.metrics.Handler())

	return securityHeaders(mux)
}

// Run serves on the configured listen address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen := s.cfg.Snapshot().Listen
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", l.Addr().String())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// securityHeaders returns middleware that wraps handlers with security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// apiKeyAuth returns middleware for API key authentication. Without a
// configured key every request is allowed. The key is accepted as a bearer
// token, and for browsers opening /ws as the api_key query parameter.
func (s *Server) apiKeyAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := s.cfg.Snapshot().APIKey
		if apiKey == "" {
			next(w, r)
			return
		}

		provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			provided = r.URL.Query().Get("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="audioctl"`)
			writeJSON(w, http.StatusUnauthorized, types.APIError{Error: "unauthorized"})
			return
		}
		next(w, r)
	}
}
