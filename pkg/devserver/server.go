// Package devserver is a stand-in for the teaching-assistant backend. It
// speaks the same wire contract over WebSocket with canned replies, so the
// client, the chat view, and the integration tests have a real peer without
// the production service.
package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lecternhq/lectern/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	server *http.Server
	router *chi.Mux
	logger *slog.Logger
}

type Config struct {
	Bind   string
	Port   int
	Logger *slog.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	s := &Server{
		router: r,
		logger: cfg.Logger,
	}

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", s.handleWebSocket)

	s.server = &http.Server{
		Addr:              resolveAddr(cfg.Bind, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler exposes the router for tests that mount the server in-process.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	logger := telemetry.FromContext(ctx)
	logger.Info("devserver listening", slog.String("addr", s.server.Addr))

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("devserver listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("devserver shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func resolveAddr(bind string, port int) string {
	var host string
	switch bind {
	case "lan", "all":
		host = "0.0.0.0"
	case "loopback", "":
		host = "127.0.0.1"
	default:
		host = bind
	}
	return fmt.Sprintf("%s:%d", host, port)
}
