// Package api assembles the HTTP surface of the analysis gateway:
// the WebSocket endpoint, health probes and the service info root.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"poise/internal/api/health"
	"poise/internal/api/ws"
	"poise/pkg/errors"
	"poise/pkg/logger"
)

// ServerConfig contains configuration for the gateway HTTP server
type ServerConfig struct {
	Addr        string
	ServiceName string
	Version     string
	ReadTimeout time.Duration
}

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures the gateway server with all routes
func NewServer(cfg ServerConfig, wsHandler *ws.Handler, healthHandler *health.Handler, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Streaming analysis endpoint
	mux.Handle("/ws", wsHandler)

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}

	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     mux,
		ReadTimeout: readTimeout,
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests.
// Blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	s.log.Infof("Gateway listening on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
// Waits for active connections to complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}
	s.log.Info("Gateway stopped")
	return nil
}
