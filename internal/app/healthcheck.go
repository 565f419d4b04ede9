package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
)

// healthHandler reports liveness together with the segment registry state.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	st := a.segments.Stats()
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK segments=%d attachments=%d\n", st.Segments, st.Attachments)
}

// healthCheckMux routes /health and /metrics.
func (a *App) healthCheckMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}

// healthCheckServer initializes and runs the health check HTTP server.
func (a *App) healthCheckServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring health check server.")
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled.")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Health check server failed to listen.", "address", addr, "error", err)
		return
	}

	a.httpServer = &http.Server{
		Handler:           a.healthCheckMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Run the server in a goroutine so it doesn't block.
	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()
}

func (a *App) closeHealthCheckServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health check server shutdown failed.", "error", err)
		return
	}
	a.httpServer = nil
	logger.Debug("Health check server shut down gracefully.")
}
