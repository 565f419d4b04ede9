package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/specialistvlad/stagegrid/internal/metrics"
	"github.com/specialistvlad/stagegrid/internal/segment"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	segments   *segment.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
	runID      uuid.UUID
}

// NewApp is the constructor for the main application. The report goes to
// outW and logs go to logW. Every App gets its own logger, segment registry
// and metrics registry.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	runID := uuid.New()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW).With("run_id", runID.String())
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		segments: segment.NewRegistry(),
		metrics:  metrics.New(),
		runID:    runID,
	}
}

// Metrics returns the application's metrics. This is primarily for testing.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Segments returns the application's segment registry. This is primarily for testing.
func (a *App) Segments() *segment.Registry {
	return a.segments
}

// RunID identifies this App in logs.
func (a *App) RunID() uuid.UUID {
	return a.runID
}
