package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/generator"
	"github.com/specialistvlad/stagegrid/internal/metrics"
	"github.com/specialistvlad/stagegrid/internal/pipeline"
	"github.com/specialistvlad/stagegrid/internal/report"
	"github.com/specialistvlad/stagegrid/internal/segment"
	"github.com/specialistvlad/stagegrid/internal/table"
)

// Run executes the main application logic based on the configuration the
// App was built with.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer(ctx)
	defer a.closeHealthCheckServer(ctx)

	pairs, err := a.inputs(ctx)
	if err != nil {
		return err
	}

	view, err := a.execute(ctx, pairs)
	if err != nil {
		return err
	}

	if err := report.Write(a.outW, view, a.config.Format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// inputs returns the explicit pairs or generates Count random ones.
func (a *App) inputs(ctx context.Context) ([]table.Pair, error) {
	logger := ctxlog.FromContext(ctx)
	if len(a.config.Pairs) > 0 {
		logger.Debug("Using explicit pairs.", "count", len(a.config.Pairs))
		return a.config.Pairs, nil
	}

	pairs, err := generator.Random(a.config.Count, a.config.Modulo, a.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate input: %w", err)
	}
	logger.Debug("Generated random pairs.", "count", len(pairs), "modulo", a.config.Modulo, "seed", a.config.Seed)
	return pairs, nil
}

// execute attaches the shared segment, runs the pipeline over it and removes
// the segment again, whatever the outcome.
func (a *App) execute(ctx context.Context, pairs []table.Pair) (table.View, error) {
	logger := ctxlog.FromContext(ctx)
	key := segment.KeyFor(a.config.Segment)
	logger.Debug("Attaching segment.", "segment", a.config.Segment, "key", key.String(), "capacity", a.config.MaxCapacity)

	opts := pipeline.Options{
		MaxCapacity: a.config.MaxCapacity,
		Observer:    a.metrics,
	}
	if a.config.Delay > 0 {
		opts.Pacer = pipeline.FixedDelay(a.config.Delay)
	}

	start := time.Now()
	var view table.View
	err := segment.With(a.segments, key, a.config.MaxCapacity, func(tbl *table.Table) error {
		var runErr error
		view, runErr = pipeline.Run(ctx, tbl, pairs, opts)
		return runErr
	})
	a.metrics.ObserveRun(outcome(err), time.Since(start))

	if destroyErr := a.segments.Destroy(key); destroyErr != nil && !errors.Is(destroyErr, segment.ErrNotExist) {
		logger.Warn("Failed to remove segment.", "key", key.String(), "error", destroyErr)
	}

	if err != nil {
		logger.Error("Pipeline run failed.", "error", err)
		return table.View{}, fmt.Errorf("pipeline run failed: %w", err)
	}
	return view, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, pipeline.ErrInvalidCount):
		return metrics.OutcomeConfigError
	default:
		return metrics.OutcomeError
	}
}
