package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/specialistvlad/stagegrid/internal/app"
	"github.com/specialistvlad/stagegrid/internal/ctxlog"
	"github.com/specialistvlad/stagegrid/internal/model"
	"github.com/specialistvlad/stagegrid/internal/report"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// Settings are layered lowest to highest: built-in defaults, STAGEGRID_*
// environment variables, grid files, explicitly passed flags.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	env, err := app.LoadEnv()
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	flagSet := flag.NewFlagSet("stagegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
StageGrid - A three-stage concurrent pipeline over a shared record table.

Usage:
  stagegrid [options] [N | GRID_PATH]

Arguments:
  N
    Number of random pairs to process.
  GRID_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Every option can also be set through a STAGEGRID_<NAME> environment variable,
e.g. STAGEGRID_MAX_CAPACITY=50. Explicit options override grid files, which
override the environment.

Options:
`)
		flagSet.PrintDefaults()
	}

	gridFlag := flagSet.String("grid", "", "Path to the grid file or directory.")
	gFlag := flagSet.String("g", "", "Path to the grid file or directory (shorthand).")
	countFlag := flagSet.Int("n", 0, "Number of random pairs to process.")
	maxCapacityFlag := flagSet.Int("max-capacity", env.MaxCapacity, "Largest accepted number of pairs.")
	delayFlag := flagSet.Duration("delay", env.Delay, "Pause of every stage after each record. 0 disables pauses.")
	moduloFlag := flagSet.Int("modulo", env.Modulo, "Generated values lie in [0, modulo).")
	seedFlag := flagSet.Uint64("seed", env.Seed, "Seed for generated pairs. 0 picks one from the clock.")
	segmentFlag := flagSet.String("segment", env.Segment, "Name of the shared segment holding the table.")
	formatFlag := flagSet.String("format", env.Format, "Report format. Options: 'table', 'json', 'yaml'.")
	healthPortFlag := flagSet.Int("healthcheck-port", env.HealthcheckPort, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", env.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", env.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if flagSet.NArg() > 1 {
		return nil, false, usageError("expected at most one argument, got %d", flagSet.NArg())
	}

	path := ""
	if *gridFlag != "" {
		path = *gridFlag
	} else if *gFlag != "" {
		path = *gFlag
	}

	count, hasCount := *countFlag, explicit["n"]
	if flagSet.NArg() == 1 {
		arg := flagSet.Arg(0)
		if n, err := strconv.Atoi(arg); err == nil {
			if hasCount {
				return nil, false, usageError("pair count given twice: -n %d and argument %q", count, arg)
			}
			count, hasCount = n, true
		} else if path == "" {
			path = arg
		} else {
			return nil, false, usageError("unexpected argument %q: grid path already set to %q", arg, path)
		}
	}
	slog.Debug("Input determined.", "path", path, "count", count, "has_count", hasCount)

	cfg := app.Config{
		GridPath:        path,
		Count:           count,
		MaxCapacity:     *maxCapacityFlag,
		Delay:           *delayFlag,
		Modulo:          *moduloFlag,
		Seed:            *seedFlag,
		Segment:         *segmentFlag,
		Format:          report.Format(strings.ToLower(*formatFlag)),
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		HealthcheckPort: *healthPortFlag,
	}

	hasInput := hasCount
	if path != "" {
		grid, err := model.LoadGrid(ctxlog.WithLogger(context.Background(), slog.Default()), path)
		if err != nil {
			return nil, false, usageError("%v", err)
		}
		if err := applyGrid(&cfg, grid, explicit, hasCount); err != nil {
			return nil, false, err
		}
		hasInput = hasInput || grid.HasInput()
	}

	if !hasInput {
		slog.Debug("No input provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// applyGrid copies grid settings into cfg for every option that was not
// passed explicitly.
func applyGrid(cfg *app.Config, grid *model.Grid, explicit map[string]bool, hasCount bool) error {
	if len(grid.Pairs) > 0 && hasCount {
		return usageError("pair count given on the command line, but grid %s lists explicit pairs", cfg.GridPath)
	}

	layer(&cfg.MaxCapacity, grid.MaxCapacity, !explicit["max-capacity"])
	layer(&cfg.Delay, grid.Delay, !explicit["delay"])
	layer(&cfg.Segment, grid.Segment, !explicit["segment"])
	if grid.Format != nil && !explicit["format"] {
		cfg.Format = report.Format(strings.ToLower(*grid.Format))
	}

	cfg.Pairs = grid.Pairs
	if gen := grid.Generate; gen != nil {
		if !hasCount {
			cfg.Count = gen.Count
		}
		layer(&cfg.Modulo, gen.Modulo, !explicit["modulo"])
		layer(&cfg.Seed, gen.Seed, !explicit["seed"])
	}
	return nil
}

func layer[T any](dst *T, v *T, apply bool) {
	if apply && v != nil {
		*dst = *v
	}
}
