package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/stagegrid/internal/app"
	"github.com/specialistvlad/stagegrid/internal/cli"
	"github.com/specialistvlad/stagegrid/internal/pipeline"
)

// main is the entrypoint for the stagegrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. The report goes to outW, logs go to errW.
func run(outW, errW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Recover so a panic deep in a run still ends in a clean error message.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application run panicked: %v", r)
		}
	}()

	stagegridApp := app.NewApp(outW, errW, appConfig)
	if err := stagegridApp.Run(context.Background()); err != nil {
		if errors.Is(err, pipeline.ErrInvalidCount) {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
		return err
	}
	return nil
}
