package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/buildstatus/internal/app"
	"github.com/specialistvlad/buildstatus/internal/cli"
	"github.com/specialistvlad/buildstatus/internal/ctxlog"
)

// main is the entrypoint for configstatus, the config.status replacement
// configure invokes after it has recorded its results.
func main() {
	// Use a minimal logger until the App configures terminal logging.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:], os.Environ()); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW, errW io.Writer, args, environ []string, opts ...app.Option) error {
	config, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	a := app.NewApp(outW, errW, environ, opts...)
	// Regenerate checks again; checking here reports the problem before the
	// results file is read.
	if err := a.CheckEnvironment(); err != nil {
		return err
	}

	ctx := ctxlog.WithLogger(context.Background(), a.Logger())
	params, err := app.LoadParams(ctx, config.ResultsPath)
	if err != nil {
		return err
	}
	return a.Regenerate(ctx, params, config.Options)
}
