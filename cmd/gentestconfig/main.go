package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/buildstatus/internal/cli"
	"github.com/specialistvlad/buildstatus/internal/logging"
	"github.com/specialistvlad/buildstatus/internal/raptor"
)

// main is the entrypoint for gentestconfig, which writes the raptor
// webextension's test configuration.
func main() {
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

func run(outW, errW io.Writer, args []string) error {
	a, shouldExit, err := cli.ParseTestConfig(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := logging.New(a.LogLevel, a.LogFormat, errW)
	_, err = raptor.WriteTestConfig(logger, a.HarnessDir, a.Browser, a.Test, a.CSPort, a.PostStartupDelay,
		raptor.WithHost(a.Host),
		raptor.WithBenchmarkPort(a.BenchmarkPort),
		raptor.WithDebugMode(a.DebugMode),
		raptor.WithBrowserCycle(a.BrowserCycle),
	)
	return err
}
