package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/buildstatus/internal/app"
	"github.com/specialistvlad/buildstatus/internal/configenv"
	"github.com/specialistvlad/buildstatus/internal/logging"
	"github.com/spf13/pflag"
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

// Parse processes configstatus's command-line arguments. It returns a
// populated app.Config, a boolean indicating if the program should exit
// cleanly, or an ExitError. Positional arguments are ignored.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("configstatus", pflag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
configstatus - regenerate build files from the results of a configure run.

Usage:
  configstatus [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	var opts app.Options
	flagSet.BoolVar(&opts.Recheck, "recheck", false, "update config.status by reconfiguring in the same conditions")
	flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output")
	flagSet.BoolVarP(&opts.NotTopObjDir, "not-topobjdir", "n", false, "do not consider current directory as top object directory")
	flagSet.BoolVarP(&opts.Diff, "diff", "d", false, "print diffs of changed files.")
	resultsFlag := flagSet.String("config", configenv.DefaultResultsFile, "Path to the configure results file.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		slog.Debug("Ignoring positional arguments.", "args", flagSet.Args())
	}

	config, err := app.NewConfig(app.Config{
		ResultsPath: *resultsFlag,
		Options:     opts,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// TestConfigArgs is the parsed gentestconfig command line.
type TestConfigArgs struct {
	Browser          string
	Test             string
	CSPort           int
	PostStartupDelay int
	Host             string
	BenchmarkPort    int
	DebugMode        int
	BrowserCycle     int

	HarnessDir string
	LogFormat  string
	LogLevel   slog.Level
}

// ParseTestConfig processes gentestconfig's command-line arguments, with
// the same return convention as Parse.
func ParseTestConfig(args []string, output io.Writer) (*TestConfigArgs, bool, error) {
	flagSet := pflag.NewFlagSet("gentestconfig", pflag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gentestconfig - write the raptor webextension's test configuration.

Usage:
  gentestconfig --browser NAME --test NAME --cs-port PORT --post-startup-delay MS [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	var a TestConfigArgs
	flagSet.StringVar(&a.Browser, "browser", "", "Browser under test (required).")
	flagSet.StringVar(&a.Test, "test", "", "Test name (required).")
	flagSet.IntVar(&a.CSPort, "cs-port", 0, "Control server port (required).")
	flagSet.IntVar(&a.PostStartupDelay, "post-startup-delay", 0, "Delay after browser startup, in milliseconds (required).")
	flagSet.StringVar(&a.Host, "host", "127.0.0.1", "Host serving the test settings.")
	flagSet.IntVar(&a.BenchmarkPort, "benchmark-port", 0, "Benchmark server port.")
	flagSet.IntVar(&a.DebugMode, "debug-mode", 0, "Debug mode flag passed to the extension (0 or 1).")
	flagSet.IntVar(&a.BrowserCycle, "browser-cycle", 1, "Current browser cycle.")
	flagSet.StringVar(&a.HarnessDir, "harness-dir", ".", "Directory of the raptor harness; the config is written to its sibling webext/raptor.")
	flagSet.StringVar(&a.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	var missing []string
	if a.Browser == "" {
		missing = append(missing, "--browser")
	}
	if a.Test == "" {
		missing = append(missing, "--test")
	}
	if !flagSet.Changed("cs-port") {
		missing = append(missing, "--cs-port")
	}
	if !flagSet.Changed("post-startup-delay") {
		missing = append(missing, "--post-startup-delay")
	}
	if len(missing) > 0 {
		return nil, false, &ExitError{Code: 2, Message: "missing required flags: " + strings.Join(missing, ", ")}
	}

	a.LogFormat = strings.ToLower(a.LogFormat)
	if a.LogFormat != "text" && a.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	level, err := logging.ParseLevel(*logLevelFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	a.LogLevel = level

	return &a, false, nil
}
