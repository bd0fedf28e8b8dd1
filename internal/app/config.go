package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/buildstatus/internal/configenv"
)

// Options are the recognised command-line switches.
type Options struct {
	// Recheck re-runs configure with the recorded ac_configure_args.
	Recheck bool
	// Verbose lowers the terminal log level to debug.
	Verbose bool
	// NotTopObjDir keeps the caller-supplied object directory instead of
	// using the current directory.
	NotTopObjDir bool
	// Diff prints a diff for every file the backend changed.
	Diff bool
}

// Config is everything the CLI hands to the App.
type Config struct {
	// ResultsPath is the configure results file. Its directory is the
	// object directory used with NotTopObjDir.
	ResultsPath string
	Options     Options
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ResultsPath == "" {
		return nil, errors.New("ResultsPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}

// Params are the configure results a regeneration starts from.
type Params struct {
	TopObjDir        string
	TopSrcDir        string
	Defines          map[string]string
	NonGlobalDefines map[string]string
	Substs           map[string]string
	Source           string
}

// LoadParams reads configure's results file into Params.
func LoadParams(ctx context.Context, path string) (Params, error) {
	res, err := configenv.LoadResults(ctx, path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to load configure results: %w", err)
	}
	return Params{
		TopObjDir:        res.TopObjDir,
		TopSrcDir:        res.TopSrcDir,
		Defines:          res.Defines,
		NonGlobalDefines: res.NonGlobalDefines,
		Substs:           res.Substs,
		Source:           res.Source,
	}, nil
}
