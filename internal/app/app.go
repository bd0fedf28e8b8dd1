package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/buildstatus/internal/backend"
	"github.com/specialistvlad/buildstatus/internal/configenv"
	"github.com/specialistvlad/buildstatus/internal/ctxlog"
	"github.com/specialistvlad/buildstatus/internal/frontend"
	"github.com/specialistvlad/buildstatus/internal/logging"
	"github.com/specialistvlad/buildstatus/internal/mozinfo"
)

// Environment variables with a meaning to config.status.
const (
	envConfigFiles   = "CONFIG_FILES"
	envConfigHeaders = "CONFIG_HEADERS"
	envWriteMozinfo  = "WRITE_MOZINFO"
)

const progressMessage = "Reticulating splines..."

// App encapsulates the regeneration entry point and the process state it
// depends on.
type App struct {
	outW       io.Writer
	errW       io.Writer
	logs       *logging.Manager
	environ    []string
	envMap     map[string]string
	getwd      func() (string, error)
	chdir      func(string) error
	execer     Execer
	newBackend func(*configenv.Environment) backend.Backend
}

// Option customises an App.
type Option func(*App)

// WithExecer replaces the process-image replacement used by recheck.
func WithExecer(e Execer) Option {
	return func(a *App) { a.execer = e }
}

// WithWorkingDir replaces how the App reads and changes its working
// directory.
func WithWorkingDir(getwd func() (string, error), chdir func(string) error) Option {
	return func(a *App) {
		a.getwd = getwd
		a.chdir = chdir
	}
}

// WithBackend replaces the backend constructor.
func WithBackend(newBackend func(*configenv.Environment) backend.Backend) Option {
	return func(a *App) { a.newBackend = newBackend }
}

// NewApp creates an App. Diagnostics and logs go to errW, diffs to outW.
// environ is a snapshot in os.Environ form.
func NewApp(outW, errW io.Writer, environ []string, opts ...Option) *App {
	a := &App{
		outW:    outW,
		errW:    errW,
		logs:    logging.NewManager(errW),
		environ: environ,
		envMap:  environMap(environ),
		getwd:   os.Getwd,
		chdir:   os.Chdir,
		execer:  processExecer{},
		newBackend: func(env *configenv.Environment) backend.Backend {
			return backend.NewRecursiveMakeBackend(env)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the App's logger. It stays silent until Regenerate sets up
// terminal logging.
func (a *App) Logger() *slog.Logger {
	return a.logs.Logger()
}

// CheckEnvironment rejects the legacy config.status variables.
func (a *App) CheckEnvironment() error {
	for _, name := range []string{envConfigFiles, envConfigHeaders} {
		if _, ok := a.envMap[name]; ok {
			return &UnsupportedEnvironmentError{Variable: name}
		}
	}
	return nil
}

// Regenerate provides config.status functionality: it rebuilds the backend
// files from configure's results, or re-runs configure when opts.Recheck is
// set. Errors from collaborators are returned as they happen; side effects
// already made are not rolled back.
func (a *App) Regenerate(ctx context.Context, p Params, opts Options) error {
	if err := a.CheckEnvironment(); err != nil {
		return err
	}
	if !filepath.IsAbs(p.TopSrcDir) {
		return &InvalidPathError{Path: p.TopSrcDir}
	}

	topObjDir, err := a.resolveTopObjDir(p.TopObjDir, opts)
	if err != nil {
		return err
	}

	logger := a.logs.Logger()
	ctx = ctxlog.WithLogger(ctx, logger)

	env := configenv.New(p.TopSrcDir, topObjDir, p.Defines, p.NonGlobalDefines, p.Substs, p.Source)
	logger.Debug("Configuration environment created.", "env", env.String())

	// Configure always sets WRITE_MOZINFO, so mozinfo.json is only
	// rewritten when configure actually ran.
	if _, ok := a.envMap[envWriteMozinfo]; ok {
		if err := mozinfo.Write(filepath.Join(topObjDir, mozinfo.FileName), env, a.envMap); err != nil {
			return err
		}
	}

	reader := frontend.NewReader(env)
	emitter := frontend.NewEmitter(env)
	be := a.newBackend(env)
	// Nothing is read yet; the backend pulls the tree as it consumes it.
	definitions := emitter.Emit(reader.ReadTopsrcdir(ctxlog.WithComponent(ctx, "frontend")))

	if opts.Recheck {
		return a.recheck(env)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	a.logs.AddTerminalLogging(level)
	a.logs.EnableUnstructured()

	fmt.Fprintln(a.errW, progressMessage)
	summary, err := be.Consume(ctxlog.WithComponent(ctx, "backend"), definitions)
	if err != nil {
		return fmt.Errorf("backend failed: %w", err)
	}

	for _, line := range summary.Summaries() {
		fmt.Fprintln(a.errW, line)
	}

	if opts.Diff {
		for _, diff := range summary.SortedDiffs() {
			fmt.Fprintln(a.outW, diff)
		}
	}
	return nil
}

// resolveTopObjDir applies config.status's rule: without -n the current
// directory is the object directory, even when the results file lives
// elsewhere.
func (a *App) resolveTopObjDir(supplied string, opts Options) (string, error) {
	if opts.NotTopObjDir {
		return supplied, nil
	}
	wd, err := a.getwd()
	if err != nil {
		return "", fmt.Errorf("determining current directory: %w", err)
	}
	return filepath.Abs(wd)
}

// recheck runs configure again from topobjdir with the arguments it was
// originally given. It only returns if the handoff fails.
func (a *App) recheck(env *configenv.Environment) error {
	if err := a.chdir(env.TopObjDir()); err != nil {
		return fmt.Errorf("recheck: %w", err)
	}
	parts := []string{filepath.Join(env.TopSrcDir(), "configure")}
	if args, _ := env.Subst("ac_configure_args"); args != "" {
		parts = append(parts, args)
	}
	command := strings.Join(append(parts, "--no-create", "--no-recursion"), " ")
	return a.execer.Exec("sh", []string{"sh", "-c", command}, a.environ)
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	return m
}
