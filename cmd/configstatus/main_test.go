package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildstatus/internal/app"
	"github.com/specialistvlad/buildstatus/internal/cli"
	"github.com/specialistvlad/buildstatus/internal/configenv"
	"github.com/specialistvlad/buildstatus/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	argv []string
}

func (r *recordingExecer) Exec(_ string, argv []string, _ []string) error {
	r.argv = argv
	return nil
}

// setup writes a source tree and a results file in a separate directory,
// and returns the results path, the object directory to run from, and the
// options pinning the App to that directory.
func setup(t *testing.T) (string, string, []app.Option, *recordingExecer) {
	t.Helper()
	srcDir, resultsDir := testutil.Trees(t)
	testutil.WriteTree(t, srcDir, map[string]string{
		"build.hcl":    `configure_subst_files = ["config.mk"]`,
		"config.mk.in": "OS = @OS_TARGET@\n",
	})
	resultsPath := filepath.Join(resultsDir, configenv.DefaultResultsFile)
	require.NoError(t, configenv.Save(resultsPath, &configenv.Results{
		TopSrcDir: srcDir,
		Substs:    map[string]string{"OS_TARGET": "Linux", "ac_configure_args": "--enable-debug"},
	}))

	cwd := t.TempDir()
	execer := &recordingExecer{}
	opts := []app.Option{
		app.WithExecer(execer),
		app.WithWorkingDir(func() (string, error) { return cwd, nil }, func(string) error { return nil }),
	}
	return resultsPath, cwd, opts, execer
}

func TestRun_RegeneratesIntoCurrentDirectory(t *testing.T) {
	t.Parallel()

	resultsPath, cwd, opts, _ := setup(t)
	var out, errOut bytes.Buffer

	err := run(&out, &errOut, []string{"--config", resultsPath}, nil, opts...)
	require.NoError(t, err)

	require.Equal(t, "OS = Linux\n", testutil.ReadFile(t, cwd, "config.mk"))
	require.Contains(t, errOut.String(), "Reticulating splines...")
	require.Empty(t, out.String())
}

func TestRun_NotTopObjDirUsesResultsDirectory(t *testing.T) {
	t.Parallel()

	resultsPath, cwd, opts, _ := setup(t)
	var out, errOut bytes.Buffer

	err := run(&out, &errOut, []string{"-n", "-d", "--config", resultsPath}, nil, opts...)
	require.NoError(t, err)

	objDir := filepath.Dir(resultsPath)
	require.Equal(t, "OS = Linux\n", testutil.ReadFile(t, objDir, "config.mk"))
	testutil.NoFile(t, cwd, "config.mk")
	require.Contains(t, out.String(), "+OS = Linux")
}

func TestRun_Recheck(t *testing.T) {
	t.Parallel()

	resultsPath, cwd, opts, execer := setup(t)
	var out, errOut bytes.Buffer

	err := run(&out, &errOut, []string{"--recheck", "--config", resultsPath}, nil, opts...)
	require.NoError(t, err)

	require.Len(t, execer.argv, 3)
	require.Contains(t, execer.argv[2], "--enable-debug --no-create --no-recursion")
	testutil.NoFile(t, cwd, "config.mk")
}

func TestRun_UnsupportedEnvironment(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	// The results file does not exist; the environment check comes first.
	err := run(&out, &errOut, []string{"--config", "/nonexistent/config.status.hcl"}, []string{"CONFIG_HEADERS=foo.h"})

	require.ErrorIs(t, err, app.ErrUnsupportedEnvironment)
}

func TestRun_RelativeTopsrcdir(t *testing.T) {
	t.Parallel()

	resultsPath := filepath.Join(t.TempDir(), configenv.DefaultResultsFile)
	require.NoError(t, configenv.Save(resultsPath, &configenv.Results{TopSrcDir: "relative/src"}))

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, []string{"--config", resultsPath}, nil)
	require.ErrorIs(t, err, app.ErrInvalidPath)
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, []string{"-h"}, nil)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, []string{"--this-is-not-a-valid-flag"}, nil)

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
}
