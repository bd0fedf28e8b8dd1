package backend

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/buildstatus/internal/configenv"
	"github.com/specialistvlad/buildstatus/internal/frontend"
	"github.com/specialistvlad/buildstatus/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// consumeTree runs the real reader and emitter over srcDir into objDir.
func consumeTree(t *testing.T, env *configenv.Environment) (*Summary, error) {
	t.Helper()
	ctx, _ := testutil.Context()
	defs := frontend.NewEmitter(env).Emit(frontend.NewReader(env).ReadTopsrcdir(ctx))
	return NewRecursiveMakeBackend(env).Consume(ctx, defs)
}

func sampleTree(t *testing.T) (*configenv.Environment, string, string) {
	t.Helper()
	srcDir, objDir := testutil.Trees(t)
	testutil.WriteTree(t, srcDir, map[string]string{
		"build.hcl": `
dirs = ["xpcom"]
test_dirs = ["testing"]
configure_subst_files = ["config/autoconf.mk"]
configure_define_files = ["mozilla-config.h"]
`,
		"config/autoconf.mk.in": "CC = @CC@\nDEPTH = @DEPTH@\nsrcdir = @srcdir@\n",
		"mozilla-config.h.in":   "#undef MOZ_DEBUG\n#undef MOZ_PROFILING\n",
		"xpcom/build.hcl": `
configure_subst_files = ["Makefile"]
defines = { IMPL_LIBXUL = "", LEVEL = 2 }
variables = { MODULE = "xpcom" }
export "mozilla" {
  files = ["Mutex.h"]
}
export "" {
  files = ["nscore.h"]
}
`,
		"xpcom/Makefile.in": "DEPTH = @DEPTH@\nrelativesrcdir = @relativesrcdir@\n",
		"testing/build.hcl": ``,
	})
	env := configenv.New(srcDir, objDir,
		map[string]string{"MOZ_DEBUG": "1"},
		nil,
		map[string]string{"CC": "clang"},
		"")
	return env, srcDir, objDir
}

func TestRecursiveMakeBackend_GeneratesTree(t *testing.T) {
	t.Parallel()

	env, srcDir, objDir := sampleTree(t)

	summary, err := consumeTree(t, env)
	require.NoError(t, err)

	assert.Equal(t, generatedHeader+"DIRS := xpcom\nTEST_DIRS := testing\n",
		testutil.ReadFile(t, objDir, "backend.mk"))
	assert.Equal(t, generatedHeader+
		"EXPORTS += nscore.h\n"+
		"EXPORTS_NAMESPACES += mozilla\n"+
		"EXPORTS_mozilla += Mutex.h\n"+
		"DEFINES += -DIMPL_LIBXUL\n"+
		"DEFINES += -DLEVEL=2\n"+
		"MODULE := xpcom\n",
		testutil.ReadFile(t, objDir, "xpcom/backend.mk"))
	assert.Equal(t, generatedHeader, testutil.ReadFile(t, objDir, "testing/backend.mk"))

	assert.Equal(t, "CC = clang\nDEPTH = .\nsrcdir = "+srcDir+"\n",
		testutil.ReadFile(t, objDir, "config/autoconf.mk"))
	assert.Equal(t, "DEPTH = ..\nrelativesrcdir = xpcom\n",
		testutil.ReadFile(t, objDir, "xpcom/Makefile"))
	assert.Equal(t, "#define MOZ_DEBUG 1\n/* #undef MOZ_PROFILING */\n",
		testutil.ReadFile(t, objDir, "mozilla-config.h"))

	assert.Equal(t, 6, summary.Created)
	assert.Zero(t, summary.Updated)
	assert.Zero(t, summary.Unchanged)
	assert.Len(t, summary.FileDiffs, 6)
	assert.Contains(t, summary.FileDiffs[filepath.Join(objDir, "xpcom", "Makefile")], "+DEPTH = ..")
}

func TestRecursiveMakeBackend_AvoidsRewritingCurrentFiles(t *testing.T) {
	t.Parallel()

	env, srcDir, objDir := sampleTree(t)
	_, err := consumeTree(t, env)
	require.NoError(t, err)

	backendPath := filepath.Join(objDir, "backend.mk")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(backendPath, old, old))

	testutil.WriteTree(t, srcDir, map[string]string{
		"xpcom/Makefile.in": "DEPTH = @DEPTH@\n",
	})

	summary, err := consumeTree(t, env)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 5, summary.Unchanged)
	assert.Zero(t, summary.Created)
	require.Len(t, summary.FileDiffs, 1)
	assert.Contains(t, summary.FileDiffs[filepath.Join(objDir, "xpcom", "Makefile")], "-relativesrcdir = xpcom")

	info, err := os.Stat(backendPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged file must not be rewritten")
}

func TestRecursiveMakeBackend_PurgesStaleBackendFiles(t *testing.T) {
	t.Parallel()

	srcDir, objDir := testutil.Trees(t)
	testutil.WriteTree(t, srcDir, map[string]string{
		"build.hcl":      `dirs = ["a", "gone"]`,
		"a/build.hcl":    ``,
		"gone/build.hcl": ``,
	})
	env := configenv.New(srcDir, objDir, nil, nil, nil, "")

	_, err := consumeTree(t, env)
	require.NoError(t, err)
	assert.Equal(t, "a/backend.mk\nbackend.mk\ngone/backend.mk\n", testutil.ReadFile(t, objDir, ManifestFileName))

	testutil.WriteTree(t, srcDir, map[string]string{"build.hcl": `dirs = ["a"]`})
	testutil.WriteTree(t, objDir, map[string]string{"gone/keep.txt": "not ours"})

	summary, err := consumeTree(t, env)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deleted)
	testutil.NoFile(t, objDir, "gone/backend.mk")
	assert.Equal(t, "not ours", testutil.ReadFile(t, objDir, "gone/keep.txt"))
	assert.Contains(t, summary.Summaries()[1], "1 deleted")
	assert.Equal(t, "a/backend.mk\nbackend.mk\n", testutil.ReadFile(t, objDir, ManifestFileName))
}

func TestRecursiveMakeBackend_KeepsBackendFilesItDidNotGenerate(t *testing.T) {
	t.Parallel()

	env, _, objDir := sampleTree(t)
	testutil.WriteTree(t, objDir, map[string]string{
		"js/src/backend.mk": "owned by the js/src objdir",
		ManifestFileName:    "../outside/backend.mk\nxpcom/Makefile\njs/src/missing/backend.mk\n",
	})

	summary, err := consumeTree(t, env)
	require.NoError(t, err)

	assert.Zero(t, summary.Deleted)
	assert.Equal(t, "owned by the js/src objdir", testutil.ReadFile(t, objDir, "js/src/backend.mk"))
	assert.Equal(t, "DEPTH = ..\nrelativesrcdir = xpcom\n", testutil.ReadFile(t, objDir, "xpcom/Makefile"))
	assert.Equal(t, "backend.mk\ntesting/backend.mk\nxpcom/backend.mk\n", testutil.ReadFile(t, objDir, ManifestFileName))
}

func TestRecursiveMakeBackend_MissingInputFails(t *testing.T) {
	t.Parallel()

	srcDir, objDir := testutil.Trees(t)
	testutil.WriteTree(t, srcDir, map[string]string{
		"build.hcl": `configure_subst_files = ["Makefile"]`,
	})
	env := configenv.New(srcDir, objDir, nil, nil, nil, "")

	_, err := consumeTree(t, env)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Contains(t, err.Error(), "config file substitution")
}

func TestRecursiveMakeBackend_PropagatesSequenceErrors(t *testing.T) {
	t.Parallel()

	_, objDir := testutil.Trees(t)
	env := configenv.New("/src", objDir, nil, nil, nil, "")
	boom := errors.New("boom")
	defs := iter.Seq2[frontend.Definition, error](func(yield func(frontend.Definition, error) bool) {
		yield(nil, boom)
	})
	ctx, _ := testutil.Context()

	_, err := NewRecursiveMakeBackend(env).Consume(ctx, defs)
	require.ErrorIs(t, err, boom)
	testutil.NoFile(t, objDir, "backend.mk")
}

func TestRecursiveMakeBackend_HonoursCancellation(t *testing.T) {
	t.Parallel()

	env, _, _ := sampleTree(t)
	base, _ := testutil.Context()
	ctx, cancel := context.WithCancel(base)
	cancel()

	defs := frontend.NewEmitter(env).Emit(frontend.NewReader(env).ReadTopsrcdir(ctx))
	_, err := NewRecursiveMakeBackend(env).Consume(ctx, defs)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSummary_Lines(t *testing.T) {
	t.Parallel()

	s := &Summary{ExecutionTime: 1500 * time.Millisecond, Created: 2, Updated: 1, Unchanged: 4, Deleted: 1}

	assert.Equal(t, []string{
		"Backend executed in 1.50s",
		"7 total backend files; 2 created; 1 updated; 4 unchanged; 1 deleted",
	}, s.Summaries())
}

func TestSummary_SortedDiffs(t *testing.T) {
	t.Parallel()

	s := newSummary()
	for _, p := range []string{"/obj/z", "/obj/a/b", "/obj/m", "/obj/a"} {
		s.FileDiffs[p] = "diff " + p
	}

	var paths []string
	for p, diff := range s.SortedDiffs() {
		require.Equal(t, "diff "+p, diff)
		paths = append(paths, p)
	}
	assert.Equal(t, []string{"/obj/a", "/obj/a/b", "/obj/m", "/obj/z"}, paths)
}
