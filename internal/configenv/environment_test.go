package configenv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivedSubsts(t *testing.T) {
	t.Parallel()

	env := New("/src", "/obj",
		map[string]string{"MOZ_DEBUG": "1", "APP_NAME": "my app"},
		map[string]string{"HAVE_FOO": "1"},
		map[string]string{"topsrcdir": "/ignored", "CC": "gcc"},
		"/obj/config.status.hcl",
	)

	substs := env.Substs()
	assert.Equal(t, "/src", substs["topsrcdir"])
	assert.Equal(t, "/src", substs["top_srcdir"])
	assert.Equal(t, "/obj", substs["topobjdir"])
	assert.Equal(t, "gcc", substs["CC"])
	assert.Equal(t, "-DAPP_NAME='my app' -DMOZ_DEBUG=1", substs["ACDEFINES"])
}

func TestEnvironment_IsImmutable(t *testing.T) {
	t.Parallel()

	defines := map[string]string{"A": "1"}
	env := New("/src", "/obj", defines, nil, nil, "")

	defines["B"] = "2"
	got := env.Defines()
	got["C"] = "3"

	require.Empty(t, cmp.Diff(map[string]string{"A": "1"}, env.Defines()))
}

func TestEnvironment_DefineLookup(t *testing.T) {
	t.Parallel()

	env := New("/src", "/obj",
		map[string]string{"GLOBAL": "g"},
		map[string]string{"LOCAL": "l"},
		nil, "")

	v, ok := env.Define("GLOBAL")
	require.True(t, ok)
	require.Equal(t, "g", v)

	v, ok = env.Define("LOCAL")
	require.True(t, ok)
	require.Equal(t, "l", v)

	_, ok = env.Define("MISSING")
	require.False(t, ok)

	require.NotContains(t, env.Substs()["ACDEFINES"], "LOCAL")
}

func TestShellQuote(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"plain":     "plain",
		"":          "",
		"two words": "'two words'",
		"it's":      `'it'\''s'`,
		"-O2":       "-O2",
	}
	for in, want := range testCases {
		assert.Equal(t, want, shellQuote(in), "input %q", in)
	}
}
