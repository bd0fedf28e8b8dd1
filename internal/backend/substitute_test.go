package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteConfig(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"CC": "clang", "DEPTH": "../.."}
	got := substituteConfig("CC = @CC@\nDEPTH = @DEPTH@\nKEEP = @UNKNOWN@ @ not-a-token @\n", vars)

	assert.Equal(t, "CC = clang\nDEPTH = ../..\nKEEP = @UNKNOWN@ @ not-a-token @\n", got)
}

func TestSubstituteHeader(t *testing.T) {
	t.Parallel()

	defines := map[string]string{"MOZ_DEBUG": "1", "HAVE_FOO": "2"}
	lookup := func(name string) (string, bool) {
		v, ok := defines[name]
		return v, ok
	}

	input := "" +
		"/* generated */\n" +
		"#undef MOZ_DEBUG\n" +
		"#undef MISSING\n" +
		"#define HAVE_FOO 0\n" +
		"#define OTHER 7\n" +
		"  #  undef HAVE_FOO\n" +
		"#undef\t MOZ_DEBUG\n" +
		"#endif\n" +
		"int x;"

	want := "" +
		"/* generated */\n" +
		"#define MOZ_DEBUG 1\n" +
		"/* #undef MISSING */\n" +
		"#define HAVE_FOO 2\n" +
		"#define OTHER 7\n" +
		"  #  define HAVE_FOO 2\n" +
		"#define\t MOZ_DEBUG 1\n" +
		"#endif\n" +
		"int x;"

	assert.Equal(t, want, substituteHeader(input, lookup))
}
