package configenv

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Environment is the read-only view of configure's results for one
// regeneration run. Accessors hand out copies; nothing can mutate it after
// New returns.
type Environment struct {
	topSrcDir        string
	topObjDir        string
	defines          map[string]string
	nonGlobalDefines map[string]string
	substs           map[string]string
	source           string
}

// New builds an Environment. The input maps are copied. Derived
// substitutions (top_srcdir, topsrcdir, topobjdir and ACDEFINES) are
// computed here and take precedence over same-named entries in substs.
func New(topSrcDir, topObjDir string, defines, nonGlobalDefines, substs map[string]string, source string) *Environment {
	env := &Environment{
		topSrcDir:        topSrcDir,
		topObjDir:        topObjDir,
		defines:          cloneMap(defines),
		nonGlobalDefines: cloneMap(nonGlobalDefines),
		substs:           cloneMap(substs),
		source:           source,
	}

	env.substs["top_srcdir"] = topSrcDir
	env.substs["topsrcdir"] = topSrcDir
	env.substs["topobjdir"] = topObjDir
	env.substs["ACDEFINES"] = acDefines(env.defines)
	return env
}

func (e *Environment) TopSrcDir() string { return e.topSrcDir }
func (e *Environment) TopObjDir() string { return e.topObjDir }
func (e *Environment) Source() string    { return e.source }

// Subst returns a single substitution variable.
func (e *Environment) Subst(name string) (string, bool) {
	v, ok := e.substs[name]
	return v, ok
}

// Substs returns a copy of all substitution variables, derived ones included.
func (e *Environment) Substs() map[string]string { return cloneMap(e.substs) }

// Defines returns a copy of the global defines.
func (e *Environment) Defines() map[string]string { return cloneMap(e.defines) }

// NonGlobalDefines returns a copy of the defines that only apply to
// generated headers and are kept out of ACDEFINES.
func (e *Environment) NonGlobalDefines() map[string]string { return cloneMap(e.nonGlobalDefines) }

// Define looks a name up in the global defines first, then in the
// non-global ones.
func (e *Environment) Define(name string) (string, bool) {
	if v, ok := e.defines[name]; ok {
		return v, true
	}
	v, ok := e.nonGlobalDefines[name]
	return v, ok
}

func (e *Environment) String() string {
	return fmt.Sprintf("Environment{topsrcdir=%s topobjdir=%s defines=%d substs=%d}",
		e.topSrcDir, e.topObjDir, len(e.defines)+len(e.nonGlobalDefines), len(e.substs))
}

func acDefines(defines map[string]string) string {
	parts := make([]string, 0, len(defines))
	for _, name := range slices.Sorted(maps.Keys(defines)) {
		parts = append(parts, "-D"+name+"="+shellQuote(defines[name]))
	}
	return strings.Join(parts, " ")
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:=+,@%-]*$`)

func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return make(map[string]string)
	}
	return maps.Clone(m)
}
