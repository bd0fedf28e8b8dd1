package frontend

import (
	"path"
	"strings"
)

// Definition is a single build-definition record.
type Definition interface {
	Dir() DirContext
}

// DirContext locates the directory a definition belongs to.
type DirContext struct {
	// RelDir is relative to both roots, slash-separated; empty for the root.
	RelDir string
	SrcDir string
	ObjDir string
}

func (c DirContext) Dir() DirContext { return c }

// Depth is the relative path from the directory back to the root, as make
// expects it in DEPTH.
func (c DirContext) Depth() string {
	if c.RelDir == "" {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", strings.Count(path.Clean(c.RelDir), "/")+1), "/")
}

// DirectoryTraversal lists the subdirectories make recurses into.
type DirectoryTraversal struct {
	DirContext
	Dirs         []string
	ParallelDirs []string
	TestDirs     []string
}

// ConfigFileSubstitution generates Output in the object directory from
// Input (Output's source path plus ".in") by replacing @NAME@ tokens.
type ConfigFileSubstitution struct {
	DirContext
	// Relpath is the file's path relative to its directory.
	Relpath string
	Input   string
	Output  string
}

// HeaderFileSubstitution generates a header from Input by resolving
// #define and #undef lines against the configured defines.
type HeaderFileSubstitution struct {
	DirContext
	Relpath string
	Input   string
	Output  string
}

// Exports lists headers to install, keyed by namespace.
type Exports struct {
	DirContext
	Namespaces map[string][]string
}

// VariablePassthru carries defines and plain variables straight into the
// directory's backend file.
type VariablePassthru struct {
	DirContext
	Defines   map[string]string
	Variables map[string]string
}
