package frontend

import (
	"errors"
	"fmt"
	"iter"
	"path"
	"path/filepath"

	"github.com/specialistvlad/buildstatus/internal/configenv"
)

// ErrConsumed is yielded when an emitted sequence is ranged over a second
// time.
var ErrConsumed = errors.New("tree metadata already consumed")

// TreeMetadataEmitter converts build files into definitions.
type TreeMetadataEmitter struct {
	env *configenv.Environment
}

// NewEmitter creates an emitter for the given environment.
func NewEmitter(env *configenv.Environment) *TreeMetadataEmitter {
	return &TreeMetadataEmitter{env: env}
}

// Emit returns the definitions for files. The result is single-pass: the
// first range consumes files, any later range yields ErrConsumed.
func (e *TreeMetadataEmitter) Emit(files iter.Seq2[*BuildFile, error]) iter.Seq2[Definition, error] {
	consumed := false
	return func(yield func(Definition, error) bool) {
		if consumed {
			yield(nil, ErrConsumed)
			return
		}
		consumed = true

		for bf, err := range files {
			if err != nil {
				yield(nil, err)
				return
			}
			defs, err := e.emitFile(bf)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, def := range defs {
				if !yield(def, nil) {
					return
				}
			}
		}
	}
}

func (e *TreeMetadataEmitter) emitFile(bf *BuildFile) ([]Definition, error) {
	dir := DirContext{
		RelDir: bf.RelDir,
		SrcDir: filepath.Join(e.env.TopSrcDir(), filepath.FromSlash(bf.RelDir)),
		ObjDir: filepath.Join(e.env.TopObjDir(), filepath.FromSlash(bf.RelDir)),
	}

	defs := []Definition{&DirectoryTraversal{
		DirContext:   dir,
		Dirs:         bf.Dirs,
		ParallelDirs: bf.ParallelDirs,
		TestDirs:     bf.TestDirs,
	}}

	for _, rel := range bf.ConfigureSubstFiles {
		in, out, err := substPaths(dir, rel)
		if err != nil {
			return nil, fmt.Errorf("%s: configure_subst_files: %w", bf.Path, err)
		}
		defs = append(defs, &ConfigFileSubstitution{DirContext: dir, Relpath: rel, Input: in, Output: out})
	}
	for _, rel := range bf.ConfigureDefineFiles {
		in, out, err := substPaths(dir, rel)
		if err != nil {
			return nil, fmt.Errorf("%s: configure_define_files: %w", bf.Path, err)
		}
		defs = append(defs, &HeaderFileSubstitution{DirContext: dir, Relpath: rel, Input: in, Output: out})
	}

	if len(bf.Exports) > 0 {
		defs = append(defs, &Exports{DirContext: dir, Namespaces: bf.Exports})
	}
	if len(bf.Defines) > 0 || len(bf.Variables) > 0 {
		defs = append(defs, &VariablePassthru{DirContext: dir, Defines: bf.Defines, Variables: bf.Variables})
	}
	return defs, nil
}

func substPaths(dir DirContext, rel string) (string, string, error) {
	if err := checkRelPath(rel); err != nil {
		return "", "", err
	}
	rel = filepath.FromSlash(path.Clean(rel))
	return filepath.Join(dir.SrcDir, rel) + ".in", filepath.Join(dir.ObjDir, rel), nil
}
