package frontend

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/buildstatus/internal/configenv"
	"github.com/specialistvlad/buildstatus/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// BuildFileName is the per-directory build description.
const BuildFileName = "build.hcl"

// ErrInvalidDir is returned for a directory reference that is absolute or
// leaves the directory that names it.
var ErrInvalidDir = errors.New("invalid directory reference")

// Reader reads build files from the source tree of a configured build.
type Reader struct {
	env *configenv.Environment
}

// NewReader creates a Reader for the given environment.
func NewReader(env *configenv.Environment) *Reader {
	return &Reader{env: env}
}

// ReadTopsrcdir returns the build files of the whole tree, root first,
// descending depth-first through dirs, parallel_dirs and test_dirs in that
// order. No file is touched until the sequence is ranged over. Iteration
// stops after the first error.
func (r *Reader) ReadTopsrcdir(ctx context.Context) iter.Seq2[*BuildFile, error] {
	return func(yield func(*BuildFile, error) bool) {
		logger := ctxlog.FromContext(ctx)
		evalCtx := r.evalContext()
		seen := make(map[string]struct{})

		var walk func(relDir, referrer string) bool
		walk = func(relDir, referrer string) bool {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return false
			}
			if _, ok := seen[relDir]; ok {
				return true
			}
			seen[relDir] = struct{}{}

			bf, err := r.readFile(relDir, evalCtx)
			if err != nil {
				if referrer != "" {
					err = fmt.Errorf("%w (referenced from %s)", err, referrer)
				}
				yield(nil, err)
				return false
			}
			logger.Debug("Read build file.", "path", bf.Path)
			if !yield(bf, nil) {
				return false
			}

			for _, group := range [][]string{bf.Dirs, bf.ParallelDirs, bf.TestDirs} {
				for _, child := range group {
					childRel, err := joinRelDir(relDir, child)
					if err != nil {
						yield(nil, fmt.Errorf("%s: %w", bf.Path, err))
						return false
					}
					if !walk(childRel, bf.Path) {
						return false
					}
				}
			}
			return true
		}

		walk("", "")
	}
}

func (r *Reader) readFile(relDir string, evalCtx *hcl.EvalContext) (*BuildFile, error) {
	fileName := filepath.Join(r.env.TopSrcDir(), filepath.FromSlash(relDir), BuildFileName)
	src, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("reading build file: %w", err)
	}

	file, diags := hclsyntax.ParseConfig(src, fileName, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse build file %s: %w", fileName, diags)
	}

	local := evalCtx.NewChild()
	local.Variables = map[string]cty.Value{
		"RELATIVEDIR": cty.StringVal(relDir),
	}

	var schema buildFileSchema
	if diags := gohcl.DecodeBody(file.Body, local, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode build file %s: %w", fileName, diags)
	}
	return newBuildFile(fileName, relDir, &schema), nil
}

// evalContext exposes substitutions as CONFIG.<name> and the source root as
// TOPSRCDIR.
func (r *Reader) evalContext() *hcl.EvalContext {
	config := cty.EmptyObjectVal
	if substs := r.env.Substs(); len(substs) > 0 {
		vals := make(map[string]cty.Value, len(substs))
		for k, v := range substs {
			vals[k] = cty.StringVal(v)
		}
		config = cty.ObjectVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"CONFIG":    config,
			"TOPSRCDIR": cty.StringVal(r.env.TopSrcDir()),
		},
	}
}

// joinRelDir resolves a child reference against its parent's relative
// directory, both slash-separated.
func joinRelDir(parent, child string) (string, error) {
	if err := checkRelPath(child); err != nil {
		return "", err
	}
	return path.Join(parent, child), nil
}

func checkRelPath(p string) error {
	if p == "" || path.IsAbs(p) || filepath.IsAbs(p) {
		return fmt.Errorf("%w: %q", ErrInvalidDir, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidDir, p)
	}
	return nil
}
