package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/buildstatus/internal/configenv"
	"github.com/specialistvlad/buildstatus/internal/ctxlog"
	"github.com/specialistvlad/buildstatus/internal/frontend"
)

// BackendFileName is the per-directory makefile fragment the backend owns.
const BackendFileName = "backend.mk"

// ManifestFileName lists, relative to topobjdir, the backend.mk files the
// previous run generated. Only those are candidates for removal.
const ManifestFileName = "backend.RecursiveMakeBackend"

const generatedHeader = "# THIS FILE WAS AUTOMATICALLY GENERATED. DO NOT EDIT.\n\n"

// RecursiveMakeBackend generates the files a recursive make build needs.
type RecursiveMakeBackend struct {
	env *configenv.Environment
	now func() time.Time
}

// NewRecursiveMakeBackend creates a backend writing below env.TopObjDir().
func NewRecursiveMakeBackend(env *configenv.Environment) *RecursiveMakeBackend {
	return &RecursiveMakeBackend{env: env, now: time.Now}
}

// backendFile accumulates the content of one directory's backend.mk.
type backendFile struct {
	dir  frontend.DirContext
	body bytes.Buffer
}

func (b *backendFile) assign(name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(&b.body, "%s := %s\n", name, strings.Join(values, " "))
}

func (b *backendFile) append(name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(&b.body, "%s += %s\n", name, strings.Join(values, " "))
}

// Consume ranges over defs once, writes every generated file, removes the
// backend.mk files the previous run generated for directories that are no
// longer part of the tree, and reports the result.
func (b *RecursiveMakeBackend) Consume(ctx context.Context, defs iter.Seq2[frontend.Definition, error]) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	start := b.now()
	summary := newSummary()
	writer := newFileWriter(summary)

	backendFiles := make(map[string]*backendFile)
	fileFor := func(dir frontend.DirContext) *backendFile {
		bf, ok := backendFiles[dir.ObjDir]
		if !ok {
			bf = &backendFile{dir: dir}
			backendFiles[dir.ObjDir] = bf
		}
		return bf
	}

	for def, err := range defs {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch d := def.(type) {
		case *frontend.DirectoryTraversal:
			bf := fileFor(d.DirContext)
			bf.assign("DIRS", d.Dirs)
			bf.assign("PARALLEL_DIRS", d.ParallelDirs)
			bf.assign("TEST_DIRS", d.TestDirs)
		case *frontend.ConfigFileSubstitution:
			if err := b.substituteConfigFile(writer, d); err != nil {
				return nil, err
			}
		case *frontend.HeaderFileSubstitution:
			if err := b.substituteHeaderFile(writer, d); err != nil {
				return nil, err
			}
		case *frontend.Exports:
			writeExports(fileFor(d.DirContext), d)
		case *frontend.VariablePassthru:
			writePassthru(fileFor(d.DirContext), d)
		default:
			logger.Warn("Ignoring unsupported definition.", "type", fmt.Sprintf("%T", def), "dir", def.Dir().RelDir)
		}
	}

	generated := make([]string, 0, len(backendFiles))
	for _, objDir := range slices.Sorted(maps.Keys(backendFiles)) {
		bf := backendFiles[objDir]
		path := filepath.Join(objDir, BackendFileName)
		content := append([]byte(generatedHeader), bf.body.Bytes()...)
		if err := writer.write(path, content); err != nil {
			return nil, err
		}
		generated = append(generated, path)
	}

	if err := b.purgeStale(ctx, writer); err != nil {
		return nil, err
	}
	if err := b.writeManifest(generated); err != nil {
		return nil, err
	}

	summary.ExecutionTime = b.now().Sub(start)
	logger.Debug("Backend finished.",
		"created", summary.Created,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"deleted", summary.Deleted,
	)
	return summary, nil
}

func (b *RecursiveMakeBackend) substituteConfigFile(w *fileWriter, d *frontend.ConfigFileSubstitution) error {
	input, err := os.ReadFile(d.Input)
	if err != nil {
		return fmt.Errorf("config file substitution: %w", err)
	}

	vars := b.env.Substs()
	vars["srcdir"] = d.SrcDir
	vars["relativesrcdir"] = d.RelDir
	vars["DEPTH"] = d.Depth()

	return w.write(d.Output, []byte(substituteConfig(string(input), vars)))
}

func (b *RecursiveMakeBackend) substituteHeaderFile(w *fileWriter, d *frontend.HeaderFileSubstitution) error {
	input, err := os.ReadFile(d.Input)
	if err != nil {
		return fmt.Errorf("header substitution: %w", err)
	}
	return w.write(d.Output, []byte(substituteHeader(string(input), b.env.Define)))
}

func writeExports(bf *backendFile, d *frontend.Exports) {
	for _, ns := range slices.Sorted(maps.Keys(d.Namespaces)) {
		if ns == "" {
			bf.append("EXPORTS", d.Namespaces[ns])
			continue
		}
		varName := "EXPORTS_" + strings.ReplaceAll(ns, "/", "_")
		bf.append("EXPORTS_NAMESPACES", []string{ns})
		bf.append(varName, d.Namespaces[ns])
	}
}

func writePassthru(bf *backendFile, d *frontend.VariablePassthru) {
	for _, name := range slices.Sorted(maps.Keys(d.Defines)) {
		define := "-D" + name
		if v := d.Defines[name]; v != "" {
			define += "=" + v
		}
		bf.append("DEFINES", []string{define})
	}
	for _, name := range slices.Sorted(maps.Keys(d.Variables)) {
		bf.assign(name, []string{d.Variables[name]})
	}
}

// purgeStale deletes the backend.mk files listed in the previous manifest
// that this run did not produce. Files the manifest does not name are never
// touched, so separately configured subtrees keep theirs.
func (b *RecursiveMakeBackend) purgeStale(ctx context.Context, w *fileWriter) error {
	logger := ctxlog.FromContext(ctx)
	previous, err := b.readManifest()
	if err != nil {
		return err
	}
	for _, rel := range previous {
		if !filepath.IsLocal(rel) || filepath.Base(rel) != BackendFileName {
			logger.Warn("Ignoring unexpected manifest entry.", "entry", rel)
			continue
		}
		path := filepath.Join(b.env.TopObjDir(), rel)
		if w.wasWritten(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("removing stale backend file: %w", err)
		}
		logger.Debug("Removed stale backend file.", "path", path)
		w.summary.Deleted++
	}
	return nil
}

func (b *RecursiveMakeBackend) manifestPath() string {
	return filepath.Join(b.env.TopObjDir(), ManifestFileName)
}

// readManifest returns the topobjdir relative paths recorded by the
// previous run. A missing manifest means nothing was generated before.
func (b *RecursiveMakeBackend) readManifest() ([]string, error) {
	data, err := os.ReadFile(b.manifestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backend manifest: %w", err)
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, filepath.FromSlash(line))
		}
	}
	return entries, nil
}

func (b *RecursiveMakeBackend) writeManifest(generated []string) error {
	var buf bytes.Buffer
	rels := make([]string, 0, len(generated))
	for _, path := range generated {
		rel, err := filepath.Rel(b.env.TopObjDir(), path)
		if err != nil {
			return fmt.Errorf("recording %s in backend manifest: %w", path, err)
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	slices.Sort(rels)
	for _, rel := range rels {
		buf.WriteString(rel)
		buf.WriteByte('\n')
	}

	path := b.manifestPath()
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, buf.Bytes()) {
		return nil
	}
	if err := os.MkdirAll(b.env.TopObjDir(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", b.env.TopObjDir(), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing backend manifest: %w", err)
	}
	return nil
}
