package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

// fileWriter writes generated files, leaving files whose content is already
// current untouched so make does not see a spurious mtime change.
type fileWriter struct {
	summary *Summary
	written map[string]struct{}
}

func newFileWriter(summary *Summary) *fileWriter {
	return &fileWriter{summary: summary, written: make(map[string]struct{})}
}

func (w *fileWriter) write(path string, content []byte) error {
	w.written[path] = struct{}{}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, content):
		w.summary.Unchanged++
		return nil
	case err == nil:
		w.summary.Updated++
	case errors.Is(err, fs.ErrNotExist):
		existing = nil
		w.summary.Created++
	default:
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	var before []string
	if existing != nil {
		before = difflib.SplitLines(string(existing))
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        difflib.SplitLines(string(content)),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diffing %s: %w", path, err)
	}
	w.summary.FileDiffs[path] = diff
	return nil
}

func (w *fileWriter) wasWritten(path string) bool {
	_, ok := w.written[path]
	return ok
}
