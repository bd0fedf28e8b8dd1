// Package testutil holds helpers shared by the package tests: temporary
// source/object trees and a logger-carrying context.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree writes files (slash-separated relative path to content) under
// root, creating directories as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		filePath := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
}

// ReadFile returns the content of a file under root, failing the test if it
// cannot be read.
func ReadFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// NoFile fails the test if a file exists under root.
func NoFile(t *testing.T, root, name string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(name)))
	require.ErrorIs(t, err, os.ErrNotExist, "expected %s to be absent", name)
}

// Trees creates a fresh source and object directory pair.
func Trees(t *testing.T) (srcDir, objDir string) {
	t.Helper()
	root := t.TempDir()
	srcDir = filepath.Join(root, "src")
	objDir = filepath.Join(root, "obj")
	require.NoError(t, os.Mkdir(srcDir, 0o755))
	require.NoError(t, os.Mkdir(objDir, 0o755))
	return srcDir, objDir
}
