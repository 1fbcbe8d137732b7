package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles creates files under root. Keys are slash-separated paths
// relative to root; parent directories are created as needed.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// NewProject creates a temporary project with a .ruleset directory and the
// given files, and returns its root.
func NewProject(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".ruleset", "rules"), 0o750); err != nil {
		t.Fatalf("failed to create .ruleset: %v", err)
	}
	WriteFiles(t, root, files)
	return root
}

// ReadFile returns the contents of a file under root, failing the test if absent.
func ReadFile(t testing.TB, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel))) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}
