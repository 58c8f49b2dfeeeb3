package core

import "testing"

// SetupTempDB opens an Engine rooted at a fresh t.TempDir(), applying opts on
// top of small-but-valid test defaults, and registers a cleanup to close it.
// Grounded on the teacher's core/test_helpers.go SetupTempDB, adapted to
// this engine's functional-options surface.
func SetupTempDB(t *testing.T, opts ...Option) (string, *Engine) {
	t.Helper()

	dir := t.TempDir()
	e, err := Open(dir, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return dir, e
}
