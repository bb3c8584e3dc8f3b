package wast

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	root, err := Parse(`(module) (assert_return (invoke "f") (i32.const 1))`)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Directives) != 2 {
		t.Errorf("got %d directives, want 2", len(root.Directives))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basic.wast")
	if err := os.WriteFile(path, []byte(`(register "spectest")`), 0o644); err != nil {
		t.Fatal(err)
	}
	root, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Directives) != 1 {
		t.Errorf("got %d directives, want 1", len(root.Directives))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.wast")); err == nil {
		t.Error("reading a missing file succeeded")
	}
}
