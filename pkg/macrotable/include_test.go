package macrotable

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIncludeResolverQuotedFindsSiblingFile(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "local.h")
	if err := os.WriteFile(header, []byte("int x;\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	main := filepath.Join(dir, "main.c")

	r := NewIncludeResolver()
	r.SetCurrentFile(main)
	path, err := r.Resolve("local.h", IncludeQuoted)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	abs, _ := filepath.Abs(header)
	if path != abs {
		t.Errorf("Resolve() = %q, want %q", path, abs)
	}
}

func TestIncludeResolverSystemPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sys.h"), []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := NewIncludeResolver()
	r.AddSystemPath(dir)
	if _, err := r.Resolve("sys.h", IncludeAngled); err != nil {
		t.Errorf("Resolve(<sys.h>) error: %v", err)
	}
}

func TestIncludeResolverNotFound(t *testing.T) {
	r := NewIncludeResolver()
	if _, err := r.Resolve("nope.h", IncludeAngled); err == nil {
		t.Errorf("Resolve(nope.h) should error")
	}
}

func TestIncludeResolverCircular(t *testing.T) {
	r := NewIncludeResolver()
	if err := r.PushFile("a.h"); err != nil {
		t.Fatalf("first PushFile error: %v", err)
	}
	if err := r.PushFile("a.h"); err == nil {
		t.Errorf("re-pushing the same file should report a circular include")
	}
	r.PopFile()
	if err := r.PushFile("a.h"); err != nil {
		t.Errorf("PushFile after PopFile should succeed: %v", err)
	}
}

func TestIncludeResolverPragmaOnce(t *testing.T) {
	r := NewIncludeResolver()
	r.MarkPragmaOnce("a.h")
	if !r.IsAlreadyIncluded("a.h") {
		t.Errorf("IsAlreadyIncluded(a.h) = false after MarkPragmaOnce")
	}
	if r.IsAlreadyIncluded("b.h") {
		t.Errorf("IsAlreadyIncluded(b.h) = true, want false")
	}
}
