package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resetFlags clears the package-level flag-bound globals between tests,
// since cobra binds them once at newRootCmd construction time but the
// vars themselves are shared process state.
func resetFlags() {
	includePaths = nil
	systemPaths = nil
	defineFlags = nil
	undefineFlags = nil
	useExternalPP = false
	lineMarkers = false
	configPath = ".cprep.yaml"
}

func TestRunPreprocessesFileToStdout(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	if err := os.WriteFile(src, []byte("#define SIZE 10\nint a[SIZE];\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	configPath = filepath.Join(dir, ".cprep.yaml")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{src})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v (stderr: %s)", err, errOut.String())
	}
	if !strings.Contains(out.String(), "10") {
		t.Errorf("output %q should contain the expanded macro value", out.String())
	}
	if strings.Contains(out.String(), "SIZE") {
		t.Errorf("output %q should not still contain the macro name", out.String())
	}
}

func TestRunAppliesDefineFlag(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	if err := os.WriteFile(src, []byte("VALUE\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	configPath = filepath.Join(dir, ".cprep.yaml")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"-D", "VALUE=99", src})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v (stderr: %s)", err, errOut.String())
	}
	if !strings.Contains(out.String(), "99") {
		t.Errorf("output %q should contain the -D flag's value", out.String())
	}
}

func TestRunAppliesLineMarkersFlag(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	if err := os.WriteFile(src, []byte("#include \"greeting.h\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "greeting.h"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	configPath = filepath.Join(dir, ".cprep.yaml")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--line-markers", "-I", dir, src})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v (stderr: %s)", err, errOut.String())
	}
	if !strings.Contains(out.String(), "# 2 \""+filepath.Join(dir, "greeting.h")+"\"") {
		t.Errorf("output %q should contain a line marker for the included file", out.String())
	}
}

func TestRunMissingFileErrors(t *testing.T) {
	resetFlags()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.c")})
	if err := cmd.Execute(); err == nil {
		t.Errorf("Execute() should error for a missing input file")
	}
}

func TestRunExternalCppFlagWarnsAndFallsBack(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	if err := os.WriteFile(src, []byte("int x;\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	configPath = filepath.Join(dir, ".cprep.yaml")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--external-cpp", src})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(errOut.String(), "external-cpp") {
		t.Errorf("stderr %q should warn about the unimplemented --external-cpp flag", errOut.String())
	}
}
