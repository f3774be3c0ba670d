// include.go resolves #include directives to file paths: -I/-isystem
// search order, circular-include detection, and #pragma once
// bookkeeping. System-compiler path auto-detection (querying
// cc/gcc/clang) is not implemented; callers needing system headers
// pass them explicitly via -isystem.
package macrotable

import (
	"os"
	"path/filepath"
	"strings"
)

// IncludeKind distinguishes <file> from "file" includes.
type IncludeKind int

const (
	IncludeQuoted IncludeKind = iota
	IncludeAngled
)

// MaxIncludeDepth bounds #include nesting.
const MaxIncludeDepth = 200

// IncludeResolver resolves #include file names to absolute paths and
// tracks the state needed for circular-include detection and
// #pragma once.
type IncludeResolver struct {
	UserPaths    []string
	SystemPaths  []string
	CurrentDir   string
	includeStack []string
	includedOnce map[string]bool
}

// NewIncludeResolver returns an empty resolver.
func NewIncludeResolver() *IncludeResolver {
	return &IncludeResolver{includedOnce: make(map[string]bool)}
}

// AddUserPath registers a -I directory.
func (r *IncludeResolver) AddUserPath(path string) { r.UserPaths = append(r.UserPaths, path) }

// AddSystemPath registers a -isystem directory.
func (r *IncludeResolver) AddSystemPath(path string) { r.SystemPaths = append(r.SystemPaths, path) }

// SetCurrentFile records the file currently being processed, so a
// quoted include can search its directory first.
func (r *IncludeResolver) SetCurrentFile(filename string) {
	r.CurrentDir = filepath.Dir(filename)
}

// Resolve finds filename on the search path appropriate to kind.
func (r *IncludeResolver) Resolve(filename string, kind IncludeKind) (string, error) {
	var searchPaths []string
	if kind == IncludeQuoted && r.CurrentDir != "" {
		searchPaths = append(searchPaths, r.CurrentDir)
	}
	searchPaths = append(searchPaths, r.UserPaths...)
	searchPaths = append(searchPaths, r.SystemPaths...)

	for _, dir := range searchPaths {
		full := filepath.Join(dir, filename)
		if _, err := os.Stat(full); err == nil {
			abs, err := filepath.Abs(full)
			if err != nil {
				abs = full
			}
			return abs, nil
		}
	}
	return "", &IncludeError{Filename: filename, Kind: kind}
}

// PushFile marks path as being included, failing if it is already on
// the include stack (a circular #include chain).
func (r *IncludeResolver) PushFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, f := range r.includeStack {
		if f == abs {
			return &CircularIncludeError{Path: abs, Stack: append([]string{}, r.includeStack...)}
		}
	}
	r.includeStack = append(r.includeStack, abs)
	return nil
}

// PopFile removes the most recently pushed file.
func (r *IncludeResolver) PopFile() {
	if len(r.includeStack) > 0 {
		r.includeStack = r.includeStack[:len(r.includeStack)-1]
	}
}

// IncludeDepth reports current nesting.
func (r *IncludeResolver) IncludeDepth() int { return len(r.includeStack) }

// MarkPragmaOnce records that path carried `#pragma once`.
func (r *IncludeResolver) MarkPragmaOnce(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	r.includedOnce[abs] = true
}

// IsAlreadyIncluded reports whether path was previously marked with
// #pragma once.
func (r *IncludeResolver) IsAlreadyIncluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return r.includedOnce[abs]
}

// ParseHeaderName splits a raw `<...>`/`"..."` spelling (as already
// assembled by the line assembler) into its file name and kind.
func ParseHeaderName(raw string) (name string, kind IncludeKind, ok bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '<' && raw[len(raw)-1] == '>' {
		return raw[1 : len(raw)-1], IncludeAngled, true
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1], IncludeQuoted, true
	}
	return "", 0, false
}

// IncludeError indicates that an include file was not found.
type IncludeError struct {
	Filename string
	Kind     IncludeKind
}

func (e *IncludeError) Error() string {
	kindStr := "quoted"
	if e.Kind == IncludeAngled {
		kindStr = "angled"
	}
	return "include file not found: " + e.Filename + " (" + kindStr + ")"
}

// CircularIncludeError indicates a circular #include dependency.
type CircularIncludeError struct {
	Path  string
	Stack []string
}

func (e *CircularIncludeError) Error() string {
	var sb strings.Builder
	sb.WriteString("circular include detected: ")
	sb.WriteString(e.Path)
	sb.WriteString("\ninclude stack:\n")
	for i, f := range e.Stack {
		sb.WriteString(strings.Repeat("  ", i+1))
		sb.WriteString(filepath.Base(f))
		sb.WriteString("\n")
	}
	return sb.String()
}

// DetectIncludeGuard scans a freshly-read file's raw text for the
// `#ifndef GUARD` / `#define GUARD` idiom at the top of the file, so a
// second #include of the same unguarded-by-pragma file can be skipped
// without reprocessing it. Grounded on preprocess.go's
// detectIncludeGuard, adapted to scan raw lines instead of re-lexing
// (pkg/macrotable has no lexer of its own; the full tokenizer lives in
// pkg/ppcore, and re-lexing here would create an import cycle).
func DetectIncludeGuard(lines []string) string {
	var meaningful []string
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		meaningful = append(meaningful, trimmed)
		if len(meaningful) >= 2 {
			break
		}
	}
	if len(meaningful) < 2 {
		return ""
	}
	if !strings.HasPrefix(meaningful[0], "#") {
		return ""
	}
	first := strings.Fields(strings.TrimPrefix(meaningful[0], "#"))
	if len(first) != 2 || first[0] != "ifndef" {
		return ""
	}
	guard := first[1]

	if !strings.HasPrefix(meaningful[1], "#") {
		return ""
	}
	second := strings.Fields(strings.TrimPrefix(meaningful[1], "#"))
	if len(second) < 2 || second[0] != "define" || second[1] != guard {
		return ""
	}
	return guard
}
