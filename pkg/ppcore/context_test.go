package ppcore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raymyers/cprep/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, src string) *Context {
	t.Helper()
	ctx, err := InitPreprocessing(Options{
		Filename: "test.c",
		Source:   strings.NewReader(src),
	})
	if err != nil {
		t.Fatalf("InitPreprocessing error: %v", err)
	}
	t.Cleanup(ctx.ClearPreprocessing)
	return ctx
}

func preprocessToString(t *testing.T, src string) string {
	t.Helper()
	ctx := newTestContext(t, src)
	var out bytes.Buffer
	if err := ctx.Preprocess(&out); err != nil {
		t.Fatalf("Preprocess error: %v", err)
	}
	return out.String()
}

func TestPreprocessObjectLikeMacro(t *testing.T) {
	got := preprocessToString(t, "#define MAX_SIZE 100\nint x = MAX_SIZE;\n")
	if !strings.Contains(got, "100") {
		t.Errorf("output %q should contain the expanded macro value", got)
	}
	if strings.Contains(got, "MAX_SIZE") {
		t.Errorf("output %q should not still contain the macro name", got)
	}
}

func TestPreprocessMultiLineFunctionLikeInvocation(t *testing.T) {
	src := "#define ADD(a, b) ((a) + (b))\n" +
		"int y = ADD(\n" +
		"    1,\n" +
		"    2\n" +
		");\n"
	got := preprocessToString(t, src)
	if !strings.Contains(got, "1") || !strings.Contains(got, "2") {
		t.Errorf("output %q should contain both arguments", got)
	}
	if strings.Contains(got, "ADD") {
		t.Errorf("output %q should not still contain the macro name", got)
	}
}

func TestPreprocessDefinedConditional(t *testing.T) {
	src := "#define Q\n" +
		"#if defined(Q)\n" +
		"yes\n" +
		"#else\n" +
		"no\n" +
		"#endif\n"
	got := preprocessToString(t, src)
	if !strings.Contains(got, "yes") {
		t.Errorf("output %q should contain the active branch", got)
	}
	if strings.Contains(got, "no") {
		t.Errorf("output %q should not contain the inactive branch", got)
	}
}

func TestPreprocessDefinedWithoutParens(t *testing.T) {
	src := "#if defined Q\n" +
		"yes\n" +
		"#endif\n"
	got := preprocessToString(t, src)
	if strings.Contains(got, "yes") {
		t.Errorf("Q is not defined, output %q should not contain the guarded branch", got)
	}
}

func TestPreprocessBadDefinedMissingIdentifierIsFatal(t *testing.T) {
	ctx := newTestContext(t, "#if defined\nyes\n#endif\n")
	var out bytes.Buffer
	err := ctx.Preprocess(&out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-defined")
}

func TestPreprocessBadDefinedMissingCloseParenIsFatal(t *testing.T) {
	ctx := newTestContext(t, "#if defined(Q\nyes\n#endif\n")
	var out bytes.Buffer
	err := ctx.Preprocess(&out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-defined")
}

func TestPreprocessSelfReferenceHygiene(t *testing.T) {
	src := "#define F(x) F(x+1)\n" +
		"F(0)\n"
	got := preprocessToString(t, src)
	if strings.Count(got, "F") == 0 {
		t.Errorf("output %q should retain the unexpanded inner F", got)
	}
	if !strings.Contains(got, "0") {
		t.Errorf("output %q should retain the macro argument", got)
	}
}

func TestPreprocessNestedMacroInvocation(t *testing.T) {
	src := "#define MAX(a, b) ((a) > (b) ? (a) : (b))\n" +
		"int z = MAX(MAX(10, 12), 20);\n"
	got := preprocessToString(t, src)
	if strings.Contains(got, "MAX") {
		t.Errorf("output %q should have no residual MAX identifiers", got)
	}
	if !strings.Contains(got, "10") || !strings.Contains(got, "12") || !strings.Contains(got, "20") {
		t.Errorf("output %q should contain all three operands", got)
	}
}

func TestPreprocessIncludeExpandsNestedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greeting.h"), []byte("#define GREETING \"hi\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, err := InitPreprocessing(Options{
		Filename:         filepath.Join(dir, "main.c"),
		Source:           strings.NewReader("#include \"greeting.h\"\nGREETING\n"),
		UserIncludePaths: []string{dir},
	})
	require.NoError(t, err)
	t.Cleanup(ctx.ClearPreprocessing)

	var out bytes.Buffer
	require.NoError(t, ctx.Preprocess(&out))
	assert.Contains(t, out.String(), `"hi"`)
}

func TestPreprocessIncludeGuardPreventsReinclusion(t *testing.T) {
	dir := t.TempDir()
	guarded := "#ifndef ONCE_H\n#define ONCE_H\ncount\n#endif\n"
	if err := os.WriteFile(filepath.Join(dir, "once.h"), []byte(guarded), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, err := InitPreprocessing(Options{
		Filename:         filepath.Join(dir, "main.c"),
		Source:           strings.NewReader("#include \"once.h\"\n#include \"once.h\"\n"),
		UserIncludePaths: []string{dir},
	})
	require.NoError(t, err)
	t.Cleanup(ctx.ClearPreprocessing)

	var out bytes.Buffer
	require.NoError(t, ctx.Preprocess(&out))
	assert.Equal(t, 1, strings.Count(out.String(), "count"))
}

func TestPreprocessLineMarkersMarkIncludeBoundaries(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greeting.h"), []byte("GREETING\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, err := InitPreprocessing(Options{
		Filename:         filepath.Join(dir, "main.c"),
		Source:           strings.NewReader("#include \"greeting.h\"\nafter\n"),
		UserIncludePaths: []string{dir},
		LineMarkers:      true,
	})
	require.NoError(t, err)
	t.Cleanup(ctx.ClearPreprocessing)

	var out bytes.Buffer
	require.NoError(t, ctx.Preprocess(&out))
	got := out.String()
	assert.Contains(t, got, `# 2 "`+filepath.Join(dir, "greeting.h")+`"`)
	assert.Contains(t, got, `# 3 "`+filepath.Join(dir, "main.c")+`"`)
}

func TestPreprocessWithoutLineMarkersOmitsThem(t *testing.T) {
	got := preprocessToString(t, "#define X 1\nX\n")
	if strings.Contains(got, "#") {
		t.Errorf("output %q should not contain a # line marker when line markers are disabled", got)
	}
}

func TestStringConcatenationMergesAdjacentLiterals(t *testing.T) {
	ctx := newTestContext(t, `"foo" "bar";`+"\n")
	var texts []string
	for {
		tok, err := ctx.Lookahead.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if tok.Kind == token.END {
			break
		}
		if tok.Kind == token.STRING {
			texts = append(texts, tok.Text)
		}
	}
	if len(texts) != 1 || texts[0] != "foobar" {
		t.Errorf("adjacent string literals = %v, want one merged [foobar]", texts)
	}
}

func TestParserFacingStreamOmitsNewlines(t *testing.T) {
	ctx := newTestContext(t, "int a;\nint b;\nint c;\n")
	for {
		tok, err := ctx.Lookahead.Next()
		require.NoError(t, err)
		if tok.Kind == token.END {
			break
		}
		assert.NotEqual(t, token.NEWLINE, tok.Kind, "NEWLINE token leaked into the parser-facing stream outside -E mode")
	}
}

func TestNumberConversionProducesNumValue(t *testing.T) {
	ctx := newTestContext(t, "42;\n")
	for {
		tok, err := ctx.Lookahead.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if tok.Kind == token.END {
			break
		}
		if tok.Kind == token.NUMBER {
			if tok.Num.Int64 != 42 {
				t.Errorf("NUMBER token Num.Int64 = %d, want 42", tok.Num.Int64)
			}
			return
		}
	}
	t.Errorf("never saw a NUMBER token")
}
