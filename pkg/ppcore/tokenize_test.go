package ppcore

import (
	"testing"

	"github.com/raymyers/cprep/pkg/token"
)

func TestTokenizeLineBasic(t *testing.T) {
	list, err := TokenizeLine(`int x = 42;`, 1)
	if err != nil {
		t.Fatalf("TokenizeLine error: %v", err)
	}
	want := []string{"int", "x", "=", "42", ";"}
	toks := list.Slice()
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Text != w {
			t.Errorf("token[%d].Text = %q, want %q", i, toks[i].Text, w)
		}
	}
	if toks[0].Kind != token.INT {
		t.Errorf("int should lex as the INT keyword, got %v", toks[0].Kind)
	}
}

func TestTokenizeLineLeadingWhitespace(t *testing.T) {
	list, err := TokenizeLine(`   foo(bar)`, 1)
	if err != nil {
		t.Fatalf("TokenizeLine error: %v", err)
	}
	toks := list.Slice()
	if toks[0].Leading != 3 {
		t.Errorf("Leading = %d, want 3", toks[0].Leading)
	}
	// "(" immediately after "foo" must have Leading == 0 — the
	// function-like-macro adjacency signal.
	if toks[1].Text != "(" || toks[1].Leading != 0 {
		t.Errorf("'(' after foo should have Leading 0, got %+v", toks[1])
	}
}

func TestTokenizeLineString(t *testing.T) {
	list, err := TokenizeLine(`"hello\n"`, 1)
	if err != nil {
		t.Fatalf("TokenizeLine error: %v", err)
	}
	toks := list.Slice()
	if len(toks) != 1 || toks[0].Kind != token.PREP_STRING {
		t.Fatalf("got %v, want one PREP_STRING token", toks)
	}
}

func TestTokenizeLineMultiCharPunct(t *testing.T) {
	list, err := TokenizeLine(`a <<= b`, 1)
	if err != nil {
		t.Fatalf("TokenizeLine error: %v", err)
	}
	toks := list.Slice()
	if toks[1].Text != "<<=" {
		t.Errorf("token[1] = %q, want <<=", toks[1].Text)
	}
}

func TestTokenizeLineComment(t *testing.T) {
	list, err := TokenizeLine(`a /* comment */ b // trailing`, 1)
	if err != nil {
		t.Fatalf("TokenizeLine error: %v", err)
	}
	toks := list.Slice()
	want := []string{"a", "b"}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(toks), toks, len(want))
	}
}

func TestScanHeaderNameAngled(t *testing.T) {
	tok, n, ok := ScanHeaderName(` <stdio.h>`, 1)
	if !ok || tok.Text != "<stdio.h>" {
		t.Fatalf("ScanHeaderName = %+v, %d, %v", tok, n, ok)
	}
}

func TestScanHeaderNameQuoted(t *testing.T) {
	tok, _, ok := ScanHeaderName(`"local.h"`, 1)
	if !ok || tok.Text != `"local.h"` {
		t.Fatalf("ScanHeaderName = %+v, %v", tok, ok)
	}
}
