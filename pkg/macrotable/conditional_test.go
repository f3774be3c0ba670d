package macrotable

import (
	"testing"

	"github.com/raymyers/cprep/pkg/token"
)

func TestConditionalNestedIfElse(t *testing.T) {
	tab := New()

	mustDirective(t, tab, []token.Token{id("ifdef"), id("MISSING")})
	if tab.InActiveBlock() {
		t.Fatalf("#ifdef MISSING should be inactive")
	}

	// Nested #ifdef inside the inactive block must still be tracked
	// (pushed inactive) so #endif bookkeeping stays balanced.
	mustDirective(t, tab, []token.Token{id("ifdef"), id("ALSO_MISSING")})
	mustDirective(t, tab, []token.Token{id("endif")})
	if tab.InActiveBlock() {
		t.Fatalf("still inside the outer inactive #ifdef")
	}

	mustDirective(t, tab, []token.Token{id("else")})
	if !tab.InActiveBlock() {
		t.Fatalf("#else of a false #ifdef should be active")
	}
	mustDirective(t, tab, []token.Token{id("endif")})

	if err := tab.CheckBalanced(); err != nil {
		t.Errorf("CheckBalanced() = %v, want nil", err)
	}
}

func TestConditionalElifChain(t *testing.T) {
	tab := New()
	tab.Define("VERSION", []token.Token{num("2")})

	mustDirective(t, tab, []token.Token{id("if"), id("VERSION"), punct("=="), num("1")})
	if tab.InActiveBlock() {
		t.Fatalf("#if VERSION==1 should be false")
	}
	mustDirective(t, tab, []token.Token{id("elif"), id("VERSION"), punct("=="), num("2")})
	if !tab.InActiveBlock() {
		t.Fatalf("#elif VERSION==2 should be true")
	}
	mustDirective(t, tab, []token.Token{id("elif"), id("VERSION"), punct("=="), num("3")})
	if tab.InActiveBlock() {
		t.Fatalf("a later #elif after one already matched must stay inactive")
	}
	mustDirective(t, tab, []token.Token{id("endif")})
	if err := tab.CheckBalanced(); err != nil {
		t.Errorf("CheckBalanced() = %v, want nil", err)
	}
}

func mustDirective(t *testing.T, tab *Table, tokens []token.Token) {
	t.Helper()
	if _, err := tab.PreprocessDirective(tokens, "t.c"); err != nil {
		t.Fatalf("PreprocessDirective(%v) error: %v", tokens, err)
	}
}
