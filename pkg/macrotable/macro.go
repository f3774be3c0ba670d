// Package macrotable is the macro table: storage, directive dispatch
// (#define/#undef/#if/#ifdef/#ifndef/#elif/#else/#endif), the
// conditional-compilation stack, and #include resolution, kept behind
// a package boundary so the core (pkg/ppcore) only ever talks to it
// through a narrow interface (see DESIGN.md for how this boundary was
// reconstructed).
package macrotable

import (
	"fmt"

	"github.com/raymyers/cprep/pkg/expand"
	"github.com/raymyers/cprep/pkg/token"
)

// Kind distinguishes the three macro shapes the table stores.
type Kind int

const (
	ObjectLike Kind = iota
	FunctionLike
	Builtin
)

// BuiltinFunc computes a builtin macro's expansion at the call site,
// given the line at which it was invoked. __FILE__ and __LINE__ are
// the two builtins implemented this way.
type BuiltinFunc func(line int) []token.Token

// Macro is one entry in the table.
type Macro struct {
	name        string
	kind        Kind
	params      []string
	variadic    bool
	replacement []token.Token
	builtin     BuiltinFunc
}

// Name implements expand.MacroInfo.
func (m *Macro) Name() string { return m.name }

// MacroKind implements expand.MacroInfo. Builtins present as
// object-like to the expander; their expansion is computed by the
// table's Lookup, not by substituting a fixed Replacement.
func (m *Macro) MacroKind() expand.MacroKind {
	if m.kind == FunctionLike {
		return expand.FunctionLike
	}
	return expand.ObjectLike
}

// Params implements expand.MacroInfo.
func (m *Macro) Params() []string { return m.params }

// Variadic implements expand.MacroInfo.
func (m *Macro) Variadic() bool { return m.variadic }

// Replacement implements expand.MacroInfo.
func (m *Macro) Replacement() []token.Token { return m.replacement }

// IsFunctionLike reports whether invoking this macro requires a
// parenthesized argument list.
func (m *Macro) IsFunctionLike() bool { return m.kind == FunctionLike }

// sameDefinition reports whether two macro definitions are identical
// per C's redefinition rule.
func (m *Macro) sameDefinition(other *Macro) bool {
	if m.kind != other.kind || m.variadic != other.variadic {
		return false
	}
	if len(m.params) != len(other.params) {
		return false
	}
	for i := range m.params {
		if m.params[i] != other.params[i] {
			return false
		}
	}
	if len(m.replacement) != len(other.replacement) {
		return false
	}
	for i := range m.replacement {
		if m.replacement[i].Kind != other.replacement[i].Kind || m.replacement[i].Text != other.replacement[i].Text {
			return false
		}
	}
	return true
}

// Table stores macro definitions plus the directive-evaluation state
// (conditional stack, include resolver) that travels with them.
type Table struct {
	macros    map[string]*Macro
	cond      *conditionalStack
	includes  *IncludeResolver
	guards    map[string]string // resolved include path -> its include-guard macro name
	fileToken func() string     // supplies the current file name for __FILE__
}

// New returns an empty table with __FILE__ and __LINE__ pre-defined.
func New() *Table {
	t := &Table{
		macros:   make(map[string]*Macro),
		cond:     newConditionalStack(),
		includes: NewIncludeResolver(),
		guards:   make(map[string]string),
	}
	t.defineBuiltins()
	return t
}

func (t *Table) defineBuiltins() {
	t.macros["__FILE__"] = &Macro{
		name: "__FILE__", kind: Builtin,
		builtin: func(line int) []token.Token {
			name := "<unknown>"
			if t.fileToken != nil {
				name = t.fileToken()
			}
			return []token.Token{{Kind: token.PREP_STRING, Text: `"` + name + `"`, Line: line}}
		},
	}
	t.macros["__LINE__"] = &Macro{
		name: "__LINE__", kind: Builtin,
		builtin: func(line int) []token.Token {
			return []token.Token{{Kind: token.PREP_NUMBER, Text: fmt.Sprintf("%d", line), Line: line}}
		},
	}
}

// InActiveBlock reports whether the current conditional-compilation
// state allows a non-directive line to be tokenized at all.
func (t *Table) InActiveBlock() bool { return t.cond.InActiveBlock() }

// CheckBalanced reports an error if any conditional block is still
// open, called once at end of translation unit.
func (t *Table) CheckBalanced() error { return t.cond.checkBalanced() }

// ConditionalDepth reports current #if/#ifdef/#ifndef nesting.
func (t *Table) ConditionalDepth() int { return t.cond.depth() }

// SetCurrentFileFunc wires a callback the table calls to resolve
// __FILE__, letting the driver (which owns the include stack) be the
// source of truth rather than duplicating it here.
func (t *Table) SetCurrentFileFunc(f func() string) { t.fileToken = f }

// Lookup implements expand.Lookup. Builtins are expanded eagerly here
// since their value depends on the call site's line, which the
// expander threads in via tok.Line — by returning a Macro whose
// Replacement is already computed for that occurrence we keep
// pkg/expand free of any notion of "builtin".
func (t *Table) Lookup(name string) (expand.MacroInfo, bool) {
	m, ok := t.macros[name]
	if !ok {
		return nil, false
	}
	if m.kind == Builtin {
		return &Macro{name: m.name, kind: ObjectLike, replacement: m.builtin(0)}, true
	}
	return m, true
}

// LookupAt resolves a builtin against the actual invocation line,
// used by the line assembler when it needs the literal replacement
// rather than going through the expander.
func (t *Table) LookupAt(name string, line int) (*Macro, bool) {
	m, ok := t.macros[name]
	if !ok {
		return nil, false
	}
	if m.kind == Builtin {
		return &Macro{name: m.name, kind: ObjectLike, replacement: m.builtin(line)}, true
	}
	return m, true
}

// IsDefined reports whether name has a current definition, the test
// the `defined` operator and #ifdef/#ifndef rely on.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

// Define installs (or redefines) an object-like macro.
func (t *Table) Define(name string, replacement []token.Token) error {
	return t.define(&Macro{name: name, kind: ObjectLike, replacement: replacement})
}

// DefineFunction installs a function-like macro.
func (t *Table) DefineFunction(name string, params []string, variadic bool, replacement []token.Token) error {
	return t.define(&Macro{name: name, kind: FunctionLike, params: params, variadic: variadic, replacement: replacement})
}

func (t *Table) define(m *Macro) error {
	if existing, ok := t.macros[m.name]; ok && existing.kind != Builtin {
		if !existing.sameDefinition(m) {
			return fmt.Errorf("macrotable: incompatible redefinition of %q", m.name)
		}
		return nil
	}
	t.macros[m.name] = m
	return nil
}

// Undefine removes a macro definition. Undefining a name that was
// never defined is a no-op, matching #undef's standard behavior.
func (t *Table) Undefine(name string) {
	delete(t.macros, name)
}

// ApplyCmdlineDefines seeds the table from -D/-U flags. Each define is
// either "NAME" (defines to "1") or "NAME=VALUE".
func (t *Table) ApplyCmdlineDefines(defines, undefines []string) error {
	for _, d := range defines {
		name, value := splitDefine(d)
		toks, err := tokenizeReplacementText(value)
		if err != nil {
			return fmt.Errorf("macrotable: -D%s: %w", d, err)
		}
		if err := t.Define(name, toks); err != nil {
			return err
		}
	}
	for _, name := range undefines {
		t.Undefine(name)
	}
	return nil
}

func splitDefine(d string) (name, value string) {
	for i := 0; i < len(d); i++ {
		if d[i] == '=' {
			return d[:i], d[i+1:]
		}
	}
	return d, "1"
}

// tokenizeReplacementText splits a -D value into a minimal token
// sequence (identifier/number/punct runs separated by spaces). Full
// C lexical analysis lives in pkg/ppcore; command-line define values
// are simple enough that a small local splitter avoids an import
// cycle (ppcore depends on macrotable, not the reverse).
func tokenizeReplacementText(s string) ([]token.Token, error) {
	if s == "" {
		return nil, nil
	}
	var toks []token.Token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentCont(s[j]) {
				j++
			}
			toks = append(toks, token.New(token.IDENTIFIER, s[i:j], 0))
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(s) && (isIdentCont(s[j]) || s[j] == '.') {
				j++
			}
			toks = append(toks, token.Token{Kind: token.PREP_NUMBER, Text: s[i:j], Line: 0})
			i = j
		default:
			toks = append(toks, token.Token{Kind: token.PUNCT, Text: string(c), Line: 0})
			i++
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
