// Package expand implements the single-pass, left-to-right macro
// expansion algorithm: object-like and function-like substitution,
// stringification, token pasting, and the hideset ("blue paint")
// hygiene that blocks self-recursion. The hideset is threaded through
// recursive calls so chained macros (`#define A B` / `#define B 42`)
// still expand fully, and its membership is also stamped onto each
// spliced token's NoExpand flag so the persisted Token value itself
// carries the hygiene invariant, not just the Expander's transient
// bookkeeping.
package expand

import (
	"fmt"
	"strings"

	"github.com/raymyers/cprep/pkg/token"
)

// MacroKind distinguishes object-like from function-like macros, the
// only two kinds the expander's algorithm needs to branch on.
type MacroKind int

const (
	ObjectLike MacroKind = iota
	FunctionLike
)

// MacroInfo is everything the expander needs from a macro definition.
// pkg/macrotable.Macro implements this directly, keeping this package
// free of any dependency on the macro-table's storage details.
type MacroInfo interface {
	Name() string
	MacroKind() MacroKind
	Params() []string
	Variadic() bool
	Replacement() []token.Token
}

// Lookup resolves a candidate identifier to a macro definition. This
// is the expander's only read access to the macro table.
type Lookup interface {
	Lookup(name string) (MacroInfo, bool)
}

// Expander rewrites a token list in place by substituting macro
// invocations.
type Expander struct {
	macros Lookup
}

// New builds an Expander backed by the given macro lookup.
func New(macros Lookup) *Expander {
	return &Expander{macros: macros}
}

// Expand rewrites tokens, returning true iff any substitution
// occurred. It performs exactly one left-to-right pass; the caller
// (the line assembler) pulls every line an open invocation needs
// before calling, and calls again while progress is made.
func (e *Expander) Expand(tokens []token.Token) ([]token.Token, bool, error) {
	out, progress, err := e.expandPass(tokens, nil)
	return out, progress, err
}

func (e *Expander) expandPass(tokens []token.Token, hideset map[string]bool) ([]token.Token, bool, error) {
	var result []token.Token
	progress := false
	i := 0

	for i < len(tokens) {
		tok := tokens[i]

		if !tok.Expandable || tok.NoExpand {
			result = append(result, tok)
			i++
			continue
		}

		if hideset[tok.Text] {
			marked := tok
			marked.NoExpand = true
			result = append(result, marked)
			i++
			continue
		}

		macro, ok := e.macros.Lookup(tok.Text)
		if !ok {
			result = append(result, tok)
			i++
			continue
		}

		if macro.MacroKind() == FunctionLike {
			parenIdx := i + 1
			if parenIdx >= len(tokens) || tokens[parenIdx].Kind != token.PUNCT || tokens[parenIdx].Text != "(" {
				// No '(' follows within the tokens we have *right now*.
				// The line assembler may still pull more tokens
				// and retry; we leave the identifier untouched.
				result = append(result, tok)
				i++
				continue
			}

			args, endIdx, complete, err := parseArguments(tokens, parenIdx)
			if err != nil {
				return nil, false, err
			}
			if !complete {
				// Unbalanced within the tokens we have so far: the
				// invocation spans more lines than have been pulled.
				// Leave the rest of the line untouched for refill.
				result = append(result, tokens[i:]...)
				return result, progress, nil
			}

			if err := validateArgCount(macro, args); err != nil {
				return nil, false, err
			}

			expanded, err := e.substituteFunctionMacro(macro, args, hideset)
			if err != nil {
				return nil, false, err
			}
			result = append(result, expanded...)
			i = endIdx + 1
			progress = true
			continue
		}

		// Object-like macro.
		expanded, err := e.substituteObjectMacro(macro, hideset)
		if err != nil {
			return nil, false, err
		}
		result = append(result, expanded...)
		i++
		progress = true
	}

	return result, progress, nil
}

func childHideset(parent map[string]bool, name string) map[string]bool {
	child := make(map[string]bool, len(parent)+1)
	for k, v := range parent {
		child[k] = v
	}
	child[name] = true
	return child
}

func (e *Expander) substituteObjectMacro(macro MacroInfo, hideset map[string]bool) ([]token.Token, error) {
	child := childHideset(hideset, macro.Name())

	replacement := append([]token.Token{}, macro.Replacement()...)
	pasted, err := pasteTokens(replacement)
	if err != nil {
		return nil, err
	}

	rescanned, _, err := e.expandPass(pasted, child)
	if err != nil {
		return nil, err
	}
	return stampHideset(rescanned, child), nil
}

func (e *Expander) substituteFunctionMacro(macro MacroInfo, args [][]token.Token, hideset map[string]bool) ([]token.Token, error) {
	child := childHideset(hideset, macro.Name())

	paramMap := make(map[string][]token.Token)
	for i, p := range macro.Params() {
		if i < len(args) {
			paramMap[p] = args[i]
		}
	}
	if macro.Variadic() {
		paramMap["__VA_ARGS__"] = buildVAArgs(args, len(macro.Params()))
	}

	replacement := macro.Replacement()
	var substituted []token.Token
	i := 0
	for i < len(replacement) {
		tok := replacement[i]

		if tok.Kind == token.PUNCT && tok.Text == "#" {
			if i+1 < len(replacement) && replacement[i+1].Kind == token.IDENTIFIER {
				if argToks, ok := paramMap[replacement[i+1].Text]; ok {
					substituted = append(substituted, stringify(argToks, tok.Line))
					i += 2
					continue
				}
			}
		}

		if tok.Kind == token.IDENTIFIER {
			if argToks, ok := paramMap[tok.Text]; ok {
				beforePaste := i > 0 && replacement[i-1].Kind == token.PUNCT && replacement[i-1].Text == "##"
				afterPaste := i+1 < len(replacement) && replacement[i+1].Kind == token.PUNCT && replacement[i+1].Text == "##"

				if beforePaste || afterPaste {
					substituted = append(substituted, argToks...)
				} else {
					expandedArg, _, err := e.expandPass(argToks, hideset)
					if err != nil {
						return nil, err
					}
					substituted = append(substituted, expandedArg...)
				}
				i++
				continue
			}
		}

		substituted = append(substituted, tok)
		i++
	}

	pasted, err := pasteTokens(substituted)
	if err != nil {
		return nil, err
	}

	rescanned, _, err := e.expandPass(pasted, child)
	if err != nil {
		return nil, err
	}
	return stampHideset(rescanned, child), nil
}

// stampHideset marks every token whose text names a macro in hideset
// with NoExpand=true, giving the disable-expand invariant a
// concrete, persisted value on tokens that would otherwise recurse.
// Tokens unrelated to any name in hideset are left exactly as the
// rescan produced them, so chained macros (A -> B -> 42) keep
// expanding.
func stampHideset(toks []token.Token, hideset map[string]bool) []token.Token {
	for i, t := range toks {
		if hideset[t.Text] {
			toks[i].NoExpand = true
		}
	}
	return toks
}

// parseArguments collects the argument lists of a function-like macro
// invocation starting at the '(' token at tokens[parenIdx]. It returns
// the parsed arguments, the index of the matching ')', and whether the
// invocation was complete within tokens (false means more tokens are
// needed — the line assembler will pull more and retry; a pass may
// leave behind partial function-like invocations.
func parseArguments(tokens []token.Token, parenIdx int) ([][]token.Token, int, bool, error) {
	i := parenIdx + 1
	depth := 1
	var args [][]token.Token
	var cur []token.Token

	for i < len(tokens) {
		tok := tokens[i]
		if tok.Kind == token.NEWLINE {
			// Multi-line invocations are joined by the line assembler
			// before expansion ever sees them; a NEWLINE here means
			// the assembler hasn't pulled the continuation yet.
			return nil, 0, false, nil
		}
		if tok.Kind == token.PUNCT {
			switch tok.Text {
			case "(":
				depth++
				cur = append(cur, tok)
			case ")":
				depth--
				if depth == 0 {
					if len(cur) > 0 || len(args) > 0 {
						args = append(args, cur)
					}
					return args, i, true, nil
				}
				cur = append(cur, tok)
			case ",":
				if depth == 1 {
					args = append(args, cur)
					cur = nil
				} else {
					cur = append(cur, tok)
				}
			default:
				cur = append(cur, tok)
			}
		} else {
			cur = append(cur, tok)
		}
		i++
	}

	return nil, 0, false, nil
}

func validateArgCount(macro MacroInfo, args [][]token.Token) error {
	expected := len(macro.Params())
	if macro.Variadic() {
		if len(args) < expected {
			return fmt.Errorf("macro %s requires at least %d arguments, got %d", macro.Name(), expected, len(args))
		}
		return nil
	}
	if expected == 0 && len(args) == 1 && len(args[0]) == 0 {
		// `F()` calling a zero-parameter macro: one empty argument, fine.
		return nil
	}
	if len(args) != expected {
		return fmt.Errorf("macro %s requires %d arguments, got %d", macro.Name(), expected, len(args))
	}
	return nil
}

func buildVAArgs(args [][]token.Token, numParams int) []token.Token {
	if len(args) <= numParams {
		return nil
	}
	var result []token.Token
	extra := args[numParams:]
	for i, a := range extra {
		if i > 0 {
			result = append(result, token.Token{Kind: token.PUNCT, Text: ","})
		}
		result = append(result, a...)
	}
	return result
}

// stringify implements the `#` operator, grounded on expand.go's
// stringify.
func stringify(toks []token.Token, line int) token.Token {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if t.Kind == token.STRING || t.Kind == token.PREP_STRING || t.Kind == token.CHAR || t.Kind == token.PREP_CHAR {
			for _, c := range t.Text {
				if c == '"' || c == '\\' {
					sb.WriteByte('\\')
				}
				sb.WriteRune(c)
			}
		} else {
			sb.WriteString(t.Text)
		}
	}
	return token.Token{Kind: token.PREP_STRING, Text: `"` + sb.String() + `"`, Line: line}
}

// pasteTokens implements the `##` operator, grounded on expand.go's
// handleTokenPasting, adapted to re-tokenize via a minimal local
// scanner (pkg/expand cannot depend on the tokenizer in pkg/ppcore
// without creating an import cycle, so pasted lexemes are re-split
// with the same punctuator/identifier/number rules inline).
func pasteTokens(toks []token.Token) ([]token.Token, error) {
	var result []token.Token
	i := 0
	for i < len(toks) {
		t := toks[i]
		if t.Kind == token.PUNCT && t.Text == "##" {
			if len(result) == 0 {
				return nil, fmt.Errorf("## cannot appear at start of replacement list")
			}
			if i+1 >= len(toks) {
				return nil, fmt.Errorf("## cannot appear at end of replacement list")
			}
			left := result[len(result)-1]
			right := toks[i+1]
			result = result[:len(result)-1]

			pastedText := left.Text + right.Text
			pastedToks := retokenizeLexeme(pastedText, left.Line)
			result = append(result, pastedToks...)
			i += 2
			continue
		}
		result = append(result, t)
		i++
	}
	return result, nil
}

// retokenizeLexeme re-splits a pasted lexeme. Token pasting only ever
// needs to recognize identifiers, numbers, and punctuators (pasting
// that produces a string or char literal is undefined behavior in C
// and not attempted here).
func retokenizeLexeme(s string, line int) []token.Token {
	if s == "" {
		return nil
	}
	if isIdentStart(s[0]) {
		ok := true
		for i := 1; i < len(s); i++ {
			if !isIdentCont(s[i]) {
				ok = false
				break
			}
		}
		if ok {
			return []token.Token{token.New(token.IDENTIFIER, s, line)}
		}
	}
	if isDigit(s[0]) {
		ok := true
		for i := 1; i < len(s); i++ {
			if !isDigit(s[i]) && !isIdentCont(s[i]) && s[i] != '.' {
				ok = false
				break
			}
		}
		if ok {
			return []token.Token{{Kind: token.PREP_NUMBER, Text: s, Line: line}}
		}
	}
	return []token.Token{{Kind: token.PUNCT, Text: s, Line: line}}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
