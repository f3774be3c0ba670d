// assembler.go pulls logical lines from the line source, recognizes
// directive lines, grows a function-like macro invocation across as
// many physical lines as its argument list needs, intercepts the
// `defined` operator on #if/#elif lines before anything else can
// touch it, and drives macro expansion over the assembled line.
package ppcore

import (
	"fmt"
	"strings"

	"github.com/raymyers/cprep/pkg/expand"
	"github.com/raymyers/cprep/pkg/lineio"
	"github.com/raymyers/cprep/pkg/macrotable"
	"github.com/raymyers/cprep/pkg/token"
)

// LineKind tags what an assembled Line represents.
type LineKind int

const (
	LineEOF LineKind = iota
	LineDirective
	LineBlank // inactive-block line, or a directive line in an inactive block
	LineCode
)

// Line is one fully assembled, macro-expanded logical line, ready for the post-processor.
type Line struct {
	Kind      LineKind
	Tokens    []token.Token // LineCode: expanded tokens, ending in a NEWLINE
	Directive *macrotable.DirectiveResult
	Number    int
	File      string // file this line was read from, for -E line markers
}

// Assembler pulls and assembles logical lines into macro-expanded
// output, one Line at a time.
type Assembler struct {
	lines    *lineio.Chain
	macros   MacroTable
	expander *expand.Expander
	files    []string // stack of nested #include file names; top is current
	lineNo   int
}

// NewAssembler builds an assembler reading from lines, evaluating
// directives and expanding macros against macros.
func NewAssembler(lines *lineio.Chain, macros MacroTable, currentFile string) *Assembler {
	return &Assembler{
		lines:    lines,
		macros:   macros,
		expander: expand.New(macros),
		files:    []string{currentFile},
	}
}

// InjectLine pushes a synthetic source line ahead of the real input
//, e.g. for a parser that needs to feed
// back a generated declaration.
func (a *Assembler) InjectLine(raw string) {
	a.lines.Prepend(lineio.NewSliceSource([]string{raw}))
}

// CurrentFile reports the file name attributed to tokens currently
// being produced (used for __FILE__ and #include resolution).
func (a *Assembler) CurrentFile() string {
	if len(a.files) == 0 {
		return ""
	}
	return a.files[len(a.files)-1]
}

// PushFile records that an included file is now being read, so
// __FILE__ and nested #include resolution use its name until it
// drains.
func (a *Assembler) PushFile(path string) { a.files = append(a.files, path) }

// PopFile restores the including file's name once an included file
// has been fully consumed.
func (a *Assembler) PopFile() {
	if len(a.files) > 1 {
		a.files = a.files[:len(a.files)-1]
	}
}

// LineNumber reports the logical line most recently read.
func (a *Assembler) LineNumber() int { return a.lineNo }

// Next assembles and returns the next logical line of output.
func (a *Assembler) Next() (*Line, error) {
	raw, ok := a.lines.NextLine()
	if !ok {
		return &Line{Kind: LineEOF}, nil
	}
	a.lineNo++

	trimmed := strings.TrimLeft(raw, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return a.readDirectiveLine(trimmed)
	}

	if !a.macros.InActiveBlock() {
		return &Line{Kind: LineBlank, Number: a.lineNo}, nil
	}

	list, err := TokenizeLine(raw, a.lineNo)
	if err != nil {
		return nil, err
	}

	assembled, err := a.readMacroInvocation(list.Slice())
	if err != nil {
		return nil, err
	}

	expanded, progress, err := a.expander.Expand(assembled)
	for err == nil && progress {
		expanded, progress, err = a.expander.Expand(expanded)
	}
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", a.lineNo, err)
	}
	expanded = append(expanded, token.Token{Kind: token.NEWLINE, Line: a.lineNo})

	return &Line{Kind: LineCode, Tokens: expanded, Number: a.lineNo, File: a.CurrentFile()}, nil
}

// readMacroInvocation pulls additional physical lines while the
// tokens gathered so far end inside an unbalanced function-like macro
// argument list.
func (a *Assembler) readMacroInvocation(toks []token.Token) ([]token.Token, error) {
	for needsMoreTokens(toks, a.macros) {
		raw, ok := a.lines.NextLine()
		if !ok {
			return nil, newDiagnostic(a.CurrentFile(), a.lineNo, "unterminated macro invocation at end of input")
		}
		a.lineNo++
		more, err := TokenizeLine(raw, a.lineNo)
		if err != nil {
			return nil, err
		}
		toks = append(toks, more.Slice()...)
	}
	return toks, nil
}

// needsMoreTokens reports whether toks ends with a function-like
// macro invocation whose argument list parentheses are not yet
// balanced. It does not speculatively wait for an opening '(' that
// hasn't appeared at all yet — only an invocation already underway
// forces a pull of more lines.
func needsMoreTokens(toks []token.Token, macros MacroTable) bool {
	i := 0
	for i < len(toks) {
		tok := toks[i]
		if tok.Kind != token.IDENTIFIER || tok.NoExpand {
			i++
			continue
		}
		info, ok := macros.Lookup(tok.Text)
		if !ok || info.MacroKind() != expand.FunctionLike {
			i++
			continue
		}

		j := i + 1
		for j < len(toks) && toks[j].Kind == token.NEWLINE {
			j++
		}
		if j >= len(toks) || toks[j].Kind != token.PUNCT || toks[j].Text != "(" {
			i++
			continue
		}

		depth := 0
		k := j
		closed := false
		for k < len(toks) {
			if toks[k].Kind == token.PUNCT && toks[k].Text == "(" {
				depth++
			} else if toks[k].Kind == token.PUNCT && toks[k].Text == ")" {
				depth--
				if depth == 0 {
					closed = true
					break
				}
			}
			k++
		}
		if !closed {
			return true
		}
		i = k + 1
	}
	return false
}

func peekDirectiveName(s string) (name string, afterIdx int) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	for i < len(s) && isIdentCont(s[i]) {
		i++
	}
	return s[start:i], i
}

// readDirectiveLine tokenizes a directive line (one beginning with
// '#', leading whitespace already trimmed), performs the `defined`
// interception for #if/#elif, and hands the result to the macro
// table for evaluation.
func (a *Assembler) readDirectiveLine(trimmed string) (*Line, error) {
	afterHash := trimmed[1:]
	name, idx := peekDirectiveName(afterHash)

	var tokens []token.Token
	if name == "include" {
		nameTok := token.Token{Kind: token.IDENTIFIER, Text: "include", Line: a.lineNo}
		if htok, _, ok := ScanHeaderName(afterHash[idx:], a.lineNo); ok {
			tokens = []token.Token{nameTok, htok}
		} else {
			list, err := TokenizeLine(afterHash[idx:], a.lineNo)
			if err != nil {
				return nil, err
			}
			tokens = append([]token.Token{nameTok}, list.Slice()...)
		}
	} else {
		list, err := TokenizeLine(afterHash, a.lineNo)
		if err != nil {
			return nil, err
		}
		tokens = list.Slice()
	}

	if name == "if" || name == "elif" {
		var err error
		tokens, err = a.interceptDefined(tokens)
		if err != nil {
			return nil, err
		}
	}

	if !a.macros.InActiveBlock() && name != "if" && name != "ifdef" && name != "ifndef" &&
		name != "elif" && name != "else" && name != "endif" {
		return &Line{Kind: LineBlank, Number: a.lineNo}, nil
	}

	result, err := a.macros.PreprocessDirective(tokens, a.CurrentFile())
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", a.lineNo, err)
	}
	return &Line{Kind: LineDirective, Directive: result, Number: a.lineNo}, nil
}

// interceptDefined replaces `defined NAME` and `defined(NAME)` in a
// #if/#elif expression with a synthetic PREP_NUMBER "0" or "1" before
// the directive evaluator (and its generic macro expansion) ever sees
// the line — the operand of `defined` must never itself be
// macro-expanded. A `defined` with no identifier operand, or a
// `defined(` missing its closing `)`, is a fatal bad-defined error
// rather than a silently-false test.
func (a *Assembler) interceptDefined(tokens []token.Token) ([]token.Token, error) {
	if len(tokens) == 0 {
		return tokens, nil
	}
	result := make([]token.Token, 1, len(tokens))
	result[0] = tokens[0]
	rest := tokens[1:]

	i := 0
	for i < len(rest) {
		tok := rest[i]
		if tok.Kind == token.IDENTIFIER && tok.Text == "defined" {
			line := tok.Line
			i++
			name := ""
			if i < len(rest) && rest[i].Kind == token.PUNCT && rest[i].Text == "(" {
				i++
				if i >= len(rest) || rest[i].Kind != token.IDENTIFIER {
					return nil, newDiagnostic(a.CurrentFile(), line, "bad-defined: defined() requires an identifier")
				}
				name = rest[i].Text
				i++
				if i >= len(rest) || rest[i].Kind != token.PUNCT || rest[i].Text != ")" {
					return nil, newDiagnostic(a.CurrentFile(), line, "bad-defined: missing ) after defined(%s", name)
				}
				i++
			} else if i < len(rest) && rest[i].Kind == token.IDENTIFIER {
				name = rest[i].Text
				i++
			} else {
				return nil, newDiagnostic(a.CurrentFile(), line, "bad-defined: defined without a subsequent identifier")
			}
			value := "0"
			if a.macros.IsDefined(name) {
				value = "1"
			}
			result = append(result, token.Token{Kind: token.PREP_NUMBER, Text: value, Line: line})
			continue
		}
		result = append(result, tok)
		i++
	}
	return result, nil
}
