// lookahead.go is the only surface a parser is meant to touch. It
// wraps a deque of already-expanded, already-postprocessed tokens,
// refilling itself from the assembler on demand, and is also where
// #include is actually carried out — opening the resolved file and
// splicing its lines ahead of the including file's remaining input,
// exactly the way a nested preprocessing run would, without the
// parser ever seeing a seam.
package ppcore

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/cprep/pkg/lineio"
	"github.com/raymyers/cprep/pkg/macrotable"
	"github.com/raymyers/cprep/pkg/token"
)

// FileOpener opens a resolved #include path for reading. Options.Opener
// can replace the default filesystem-backed one.
type FileOpener func(path string) (io.ReadCloser, error)

// Lookahead is the parser-facing deque: a dynamic array used as a
// deque, where index 0 is "already consumed up to" and growth happens
// at the back.
type Lookahead struct {
	buf            *token.List
	pos            int
	asm            *Assembler
	macros         MacroTable
	opener         FileOpener
	preprocessOnly bool
	diagnostics    io.Writer

	lineMarkers bool
	markerFile  string
	markerLine  int
}

// NewLookahead builds a Lookahead over asm, using opener to resolve
// #include file contents (a FileOpener backed by os.Open is the
// normal case; InitPreprocessing wires that in when Options.Opener is
// nil).
func NewLookahead(asm *Assembler, macros MacroTable, opener FileOpener, diagnostics io.Writer) *Lookahead {
	return &Lookahead{
		buf:         token.NewList(64),
		asm:         asm,
		macros:      macros,
		opener:      opener,
		diagnostics: diagnostics,
	}
}

// SetPreprocessOnly toggles -E mode: PREP_* conversion and adjacent
// string-literal merging are both suppressed so the raw spelling
// survives into the output.
func (la *Lookahead) SetPreprocessOnly(enabled bool) { la.preprocessOnly = enabled }

// SetLineMarkers toggles GNU-style `# <line> "<file>"` marker emission
// ahead of any line whose file or line number doesn't immediately
// follow the previous one. Only takes effect in -E mode; markers are a
// text-output concept and have no meaning on the parser-facing token
// stream.
func (la *Lookahead) SetLineMarkers(enabled bool) { la.lineMarkers = enabled }

// lineMarkerTokens builds the synthetic `# line "file"` token sequence
// for a jump into file at line, appended directly to the deque (never
// routed through addToLookahead's PREP_* conversion).
func lineMarkerTokens(file string, line int) []token.Token {
	return []token.Token{
		{Kind: token.PUNCT, Text: "#"},
		{Kind: token.PUNCT, Text: fmt.Sprintf("%d", line), Leading: 1},
		{Kind: token.PUNCT, Text: fmt.Sprintf("%q", file), Leading: 1},
		{Kind: token.NEWLINE},
	}
}

// Next consumes and returns the current token, advancing the deque.
func (la *Lookahead) Next() (token.Token, error) {
	tok, err := la.Peek()
	if err != nil {
		return token.Token{}, err
	}
	la.pos++
	la.compact()
	return tok, nil
}

// Peek returns the current token without consuming it.
func (la *Lookahead) Peek() (token.Token, error) {
	return la.PeekAt(0)
}

// PeekAt returns the token n positions ahead of the current one,
// pulling more input as needed.
func (la *Lookahead) PeekAt(n int) (token.Token, error) {
	if err := la.fill(n); err != nil {
		return token.Token{}, err
	}
	idx := la.pos + n
	if idx >= la.buf.Len() {
		return token.Token{Kind: token.END}, nil
	}
	return la.buf.At(idx), nil
}

// Consume requires the current token to have the given kind, returns
// it, and advances. A mismatch is always fatal.
func (la *Lookahead) Consume(kind token.Kind) (token.Token, error) {
	tok, err := la.Peek()
	if err != nil {
		return token.Token{}, err
	}
	if tok.Kind != kind {
		return token.Token{}, newDiagnostic("", tok.Line, "expected %s, got %s %q", kind, tok.Kind, tok.Text)
	}
	return la.Next()
}

// InjectLine feeds a synthetic source line into the pipeline ahead of
// whatever remains of the real input.
func (la *Lookahead) InjectLine(raw string) {
	la.asm.InjectLine(raw)
}

// compact drops consumed tokens from the front of the buffer once
// nothing can reference them anymore, so a long-running preprocess
// doesn't grow the deque without bound.
func (la *Lookahead) compact() {
	const keepaliveMargin = 1 // keep one token so position 0 is well-defined
	if la.pos > keepaliveMargin {
		drop := la.pos - keepaliveMargin
		la.buf.InsertSlice(0, drop, nil)
		la.pos -= drop
	}
}

// emitLineMarkerIfNeeded appends a `# line "file"` marker to the deque
// when the line about to be appended doesn't immediately continue from
// the previously emitted one, either because it came from a different
// file (an #include push or pop) or because directive/conditional
// lines in between were skipped without producing output of their
// own.
func (la *Lookahead) emitLineMarkerIfNeeded(file string, line int) {
	defer func() { la.markerFile, la.markerLine = file, line }()
	if la.markerFile == "" {
		la.buf.AppendAll(lineMarkerTokens(file, line))
		return
	}
	if file != la.markerFile || line != la.markerLine+1 {
		la.buf.AppendAll(lineMarkerTokens(file, line))
	}
}

// fill ensures at least n+1 tokens are available from the current
// position, pulling and processing Lines from the assembler (and
// carrying out #include, #pragma once, and warning side effects along
// the way) until enough tokens exist or input is exhausted, past which
// it pads with END rather than ever returning a short read.
func (la *Lookahead) fill(n int) error {
	for la.buf.Len()-la.pos <= n {
		line, err := la.asm.Next()
		if err != nil {
			return err
		}

		switch line.Kind {
		case LineEOF:
			la.buf.Append(token.Token{Kind: token.END})

		case LineBlank:
			// nothing to add; loop pulls the next line

		case LineDirective:
			if err := la.handleDirective(line.Directive); err != nil {
				return err
			}

		case LineCode:
			if la.preprocessOnly && la.lineMarkers {
				la.emitLineMarkerIfNeeded(line.File, line.Number)
			}
			for _, t := range line.Tokens {
				if err := addToLookahead(la.buf, t, la.preprocessOnly); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (la *Lookahead) handleDirective(d *macrotable.DirectiveResult) error {
	switch d.Kind {
	case macrotable.DirInclude:
		if d.SkipInclude || d.IncludePath == "" {
			return nil
		}
		return la.enterInclude(d.IncludePath)
	case macrotable.DirWarning:
		if la.diagnostics != nil {
			fmt.Fprintf(la.diagnostics, "warning: %s\n", d.Message)
		}
	case macrotable.DirPragma:
		if la.preprocessOnly && d.Message != "" {
			la.buf.AppendAll(tokenizePassthroughPragma(d.Message))
		}
	}
	return nil
}

func tokenizePassthroughPragma(text string) []token.Token {
	toks := []token.Token{{Kind: token.PUNCT, Text: "#"}, {Kind: token.IDENTIFIER, Text: "pragma"}}
	for _, w := range strings.Fields(text) {
		toks = append(toks, token.Token{Kind: token.IDENTIFIER, Text: w, Leading: 1})
	}
	toks = append(toks, token.Token{Kind: token.NEWLINE})
	return toks
}

// includeFrameSource wraps an included file's line source so that,
// once it drains, the include-stack and current-file bookkeeping pop
// back to the including file automatically.
type includeFrameSource struct {
	inner  lineio.Source
	onExit func()
	exited bool
}

func (s *includeFrameSource) NextLine() (string, bool) {
	line, ok := s.inner.NextLine()
	if ok {
		return line, true
	}
	if !s.exited {
		s.exited = true
		s.onExit()
	}
	return "", false
}

func (la *Lookahead) enterInclude(path string) error {
	if la.opener == nil {
		return fmt.Errorf("#include %s: no file opener configured", path)
	}
	if err := la.macros.EnterInclude(path); err != nil {
		return err
	}

	rc, err := la.opener(path)
	if err != nil {
		la.macros.ExitInclude()
		return err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		la.macros.ExitInclude()
		return err
	}

	la.macros.RegisterIncludeGuard(path, strings.Split(string(data), "\n"))
	la.asm.PushFile(path)

	frame := &includeFrameSource{
		inner: lineio.NewFileSource(bytes.NewReader(data)),
		onExit: func() {
			la.macros.ExitInclude()
			la.asm.PopFile()
		},
	}
	la.asm.lines.Prepend(frame)
	return nil
}
