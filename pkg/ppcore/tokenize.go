// Package ppcore implements the line-local tokenizer, the macro
// expander wiring, the line assembler that stitches function-like
// invocations and directives across physical-line boundaries, the
// parser-facing lookahead buffer, and the post-processor that turns
// PREP_* lexemes into final tokens.
//
// tokenize.go is a per-logical-line tokenizer: the line source
// (pkg/lineio) already resolved backslash-newline splices before a
// line reaches here, so this tokenizer never needs to see a
// continuation itself.
package ppcore

import (
	"fmt"
	"strings"

	"github.com/raymyers/cprep/pkg/intern"
	"github.com/raymyers/cprep/pkg/token"
)

// Interner canonicalizes token text across a translation unit: the
// same identifier or punctuator spelling is seen thousands of times
// (every "(", every "int", every repeated macro name), and storing one
// copy rather than re-slicing the source line on each sighting is the
// string interner's whole job. Context.ClearPreprocessing resets it
// between translation units.
var Interner = intern.New()

// Tokenizer turns one logical source line into a token.List, tracking
// leading-whitespace columns so later stages can tell adjacency
// (needed for function-like macro detection) and restore spacing in
// -E output.
type Tokenizer struct {
	line string
	pos  int
	ln   int
}

// NewTokenizer prepares line for tokenizing; ln is its logical line
// number, carried onto every produced token for diagnostics.
func NewTokenizer(line string, ln int) *Tokenizer {
	return &Tokenizer{line: line, ln: ln}
}

// TokenizeLine is the convenience entry point most callers want: scan
// the whole line into a token.List (not including a trailing NEWLINE;
// the line assembler appends that itself once it has decided the line
// is complete).
func TokenizeLine(line string, ln int) (*token.List, error) {
	tz := NewTokenizer(line, ln)
	list := token.NewList(8)
	for {
		tok, atEnd, err := tz.Next()
		if err != nil {
			return nil, err
		}
		if atEnd {
			return list, nil
		}
		list.Append(tok)
	}
}

// Next returns the next token, or (zero, true, nil) at end of line —
// the "returns END at end-of-buffer" contract of , here
// signaled by the bool since a logical line never itself contains an
// END token (END belongs to the translation unit, not the line).
func (tz *Tokenizer) Next() (token.Token, bool, error) {
	leading := tz.skipWhitespaceAndComments()
	if tz.pos >= len(tz.line) {
		return token.Token{}, true, nil
	}

	c := tz.line[tz.pos]
	start := tz.pos

	switch {
	case c == '"':
		return tz.scanDelimited('"', token.PREP_STRING, leading)
	case c == '\'':
		return tz.scanDelimited('\'', token.PREP_CHAR, leading)
	case isDigit(c) || (c == '.' && tz.pos+1 < len(tz.line) && isDigit(tz.line[tz.pos+1])):
		return tz.scanNumber(leading), false, nil
	case isIdentStart(c):
		return tz.scanIdentifier(leading), false, nil
	default:
		tok, err := tz.scanPunctuator(leading)
		_ = start
		return tok, false, err
	}
}

// skipWhitespaceAndComments advances past spaces/tabs and // and /*
// */ comments (replaced with a single space per translation phase 3),
// returning how many columns of horizontal space preceded the next
// token.
func (tz *Tokenizer) skipWhitespaceAndComments() int {
	leading := 0
	for tz.pos < len(tz.line) {
		c := tz.line[tz.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v' {
			tz.pos++
			leading++
			continue
		}
		if c == '/' && tz.pos+1 < len(tz.line) && tz.line[tz.pos+1] == '/' {
			tz.pos = len(tz.line)
			leading++
			continue
		}
		if c == '/' && tz.pos+1 < len(tz.line) && tz.line[tz.pos+1] == '*' {
			end := strings.Index(tz.line[tz.pos+2:], "*/")
			if end < 0 {
				tz.pos = len(tz.line)
			} else {
				tz.pos += 2 + end + 2
			}
			leading++
			continue
		}
		break
	}
	return leading
}

func (tz *Tokenizer) scanDelimited(quote byte, kind token.Kind, leading int) (token.Token, bool, error) {
	start := tz.pos
	tz.pos++
	for tz.pos < len(tz.line) {
		c := tz.line[tz.pos]
		if c == quote {
			tz.pos++
			break
		}
		if c == '\\' && tz.pos+1 < len(tz.line) {
			tz.pos += 2
			continue
		}
		tz.pos++
	}
	text := tz.line[start:tz.pos]
	if len(text) < 2 || text[len(text)-1] != quote {
		return token.Token{}, false, fmt.Errorf("line %d: unterminated literal: %s", tz.ln, text)
	}
	return token.Token{Kind: kind, Text: text, Line: tz.ln, Leading: leading}, false, nil
}

func (tz *Tokenizer) scanNumber(leading int) token.Token {
	start := tz.pos
	for tz.pos < len(tz.line) {
		c := tz.line[tz.pos]
		if (c == 'e' || c == 'E' || c == 'p' || c == 'P') && tz.pos+1 < len(tz.line) {
			next := tz.line[tz.pos+1]
			if next == '+' || next == '-' {
				tz.pos += 2
				continue
			}
		}
		if isDigit(c) || isIdentCont(c) || c == '.' {
			tz.pos++
			continue
		}
		break
	}
	return token.Token{Kind: token.PREP_NUMBER, Text: tz.line[start:tz.pos], Line: tz.ln, Leading: leading}
}

func (tz *Tokenizer) scanIdentifier(leading int) token.Token {
	start := tz.pos
	for tz.pos < len(tz.line) && isIdentCont(tz.line[tz.pos]) {
		tz.pos++
	}
	text := Interner.Intern(tz.line[start:tz.pos])
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Text: text, Line: tz.ln, Leading: leading}
	}
	return token.Token{Kind: token.IDENTIFIER, Text: text, Line: tz.ln, Leading: leading, Expandable: true}
}

var threeCharPuncts = map[string]bool{"<<=": true, ">>=": true, "...": true}
var twoCharPuncts = map[string]bool{
	"->": true, "++": true, "--": true, "<<": true, ">>": true,
	"<=": true, ">=": true, "==": true, "!=": true, "&&": true, "||": true,
	"*=": true, "/=": true, "%=": true, "+=": true, "-=": true, "&=": true,
	"^=": true, "|=": true, "##": true,
}

func (tz *Tokenizer) scanPunctuator(leading int) (token.Token, error) {
	remaining := tz.line[tz.pos:]
	if len(remaining) >= 3 && threeCharPuncts[remaining[:3]] {
		tz.pos += 3
		return token.Token{Kind: token.PUNCT, Text: Interner.Intern(remaining[:3]), Line: tz.ln, Leading: leading}, nil
	}
	if len(remaining) >= 2 && twoCharPuncts[remaining[:2]] {
		tz.pos += 2
		return token.Token{Kind: token.PUNCT, Text: Interner.Intern(remaining[:2]), Line: tz.ln, Leading: leading}, nil
	}
	c := remaining[0]
	tz.pos++
	return token.Token{Kind: token.PUNCT, Text: Interner.Intern(string(c)), Line: tz.ln, Leading: leading}, nil
}

// ScanHeaderName recognizes the `<...>` or `"..."` spelling that
// follows `#include`, a context where a bare tokenizer would mis-split
// `<stdio.h>` into PUNCT '<', IDENTIFIER 'stdio', PUNCT '.', ... The
// line assembler calls this instead of the ordinary Next loop once it
// has recognized an `include` directive keyword.
func ScanHeaderName(rest string, ln int) (token.Token, int, bool) {
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	if i >= len(rest) {
		return token.Token{}, i, false
	}
	leading := i
	if rest[i] == '<' {
		start := i
		i++
		for i < len(rest) && rest[i] != '>' {
			i++
		}
		if i >= len(rest) {
			return token.Token{}, i, false
		}
		i++
		return token.Token{Kind: token.HEADER_NAME, Text: rest[start:i], Line: ln, Leading: leading}, i, true
	}
	if rest[i] == '"' {
		start := i
		i++
		for i < len(rest) && rest[i] != '"' {
			i++
		}
		if i >= len(rest) {
			return token.Token{}, i, false
		}
		i++
		return token.Token{Kind: token.HEADER_NAME, Text: rest[start:i], Line: ln, Leading: leading}, i, true
	}
	return token.Token{}, i, false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
