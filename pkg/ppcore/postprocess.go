// postprocess.go converts the raw PREP_NUMBER/PREP_CHAR/PREP_STRING
// lexemes that survive macro expansion into final NUMBER/CHAR/STRING
// tokens, merges adjacent string-literal tokens, and appends the
// result to the lookahead deque. Delegates the literal conversions
// themselves to pkg/numconv; the merge happens at append time since
// the assembled token stream and the parser-facing stream are kept
// separate.
package ppcore

import (
	"fmt"

	"github.com/raymyers/cprep/pkg/numconv"
	"github.com/raymyers/cprep/pkg/token"
)

// addToLookahead appends one already-expanded token to the deque,
// performing PREP_* conversion and back-to-back string concatenation.
// preprocessOnly suppresses both behaviors, since -E output must
// reproduce the source's literal spelling and separate string
// literals exactly as written.
func addToLookahead(buf *token.List, tok token.Token, preprocessOnly bool) error {
	if preprocessOnly {
		buf.Append(tok)
		return nil
	}

	switch tok.Kind {
	case token.PREP_NUMBER:
		converted, err := numconv.Number(tok.Text, tok.Line)
		if err != nil {
			return fmt.Errorf("line %d: %w", tok.Line, err)
		}
		buf.Append(converted)
		return nil
	case token.PREP_CHAR:
		converted, err := numconv.Char(tok.Text, tok.Line)
		if err != nil {
			return fmt.Errorf("line %d: %w", tok.Line, err)
		}
		buf.Append(converted)
		return nil
	case token.PREP_STRING:
		converted, err := numconv.String(tok.Text, tok.Line)
		if err != nil {
			return fmt.Errorf("line %d: %w", tok.Line, err)
		}
		mergeOrAppendString(buf, converted)
		return nil
	case token.NEWLINE:
		return nil
	default:
		buf.Append(tok)
		return nil
	}
}

// mergeOrAppendString implements adjacent string-literal concatenation
// (C99 6.4.5p5): "a" "b" at the deque's back becomes a single token
// "ab" rather than two.
func mergeOrAppendString(buf *token.List, s token.Token) {
	if buf.Len() > 0 {
		last := buf.At(buf.Len() - 1)
		if last.Kind == token.STRING {
			buf.Set(buf.Len()-1, token.Token{
				Kind: token.STRING,
				Text: last.Text + s.Text,
				Line: last.Line,
			})
			return
		}
	}
	buf.Append(s)
}
