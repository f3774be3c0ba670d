// emit.go implements the `-E` text-output mode: drain the lookahead
// deque to completion, writing each token's preserved leading
// whitespace and literal spelling rather than feeding a parser.
package ppcore

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/cprep/pkg/token"
)

// Preprocess writes the fully macro-expanded, but otherwise
// unconverted, token stream to output — the `-E` driver entry point.
func (la *Lookahead) Preprocess(output io.Writer) error {
	la.SetPreprocessOnly(true)
	for {
		tok, err := la.Next()
		if err != nil {
			return err
		}
		if tok.Kind == token.END {
			return nil
		}
		if tok.Kind == token.NEWLINE {
			fmt.Fprintln(output)
			continue
		}
		if tok.Leading > 0 {
			fmt.Fprint(output, strings.Repeat(" ", tok.Leading))
		}
		fmt.Fprint(output, tok.Text)
	}
}
