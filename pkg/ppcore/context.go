// context.go wires the tokenizer, expander, macro table, assembler,
// and lookahead deque into one usable preprocessing run: a Context
// owns all of it and exposes InitPreprocessing / Preprocess /
// ClearPreprocessing as the process-wide lifecycle.
package ppcore

import (
	"bytes"
	"io"
	"os"

	"github.com/raymyers/cprep/pkg/lineio"
	"github.com/raymyers/cprep/pkg/macrotable"
)

// Context holds everything one preprocessing run needs: the macro
// table, the line assembler, and the parser-facing lookahead. A fresh
// Context corresponds to 's "process-wide singleton" — the
// driver constructs exactly one per translation unit and discards it
// when done. The one piece of state shared across runs is the
// package-level Interner, which ClearPreprocessing resets.
type Context struct {
	Macros     *macrotable.Table
	Assembler  *Assembler
	Lookahead  *Lookahead
	Diagnostic io.Writer
}

// Options configures a Context at construction time.
type Options struct {
	// Filename attributed to Source (__FILE__, #include resolution,
	// diagnostics). Required.
	Filename string
	// Source supplies the translation unit's text. If nil, Filename is
	// opened from disk.
	Source io.Reader
	// UserIncludePaths, then SystemIncludePaths, are searched in order
	// for both "quoted" and <angle-bracket> #include targets; a quoted
	// include first searches the including file's own directory.
	UserIncludePaths   []string
	SystemIncludePaths []string
	// Defines are "NAME" or "NAME=VALUE" command-line-style macro
	// definitions applied before the first line is read.
	Defines []string
	// Undefines are names stripped of any built-in or command-line
	// definition before the first line is read.
	Undefines []string
	// Diagnostics receives #warning text and other non-fatal notices.
	// Defaults to os.Stderr.
	Diagnostics io.Writer
	// Opener resolves #include paths to readable content. Defaults to
	// os.Open.
	Opener FileOpener
	// LineMarkers emits GNU-style `# <line> "<file>"` markers in -E
	// output wherever the emitted line doesn't immediately follow the
	// previous one in the same file.
	LineMarkers bool
}

// osOpener is the default FileOpener, backed by the real filesystem.
func osOpener(path string) (io.ReadCloser, error) { return os.Open(path) }

// InitPreprocessing constructs a fresh Context ready to produce lines
// via Assembler.Next or tokens via Lookahead.Next/Peek/Consume.
func InitPreprocessing(opts Options) (*Context, error) {
	diagnostics := opts.Diagnostics
	if diagnostics == nil {
		diagnostics = os.Stderr
	}
	opener := opts.Opener
	if opener == nil {
		opener = osOpener
	}

	var src lineio.Source
	if opts.Source != nil {
		src = lineio.NewFileSource(opts.Source)
	} else {
		f, err := os.Open(opts.Filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		src = lineio.NewFileSource(bytes.NewReader(data))
	}

	macros := macrotable.New()
	for _, p := range opts.UserIncludePaths {
		macros.AddUserIncludePath(p)
	}
	for _, p := range opts.SystemIncludePaths {
		macros.AddSystemIncludePath(p)
	}
	if err := macros.ApplyCmdlineDefines(opts.Defines, opts.Undefines); err != nil {
		return nil, err
	}

	asm := NewAssembler(lineio.NewChain(src), macros, opts.Filename)
	macros.SetCurrentFileFunc(asm.CurrentFile)

	la := NewLookahead(asm, macros, opener, diagnostics)
	la.SetLineMarkers(opts.LineMarkers)

	return &Context{
		Macros:     macros,
		Assembler:  asm,
		Lookahead:  la,
		Diagnostic: diagnostics,
	}, nil
}

// ClearPreprocessing releases a Context's resources and resets the
// process-wide string interner, so the
// next InitPreprocessing call starts with a clean table rather than
// accumulating every translation unit's text for the life of the
// process.
func (c *Context) ClearPreprocessing() {
	Interner.Clear()
}

// Preprocess runs the `-E` driver end to end: assemble, expand, and
// emit every line of the translation unit to output, returning once
// the balanced-conditional check passes (or failing with the first
// error encountered).
func (c *Context) Preprocess(output io.Writer) error {
	if err := c.Lookahead.Preprocess(output); err != nil {
		return err
	}
	return c.Macros.CheckBalanced()
}
