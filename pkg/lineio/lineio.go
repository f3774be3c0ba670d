// Package lineio reads physical file I/O and line splicing: a line
// source that yields one logical source line at a time, with
// backslash-newline splices already resolved. The rest of the
// preprocessing core only ever sees "cursor at end" versus
// end-of-line, never these internals.
package lineio

import (
	"bufio"
	"io"
	"strings"
)

// Source yields one logical line at a time. Returns ("", false) at
// end of input.
type Source interface {
	NextLine() (string, bool)
}

// FileSource reads logical lines out of an io.Reader, joining any
// physical line ending in a backslash with the line that follows it,
// exactly as C's translation phase 2 requires.
type FileSource struct {
	r    *bufio.Reader
	done bool
}

// NewFileSource wraps r for logical-line reading.
func NewFileSource(r io.Reader) *FileSource {
	return &FileSource{r: bufio.NewReader(r)}
}

// NextLine implements Source.
func (f *FileSource) NextLine() (string, bool) {
	if f.done {
		return "", false
	}

	var b strings.Builder
	sawAny := false
	for {
		line, err := f.r.ReadString('\n')
		if len(line) > 0 {
			sawAny = true
		}
		trimmed := strings.TrimSuffix(line, "\n")
		trimmed = strings.TrimSuffix(trimmed, "\r")

		if err != nil {
			f.done = true
		}

		if strings.HasSuffix(trimmed, "\\") {
			b.WriteString(trimmed[:len(trimmed)-1])
			if err == nil {
				continue
			}
			break
		}

		b.WriteString(trimmed)
		break
	}

	if !sawAny {
		return "", false
	}
	return b.String(), true
}

// SliceSource serves pre-split logical lines from memory — used by
// tests and by Lookahead.InjectLine to push a synthetic
// source line through the pipeline without touching real file I/O.
type SliceSource struct {
	lines []string
	pos   int
}

// NewSliceSource wraps an already-split slice of logical lines.
func NewSliceSource(lines []string) *SliceSource {
	return &SliceSource{lines: lines}
}

// NextLine implements Source.
func (s *SliceSource) NextLine() (string, bool) {
	if s.pos >= len(s.lines) {
		return "", false
	}
	l := s.lines[s.pos]
	s.pos++
	return l, true
}

// Chain serves lines from a sequence of Sources in order, falling
// through to the next one once the current is exhausted. This backs
// inject_line: an injected line is prepended ahead of the real source.
type Chain struct {
	sources []Source
}

// NewChain returns a Source that serves each of sources in turn.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// NextLine implements Source.
func (c *Chain) NextLine() (string, bool) {
	for len(c.sources) > 0 {
		if line, ok := c.sources[0].NextLine(); ok {
			return line, true
		}
		c.sources = c.sources[1:]
	}
	return "", false
}

// Prepend pushes src to the front of the chain, ahead of whatever is
// currently being read.
func (c *Chain) Prepend(src Source) {
	c.sources = append([]Source{src}, c.sources...)
}
