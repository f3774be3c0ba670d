package ppcore

import (
	"github.com/raymyers/cprep/pkg/expand"
	"github.com/raymyers/cprep/pkg/macrotable"
	"github.com/raymyers/cprep/pkg/token"
)

// MacroTable is the narrow contract the core needs from macro storage
// and directive evaluation; it never reaches into macro storage
// directly. *macrotable.Table satisfies it.
type MacroTable interface {
	expand.Lookup
	IsDefined(name string) bool
	InActiveBlock() bool
	PreprocessDirective(tokens []token.Token, currentFile string) (*macrotable.DirectiveResult, error)
	CheckBalanced() error

	EnterInclude(path string) error
	ExitInclude()
	RegisterIncludeGuard(path string, lines []string)
}
