// directive.go dispatches a preprocessing directive (the tokens after
// the leading '#') to the macro table, the conditional stack, or
// include-path resolution, returning a structured DirectiveResult
// rather than emitting -E text directly: this package has no opinion
// on -E formatting, only on directive semantics.
package macrotable

import (
	"fmt"
	"strings"

	"github.com/raymyers/cprep/pkg/expand"
	"github.com/raymyers/cprep/pkg/token"
)

// DirectiveKind names which directive a line carried, or that it
// carried none recognized.
type DirectiveKind int

const (
	DirEmpty DirectiveKind = iota
	DirDefine
	DirUndef
	DirInclude
	DirIf
	DirIfdef
	DirIfndef
	DirElif
	DirElse
	DirEndif
	DirError
	DirWarning
	DirPragma
	DirLine
	DirUnknown
)

// DirectiveResult reports what a directive did, for the core to act
// on (opening an include file, emitting a diagnostic, halting with a
// fatal #error).
type DirectiveResult struct {
	Kind DirectiveKind

	// DirInclude
	IncludePath   string // resolved absolute path; empty if SkipInclude
	SkipInclude   bool   // already processed via #pragma once / include guard
	IncludeHeader string // raw spelling, for diagnostics

	// DirError / DirWarning
	Message string

	// DirLine
	LineNumber int
	LineFile   string
}

// PreprocessDirective processes one directive line (tokens after the
// '#', NEWLINE already stripped). currentFile is used to resolve
// #include relative to the including file and to detect include
// guards on first read.
func (t *Table) PreprocessDirective(tokens []token.Token, currentFile string) (*DirectiveResult, error) {
	if len(tokens) == 0 {
		return &DirectiveResult{Kind: DirEmpty}, nil
	}

	name := tokens[0].Text
	rest := tokens[1:]

	// Conditional directives are tracked even inside an inactive
	// block, so nesting stays correct; everything else is skipped
	// while inactive.
	switch name {
	case "if":
		return &DirectiveResult{Kind: DirIf}, t.processIfDirective(rest)
	case "ifdef":
		return &DirectiveResult{Kind: DirIfdef}, t.processIfdefDirective(rest, false)
	case "ifndef":
		return &DirectiveResult{Kind: DirIfndef}, t.processIfdefDirective(rest, true)
	case "elif":
		return &DirectiveResult{Kind: DirElif}, t.processElifDirective(rest)
	case "else":
		return &DirectiveResult{Kind: DirElse}, t.cond.processElse()
	case "endif":
		return &DirectiveResult{Kind: DirEndif}, t.cond.processEndif()
	}

	if !t.cond.InActiveBlock() {
		return &DirectiveResult{Kind: DirEmpty}, nil
	}

	switch name {
	case "define":
		return &DirectiveResult{Kind: DirDefine}, t.processDefineDirective(rest)
	case "undef":
		if len(rest) == 0 {
			return nil, fmt.Errorf("#undef requires an identifier")
		}
		t.Undefine(rest[0].Text)
		return &DirectiveResult{Kind: DirUndef}, nil
	case "include":
		return t.processIncludeDirective(rest, currentFile)
	case "error":
		return &DirectiveResult{Kind: DirError, Message: textOf(rest)}, fmt.Errorf("#error %s", textOf(rest))
	case "warning":
		return &DirectiveResult{Kind: DirWarning, Message: textOf(rest)}, nil
	case "pragma":
		return t.processPragmaDirective(rest, currentFile), nil
	case "line":
		return t.processLineDirective(rest)
	case "":
		return &DirectiveResult{Kind: DirEmpty}, nil
	default:
		return &DirectiveResult{Kind: DirUnknown}, fmt.Errorf("unknown preprocessing directive #%s", name)
	}
}

func (t *Table) processIfDirective(expr []token.Token) error {
	if !t.cond.InActiveBlock() {
		t.cond.pushInactive()
		return nil
	}
	result, err := t.EvaluateCondition(expr)
	if err != nil {
		return fmt.Errorf("#if: %w", err)
	}
	t.cond.processIf(result)
	return nil
}

func (t *Table) processIfdefDirective(rest []token.Token, negate bool) error {
	if !t.cond.InActiveBlock() {
		t.cond.pushInactive()
		return nil
	}
	if len(rest) == 0 {
		return fmt.Errorf("#ifdef/#ifndef requires an identifier")
	}
	defined := t.IsDefined(rest[0].Text)
	if negate {
		t.cond.processIfndef(defined)
	} else {
		t.cond.processIfdef(defined)
	}
	return nil
}

func (t *Table) processElifDirective(expr []token.Token) error {
	if len(t.cond.stack) == 0 {
		return fmt.Errorf("#elif without matching #if")
	}
	// An #elif guarded by an inactive ancestor must not evaluate its
	// expression (it may reference macros undefined on this branch).
	if !t.cond.parentActive() || t.cond.stack[len(t.cond.stack)-1].anyActive {
		return t.cond.processElif(false)
	}
	result, err := t.EvaluateCondition(expr)
	if err != nil {
		return fmt.Errorf("#elif: %w", err)
	}
	return t.cond.processElif(result)
}

func (t *Table) processDefineDirective(rest []token.Token) error {
	if len(rest) == 0 || rest[0].Kind != token.IDENTIFIER {
		return fmt.Errorf("#define requires an identifier")
	}
	name := rest[0].Text
	body := rest[1:]

	if len(body) > 0 && body[0].Kind == token.PUNCT && body[0].Text == "(" && body[0].Leading == 0 {
		params, variadic, afterParen, err := parseParamList(body)
		if err != nil {
			return fmt.Errorf("#define %s: %w", name, err)
		}
		return t.DefineFunction(name, params, variadic, afterParen)
	}

	return t.Define(name, body)
}

// parseParamList parses "(a, b, ...)" starting at the '(' token,
// returning the parameter names, whether the list ends in a variadic
// marker, and the tokens following the closing ')'.
func parseParamList(tokens []token.Token) (params []string, variadic bool, rest []token.Token, err error) {
	i := 1 // skip '('
	for i < len(tokens) {
		tok := tokens[i]
		if tok.Kind == token.PUNCT && tok.Text == ")" {
			return params, variadic, tokens[i+1:], nil
		}
		if tok.Kind == token.PUNCT && tok.Text == "..." {
			variadic = true
			i++
			continue
		}
		if tok.Kind == token.IDENTIFIER {
			params = append(params, tok.Text)
			i++
			continue
		}
		if tok.Kind == token.PUNCT && tok.Text == "," {
			i++
			continue
		}
		return nil, false, nil, fmt.Errorf("unexpected token %q in parameter list", tok.Text)
	}
	return nil, false, nil, fmt.Errorf("unterminated parameter list")
}

func (t *Table) processIncludeDirective(rest []token.Token, currentFile string) (*DirectiveResult, error) {
	var headerName string

	if len(rest) > 0 && rest[0].Kind == token.HEADER_NAME {
		headerName = rest[0].Text
	} else {
		expander := expand.New(t)
		expanded, _, err := expander.Expand(rest)
		if err != nil {
			return nil, fmt.Errorf("#include: %w", err)
		}
		headerName = textOf(expanded)
	}

	fileName, kind, ok := ParseHeaderName(headerName)
	if !ok {
		return nil, fmt.Errorf("#include: malformed header name %q", headerName)
	}

	t.includes.SetCurrentFile(currentFile)
	path, err := t.includes.Resolve(fileName, kind)
	if err != nil {
		return nil, fmt.Errorf("#include %s: %w", headerName, err)
	}

	if t.includes.IsAlreadyIncluded(path) {
		return &DirectiveResult{Kind: DirInclude, IncludeHeader: headerName, SkipInclude: true}, nil
	}
	if guard, ok := t.guards[path]; ok && t.IsDefined(guard) {
		return &DirectiveResult{Kind: DirInclude, IncludeHeader: headerName, SkipInclude: true}, nil
	}
	if t.includes.IncludeDepth() >= MaxIncludeDepth {
		return nil, fmt.Errorf("#include nested too deeply (> %d levels)", MaxIncludeDepth)
	}

	return &DirectiveResult{Kind: DirInclude, IncludeHeader: headerName, IncludePath: path}, nil
}

// EnterInclude and ExitInclude bracket the core's recursive drive of
// an included file, keeping the circular-include stack and include
// guard registry in sync with the include path pkg/macrotable
// resolved.
func (t *Table) EnterInclude(path string) error { return t.includes.PushFile(path) }
func (t *Table) ExitInclude()                   { t.includes.PopFile() }

// RegisterIncludeGuard records the include-guard macro name detected
// in an included file's first lines, letting a later #include of the
// same file short-circuit without reprocessing it.
func (t *Table) RegisterIncludeGuard(path string, lines []string) {
	if guard := DetectIncludeGuard(lines); guard != "" {
		t.guards[path] = guard
	}
}

// AddUserIncludePath registers a -I directory.
func (t *Table) AddUserIncludePath(path string) { t.includes.AddUserPath(path) }

// AddSystemIncludePath registers a -isystem directory.
func (t *Table) AddSystemIncludePath(path string) { t.includes.AddSystemPath(path) }

func (t *Table) processPragmaDirective(rest []token.Token, currentFile string) *DirectiveResult {
	if len(rest) > 0 && rest[0].Kind == token.IDENTIFIER && rest[0].Text == "once" {
		t.includes.MarkPragmaOnce(currentFile)
		return &DirectiveResult{Kind: DirPragma}
	}
	// Other pragmas pass through unchanged.
	return &DirectiveResult{Kind: DirPragma, Message: textOf(rest)}
}

func (t *Table) processLineDirective(rest []token.Token) (*DirectiveResult, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("#line requires a line number")
	}
	n, err := parseNumberLiteral(rest[0].Text)
	if err != nil {
		return nil, fmt.Errorf("#line: %w", err)
	}
	result := &DirectiveResult{Kind: DirLine, LineNumber: int(n)}
	if len(rest) > 1 && (rest[1].Kind == token.STRING || rest[1].Kind == token.PREP_STRING) {
		result.LineFile = strings.Trim(rest[1].Text, `"`)
	}
	return result, nil
}

func textOf(tokens []token.Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Text)
	}
	return sb.String()
}
