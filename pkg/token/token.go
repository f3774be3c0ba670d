// Package token defines the shared token vocabulary consumed by every
// stage of the preprocessing pipeline (tokenizer, expander, line
// assembler, lookahead buffer, post-processor).
package token

// Kind is the tag on a Token. Punctuators carry their own lexeme in
// Text rather than getting one Kind per spelling, keeping a single
// PUNCT bucket instead of one Kind per possible punctuator spelling.
// Reserved words get one Kind apiece.
type Kind int

const (
	END     Kind = iota // end of translation unit
	NEWLINE             // end of one logical line
	IDENTIFIER
	NUMBER       // converted numeric literal (post PREP_NUMBER)
	STRING       // converted, possibly concatenated, string literal
	CHAR         // converted character constant
	PUNCT        // any punctuator; Text carries the lexeme
	PREP_NUMBER  // raw pp-number, before conversion
	PREP_CHAR    // raw char-constant lexeme, before conversion
	PREP_STRING  // raw string lexeme, before conversion
	HEADER_NAME  // <file> or "file" after #include

	keywordBegin
	AUTO
	BREAK
	CASE
	CHAR_KW
	CONST
	CONTINUE
	DEFAULT
	DO
	DOUBLE
	ELSE
	ENUM
	EXTERN
	FLOAT
	FOR
	GOTO
	IF
	INLINE
	INT
	LONG
	REGISTER
	RESTRICT
	RETURN
	SHORT
	SIGNED
	SIZEOF
	STATIC
	STRUCT
	SWITCH
	TYPEDEF
	UNION
	UNSIGNED
	VOID
	VOLATILE
	WHILE
	keywordEnd
)

var names = map[Kind]string{
	END:         "END",
	NEWLINE:     "NEWLINE",
	IDENTIFIER:  "IDENTIFIER",
	NUMBER:      "NUMBER",
	STRING:      "STRING",
	CHAR:        "CHAR",
	PUNCT:       "PUNCT",
	PREP_NUMBER: "PREP_NUMBER",
	PREP_CHAR:   "PREP_CHAR",
	PREP_STRING: "PREP_STRING",
	HEADER_NAME: "HEADER_NAME",
	AUTO:        "auto",
	BREAK:       "break",
	CASE:        "case",
	CHAR_KW:     "char",
	CONST:       "const",
	CONTINUE:    "continue",
	DEFAULT:     "default",
	DO:          "do",
	DOUBLE:      "double",
	ELSE:        "else",
	ENUM:        "enum",
	EXTERN:      "extern",
	FLOAT:       "float",
	FOR:         "for",
	GOTO:        "goto",
	IF:          "if",
	INLINE:      "inline",
	INT:         "int",
	LONG:        "long",
	REGISTER:    "register",
	RESTRICT:    "restrict",
	RETURN:      "return",
	SHORT:       "short",
	SIGNED:      "signed",
	SIZEOF:      "sizeof",
	STATIC:      "static",
	STRUCT:      "struct",
	SWITCH:      "switch",
	TYPEDEF:     "typedef",
	UNION:       "union",
	UNSIGNED:    "unsigned",
	VOID:        "void",
	VOLATILE:    "volatile",
	WHILE:       "while",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsKeyword reports whether k names a reserved word.
func (k Kind) IsKeyword() bool {
	return k > keywordBegin && k < keywordEnd
}

// keywords maps a reserved-word spelling to its Kind, used by the
// tokenizer to reclassify an IDENTIFIER-shaped lexeme.
var keywords = map[string]Kind{
	"auto":     AUTO,
	"break":    BREAK,
	"case":     CASE,
	"char":     CHAR_KW,
	"const":    CONST,
	"continue": CONTINUE,
	"default":  DEFAULT,
	"do":       DO,
	"double":   DOUBLE,
	"else":     ELSE,
	"enum":     ENUM,
	"extern":   EXTERN,
	"float":    FLOAT,
	"for":      FOR,
	"goto":     GOTO,
	"if":       IF,
	"inline":   INLINE,
	"int":      INT,
	"long":     LONG,
	"register": REGISTER,
	"restrict": RESTRICT,
	"return":   RETURN,
	"short":    SHORT,
	"signed":   SIGNED,
	"sizeof":   SIZEOF,
	"static":   STATIC,
	"struct":   STRUCT,
	"switch":   SWITCH,
	"typedef":  TYPEDEF,
	"union":    UNION,
	"unsigned": UNSIGNED,
	"void":     VOID,
	"volatile": VOLATILE,
	"while":    WHILE,
}

// LookupKeyword returns the reserved-word Kind for name, or
// (IDENTIFIER, false) if name is not a keyword.
func LookupKeyword(name string) (Kind, bool) {
	k, ok := keywords[name]
	return k, ok
}

// NumValue is the numeric payload of a NUMBER token, filled in only
// after PREP_NUMBER conversion.
type NumValue struct {
	IsFloat    bool
	IsUnsigned bool
	LongCount  int // 0, 1 (L/l) or 2 (LL/ll)
	Int64      int64
	Float64    float64
}

// Token is a single preprocessing/parsing token flowing through the
// pipeline.
type Token struct {
	Kind Kind
	Text string // interned payload: identifier name or literal body
	Num  NumValue

	Line    int // logical line number, for diagnostics only
	Leading int // leading-whitespace column offset, preserved for -E

	Expandable bool // true for IDENTIFIER-kind tokens that could name a macro
	NoExpand   bool // hygiene flag: never expand this occurrence (disable_expand)
}

// New builds a Token of the given Kind and Text, setting Expandable
// for identifiers automatically.
func New(kind Kind, text string, line int) Token {
	return Token{Kind: kind, Text: text, Line: line, Expandable: kind == IDENTIFIER}
}

// List is the dynamic ordered sequence of Tokens: used both as the
// logical line under assembly and as the expander's scratch buffer.
type List struct {
	toks []Token
}

// NewList returns an empty List, optionally pre-sized.
func NewList(capHint int) *List {
	return &List{toks: make([]Token, 0, capHint)}
}

// FromSlice wraps an existing slice without copying.
func FromSlice(toks []Token) *List {
	return &List{toks: toks}
}

func (l *List) Append(t Token)      { l.toks = append(l.toks, t) }
func (l *List) Len() int            { return len(l.toks) }
func (l *List) At(i int) Token      { return l.toks[i] }
func (l *List) Set(i int, t Token)  { l.toks[i] = t }
func (l *List) Clear()              { l.toks = l.toks[:0] }
func (l *List) Slice() []Token      { return l.toks }

// PopBack removes and returns the last token. Panics on an empty list.
func (l *List) PopBack() Token {
	n := len(l.toks)
	t := l.toks[n-1]
	l.toks = l.toks[:n-1]
	return t
}

// Truncate shrinks the list to length n.
func (l *List) Truncate(n int) { l.toks = l.toks[:n] }

// InsertSlice splices repl into the list at [from:to), replacing that
// range. Used by the expander to substitute a macro invocation with
// its replacement list in place.
func (l *List) InsertSlice(from, to int, repl []Token) {
	tail := append([]Token{}, l.toks[to:]...)
	l.toks = append(l.toks[:from], repl...)
	l.toks = append(l.toks, tail...)
}

// Append multiple tokens at once.
func (l *List) AppendAll(ts []Token) {
	l.toks = append(l.toks, ts...)
}
