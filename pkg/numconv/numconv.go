// Package numconv converts PREP_NUMBER/PREP_CHAR/PREP_STRING lexemes
// into final NUMBER/CHAR/STRING token values: pp-number base and
// suffix parsing (digit | . digit | pp-number digit | pp-number
// nondigit | pp-number [eEpP][+-]) and escape-sequence decoding,
// operating on the whole already-scanned lexeme rather than a cursor
// into a byte stream.
package numconv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raymyers/cprep/pkg/token"
)

// Number converts a PREP_NUMBER lexeme into a NUMBER token, determining
// integer vs float, signedness and width per the C lexical rules.
func Number(lexeme string, line int) (token.Token, error) {
	if lexeme == "" {
		return token.Token{}, fmt.Errorf("numconv: empty pp-number")
	}

	isFloat := false
	if strings.ContainsAny(lexeme, ".") {
		isFloat = true
	}
	// A trailing exponent marker (not a prefix like 0x..p0) also
	// signals a float, and hex floating constants use 'p'/'P'.
	body := lexeme
	isHex := strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X")
	if isHex {
		if strings.ContainsAny(body, "pP") {
			isFloat = true
		}
	} else if strings.ContainsAny(body, "eE") {
		// Only an exponent if it's not just a hex digit context (non-hex
		// branch, so e/E here is always an exponent marker).
		isFloat = true
	}

	if isFloat {
		return convertFloat(lexeme, line)
	}
	return convertInt(lexeme, line)
}

func convertInt(lexeme string, line int) (token.Token, error) {
	body := lexeme
	unsigned := false
	longCount := 0

	for len(body) > 0 {
		c := body[len(body)-1]
		switch c {
		case 'u', 'U':
			unsigned = true
			body = body[:len(body)-1]
		case 'l', 'L':
			longCount++
			body = body[:len(body)-1]
		default:
			goto suffixesDone
		}
	}
suffixesDone:

	base := 10
	digits := body
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		base = 16
		digits = body[2:]
	case strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B"):
		base = 2
		digits = body[2:]
	case strings.HasPrefix(body, "0") && len(body) > 1:
		base = 8
		digits = body[1:]
	}

	if digits == "" {
		digits = "0"
	}

	uval, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return token.Token{}, fmt.Errorf("numconv: invalid integer constant %q: %w", lexeme, err)
	}

	if longCount > 2 {
		longCount = 2
	}

	t := token.New(token.NUMBER, lexeme, line)
	t.Num = token.NumValue{
		IsUnsigned: unsigned,
		LongCount:  longCount,
		Int64:      int64(uval),
	}
	return t, nil
}

func convertFloat(lexeme string, line int) (token.Token, error) {
	body := strings.TrimRight(lexeme, "fFlL")
	val, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return token.Token{}, fmt.Errorf("numconv: invalid floating constant %q: %w", lexeme, err)
	}
	longCount := 0
	if strings.HasSuffix(lexeme, "l") || strings.HasSuffix(lexeme, "L") {
		longCount = 1
	}
	t := token.New(token.NUMBER, lexeme, line)
	t.Num = token.NumValue{
		IsFloat:   true,
		LongCount: longCount,
		Float64:   val,
	}
	return t, nil
}

// Char converts a PREP_CHAR lexeme (including its surrounding quotes
// and any encoding prefix, e.g. L'x') into a CHAR token.
func Char(lexeme string, line int) (token.Token, error) {
	body, err := stripQuotesAndPrefix(lexeme, '\'')
	if err != nil {
		return token.Token{}, err
	}
	decoded, err := unescape(body)
	if err != nil {
		return token.Token{}, fmt.Errorf("numconv: bad char constant %q: %w", lexeme, err)
	}
	if decoded == "" {
		return token.Token{}, fmt.Errorf("numconv: empty character constant")
	}
	t := token.New(token.CHAR, decoded, line)
	t.Num = token.NumValue{Int64: int64([]rune(decoded)[0])}
	return t, nil
}

// String converts a PREP_STRING lexeme into a STRING token holding the
// unescaped text (quotes and prefix stripped).
func String(lexeme string, line int) (token.Token, error) {
	body, err := stripQuotesAndPrefix(lexeme, '"')
	if err != nil {
		return token.Token{}, err
	}
	decoded, err := unescape(body)
	if err != nil {
		return token.Token{}, fmt.Errorf("numconv: bad string literal %q: %w", lexeme, err)
	}
	return token.New(token.STRING, decoded, line), nil
}

func stripQuotesAndPrefix(lexeme string, quote byte) (string, error) {
	i := 0
	for i < len(lexeme) && lexeme[i] != quote {
		i++
	}
	if i >= len(lexeme) || len(lexeme) < i+2 || lexeme[len(lexeme)-1] != quote {
		return "", fmt.Errorf("numconv: malformed literal %q", lexeme)
	}
	return lexeme[i+1 : len(lexeme)-1], nil
}

func unescape(body string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		case '"':
			sb.WriteByte('"')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '7' {
				j++
			}
			v, err := strconv.ParseUint(body[i:j], 8, 8)
			if err != nil {
				return "", fmt.Errorf("bad octal escape: %w", err)
			}
			sb.WriteByte(byte(v))
			i = j - 1
		case 'x':
			j := i + 1
			for j < len(body) && isHexDigit(body[j]) {
				j++
			}
			if j == i+1 {
				return "", fmt.Errorf("hex escape with no digits")
			}
			v, err := strconv.ParseUint(body[i+1:j], 16, 64)
			if err != nil {
				return "", fmt.Errorf("bad hex escape: %w", err)
			}
			sb.WriteByte(byte(v))
			i = j - 1
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c", body[i])
		}
	}
	return sb.String(), nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
