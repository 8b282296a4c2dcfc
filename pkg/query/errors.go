package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("query parse error")

	// ErrBindParameter is returned when a bind parameter is missing or has
	// the wrong type.
	ErrBindParameter = errors.New("invalid bind parameter")

	errUnterminatedString = errors.New("unterminated string")
)

// ParseError is a syntax or static error in a statement. It is raised
// before anything executes.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

func errorAt(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func tokenError(t token, format string, args ...any) *ParseError {
	return errorAt(t.line, t.col, format, args...)
}

// unquote decodes a single or double quoted string literal.
func unquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", errUnterminatedString
	}
	if lit[0] == '\'' {
		var b strings.Builder
		b.WriteByte('"')
		body := lit[1 : len(lit)-1]
		for i := 0; i < len(body); i++ {
			switch {
			case body[i] == '\\' && i+1 < len(body):
				if body[i+1] != '\'' {
					b.WriteByte('\\')
				}
				b.WriteByte(body[i+1])
				i++
			case body[i] == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(body[i])
			}
		}
		b.WriteByte('"')
		lit = b.String()
	}
	return strconv.Unquote(lit)
}
