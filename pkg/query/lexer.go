package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokParam     // @name
	tokCollParam // @@name
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) is(punct string) bool { return t.kind == tokPunct && t.text == punct }

// keyword reports whether t is the identifier kw, ignoring case.
func (t token) keyword(kw string) bool { return t.kind == tokIdent && strings.EqualFold(t.text, kw) }

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokString:
		return "string " + t.text
	}
	return "'" + t.text + "'"
}

var punctuation = []string{"..", "==", "!=", "<=", ">=", "&&", "||", ".", ",", "(", ")", "[", "]", "{", "}", ":", "<", ">", "!", "+", "-", "*", "/", "%", "?"}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) peekRune(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+off:])
	return r
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		i += size
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			l.advance(utf8.RuneLen(r))
		case strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			line, col := l.line, l.col
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return errorAt(line, col, "unterminated comment")
			}
			l.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpace(); err != nil {
		return token{}, err
	}
	t := token{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		t.kind = tokEOF
		return t, nil
	}

	start := l.pos
	r := l.peekRune(0)
	switch {
	case r == '_' || unicode.IsLetter(r):
		l.scanIdent()
		t.kind = tokIdent

	case r >= '0' && r <= '9':
		t.kind = l.scanNumber()

	case r == '"' || r == '\'':
		if err := l.scanString(byte(r)); err != nil {
			return token{}, errorAt(t.line, t.col, "%s", err.Error())
		}
		t.kind = tokString

	case r == '@':
		l.advance(1)
		t.kind = tokParam
		if l.peekRune(0) == '@' {
			l.advance(1)
			t.kind = tokCollParam
		}
		nameStart := l.pos
		l.scanIdent()
		if l.pos == nameStart {
			return token{}, errorAt(t.line, t.col, "bind parameter without a name")
		}
		t.text = l.src[nameStart:l.pos]
		return t, nil

	default:
		for _, p := range punctuation {
			if strings.HasPrefix(l.src[l.pos:], p) {
				l.advance(len(p))
				t.kind = tokPunct
				t.text = p
				return t, nil
			}
		}
		return token{}, errorAt(t.line, t.col, "unexpected character %q", r)
	}
	t.text = l.src[start:l.pos]
	return t, nil
}

func (l *lexer) scanIdent() {
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		l.advance(utf8.RuneLen(r))
	}
}

func (l *lexer) digits() {
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		l.advance(1)
	}
}

// scanNumber stops before ".." so that 1..3 lexes as a range.
func (l *lexer) scanNumber() tokenKind {
	kind := tokInt
	l.digits()
	if l.peekRune(0) == '.' && l.peekRune(1) >= '0' && l.peekRune(1) <= '9' {
		kind = tokFloat
		l.advance(1)
		l.digits()
	}
	if r := l.peekRune(0); r == 'e' || r == 'E' {
		off := 1
		if s := l.peekRune(1); s == '+' || s == '-' {
			off = 2
		}
		if d := l.peekRune(off); d >= '0' && d <= '9' {
			kind = tokFloat
			l.advance(off)
			l.digits()
		}
	}
	return kind
}

func (l *lexer) scanString(quote byte) error {
	l.advance(1)
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			l.advance(2)
		case quote:
			l.advance(1)
			return nil
		default:
			l.advance(1)
		}
	}
	return errUnterminatedString
}
