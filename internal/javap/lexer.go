package javap

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokPunct
	tokString
	tokNumber
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return fmt.Sprintf("%q", t.text)
	}
	return "`" + t.text + "`"
}

type lexError struct {
	line, col int
	msg       string
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
	toks []token
}

// lex splits src into tokens. Characters with no meaning in class
// declarations become single-character punctuation so that constant
// initialisers can be skipped without failing.
func lex(src string) ([]token, *lexError) {
	l := &lexer{src: src, line: 1, col: 1}
	for {
		if err := l.skipSpaceAndComments(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.src) {
			break
		}
		if err := l.scan(); err != nil {
			return nil, err
		}
	}
	l.toks = append(l.toks, token{kind: tokEOF, line: l.line, col: l.col})
	return l.toks, nil
}

func (l *lexer) peekRune(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() *lexError {
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekRune(1) == '/':
			for l.pos < len(l.src) && l.peekRune(0) != '\n' {
				l.advance()
			}
		case r == '/' && l.peekRune(1) == '*':
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return &lexError{line: l.line, col: l.col, msg: "unterminated comment"}
			}
			for stop := l.pos + 2 + end + 2; l.pos < stop; {
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) emit(kind tokenKind, text string, line, col int) {
	l.toks = append(l.toks, token{kind: kind, text: text, line: line, col: col})
}

func (l *lexer) scan() *lexError {
	line, col := l.line, l.col
	r := l.peekRune(0)
	switch {
	case isIdentStart(r):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.peekRune(0)) {
			l.advance()
		}
		text := l.src[start:l.pos]
		if text == "non" && strings.HasPrefix(l.src[l.pos:], "-sealed") {
			for range len("-sealed") {
				l.advance()
			}
			text = "non-sealed"
		}
		l.emit(tokIdent, text, line, col)
	case unicode.IsDigit(r):
		start := l.pos
		for l.pos < len(l.src) && (isIdentPart(l.peekRune(0)) || l.peekRune(0) == '.') {
			l.advance()
		}
		l.emit(tokNumber, l.src[start:l.pos], line, col)
	case r == '"' || r == '\'':
		quote := l.advance()
		var b strings.Builder
		for {
			if l.pos >= len(l.src) || l.peekRune(0) == '\n' {
				return &lexError{line: line, col: col, msg: "unterminated string literal"}
			}
			c := l.advance()
			if c == quote {
				break
			}
			if c == '\\' && l.pos < len(l.src) {
				c = l.advance()
			}
			b.WriteRune(c)
		}
		l.emit(tokString, b.String(), line, col)
	case r == '.' && l.peekRune(1) == '.' && l.peekRune(2) == '.':
		l.advance()
		l.advance()
		l.advance()
		l.emit(tokPunct, "...", line, col)
	default:
		l.advance()
		l.emit(tokPunct, string(r), line, col)
	}
	return nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
