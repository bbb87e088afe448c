package persistence

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// The catalog and extras files are JavaScript source assigning an object
// literal to a const. This file holds a small tokenizer and parser for the
// literal subset they use: objects with quoted or bare (possibly hyphenated)
// keys, arrays, strings, numbers, true/false/null, comments, trailing commas.

// Member is one key/value pair of an object literal, in source order.
type Member struct {
	Key   string
	Value any
}

// Object is an object literal with its members in source order.
// Values are Object, []any, string, float64, bool, or nil.
type Object []Member

// Get returns the value for key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPunct
	tokString
	tokNumber
	tokIdent
)

type token struct {
	kind tokenKind
	text string // punct, ident, or decoded string
	num  float64
	line int
	col  int
}

// syntaxError carries a source position.
type syntaxError struct {
	line, col int
	msg       string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.line, e.col, e.msg)
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(format string, args ...any) error {
	return &syntaxError{line: l.line, col: l.col, msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.src[l.pos:])
}

func (l *lexer) advance() rune {
	r, size := l.peek()
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		r, _ := l.peek()
		switch {
		case unicode.IsSpace(r) || r == '\uFEFF':
			l.advance()
		case strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) {
				if l.advance() == '\n' {
					break
				}
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf("unterminated comment")
			}
			stop := l.pos + 2 + end + 2
			for l.pos < stop {
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '-'
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	tok := token{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	r, _ := l.peek()
	switch {
	case r == '"' || r == '\'' || r == '`':
		s, err := l.readString(r)
		if err != nil {
			return token{}, err
		}
		tok.kind, tok.text = tokString, s
	case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
		start := l.pos
		l.advance()
		for l.pos < len(l.src) {
			c, _ := l.peek()
			if !(unicode.IsDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '_' ||
				((c == '-' || c == '+') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E'))) {
				break
			}
			l.advance()
		}
		text := strings.ReplaceAll(l.src[start:l.pos], "_", "")
		if !strings.ContainsAny(text, "0123456789") {
			// a lone sign or dot in surrounding code
			tok.kind, tok.text = tokPunct, text
			return tok, nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, &syntaxError{line: tok.line, col: tok.col, msg: fmt.Sprintf("invalid number %q", text)}
		}
		tok.kind, tok.text, tok.num = tokNumber, text, v
	case isIdentStart(r):
		start := l.pos
		for l.pos < len(l.src) {
			c, _ := l.peek()
			if !isIdentPart(c) {
				break
			}
			l.advance()
		}
		tok.kind, tok.text = tokIdent, l.src[start:l.pos]
	default:
		l.advance()
		tok.kind, tok.text = tokPunct, string(r)
	}
	return tok, nil
}

func (l *lexer) readString(quote rune) (string, error) {
	l.advance()
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf("unterminated string")
		}
		r := l.advance()
		switch {
		case r == quote:
			return b.String(), nil
		case r == '\n' && quote != '`':
			return "", l.errorf("newline in string")
		case r == '\\':
			if err := l.readEscape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (l *lexer) readEscape(b *strings.Builder) error {
	if l.pos >= len(l.src) {
		return l.errorf("unterminated escape")
	}
	r := l.advance()
	switch r {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'u':
		v, err := l.readHex(4)
		if err != nil {
			return err
		}
		if utf16High(v) && strings.HasPrefix(l.src[l.pos:], `\u`) {
			l.advance()
			l.advance()
			lo, err := l.readHex(4)
			if err != nil {
				return err
			}
			v = (v-0xD800)<<10 + (lo - 0xDC00) + 0x10000
		}
		b.WriteRune(rune(v))
	case 'x':
		v, err := l.readHex(2)
		if err != nil {
			return err
		}
		b.WriteRune(rune(v))
	default:
		b.WriteRune(r)
	}
	return nil
}

func utf16High(v int) bool { return v >= 0xD800 && v < 0xDC00 }

func (l *lexer) readHex(n int) (int, error) {
	if l.pos+n > len(l.src) {
		return 0, l.errorf("short hex escape")
	}
	v, err := strconv.ParseUint(l.src[l.pos:l.pos+n], 16, 32)
	if err != nil {
		return 0, l.errorf("invalid hex escape %q", l.src[l.pos:l.pos+n])
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	return int(v), nil
}

// parser builds values from the token stream.
type parser struct {
	lex *lexer
	tok token
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &syntaxError{line: p.tok.line, col: p.tok.col, msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *parser) expect(s string) error {
	if !p.isPunct(s) {
		return p.errorf("expected %q, found %s", s, p.describe())
	}
	return p.advance()
}

func (p *parser) describe() string {
	switch p.tok.kind {
	case tokEOF:
		return "end of file"
	case tokString:
		return fmt.Sprintf("string %q", p.tok.text)
	}
	return fmt.Sprintf("%q", p.tok.text)
}

// seekAssignment advances to the value assigned to name (`name = ...`).
// An empty name accepts the first object literal in the source.
func (p *parser) seekAssignment(name string) error {
	for p.tok.kind != tokEOF {
		if name == "" && p.isPunct("{") {
			return nil
		}
		if p.tok.kind == tokIdent && p.tok.text == name {
			if err := p.advance(); err != nil {
				return err
			}
			if p.isPunct("=") {
				return p.advance()
			}
			continue
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	if name == "" {
		return p.errorf("no object literal found")
	}
	return p.errorf("no assignment to %s found", name)
}

func (p *parser) value() (any, error) {
	switch p.tok.kind {
	case tokString:
		s := p.tok.text
		return s, p.advance()
	case tokNumber:
		n := p.tok.num
		return n, p.advance()
	case tokIdent:
		var v any
		switch p.tok.text {
		case "true":
			v = true
		case "false":
			v = false
		case "null", "undefined":
			v = nil
		default:
			return nil, p.errorf("unexpected identifier %q", p.tok.text)
		}
		return v, p.advance()
	case tokPunct:
		switch p.tok.text {
		case "{":
			return p.object()
		case "[":
			return p.array()
		}
	}
	return nil, p.errorf("unexpected %s", p.describe())
}

func (p *parser) object() (Object, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	obj := Object{}
	for !p.isPunct("}") {
		var key string
		switch p.tok.kind {
		case tokString, tokIdent, tokNumber:
			key = p.tok.text
		default:
			return nil, p.errorf("expected object key, found %s", p.describe())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj = append(obj, Member{Key: key, Value: v})

		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if !p.isPunct("}") {
			return nil, p.errorf("expected ',' or '}', found %s", p.describe())
		}
	}
	return obj, p.advance()
}

func (p *parser) array() ([]any, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	arr := []any{}
	for !p.isPunct("]") {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if !p.isPunct("]") {
			return nil, p.errorf("expected ',' or ']', found %s", p.describe())
		}
	}
	return arr, p.advance()
}

// ParseLiteral parses the object literal assigned to name in a JavaScript
// source file. With an empty name the first object literal is parsed, which
// also makes plain JSON acceptable.
func ParseLiteral(src, name string) (Object, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if err := p.seekAssignment(name); err != nil {
		return nil, err
	}
	if !p.isPunct("{") {
		return nil, p.errorf("expected object literal, found %s", p.describe())
	}
	return p.object()
}
