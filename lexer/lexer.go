package lexer

import (
	"fmt"
	"strings"

	"github.com/wippyai/wast/errors"
)

// Lexer scans WAST source text into tokens. The zero cursor state is
// the start of the source; state is just the byte position, so copying
// a Lexer snapshots it.
type Lexer struct {
	source string
	pos    int
}

func New(source string) *Lexer {
	return &Lexer{source: source}
}

// Next returns the next token, or (nil, nil) at end of input.
func (l *Lexer) Next() (*Token, error) {
	for l.pos < len(l.source) {
		c := l.source[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++

		case c == ';':
			if l.pos+1 < len(l.source) && l.source[l.pos+1] == ';' {
				for l.pos < len(l.source) && l.source[l.pos] != '\n' {
					l.pos++
				}
			} else {
				return nil, errors.Lexical(l.pos, "unexpected character ';'")
			}

		case c == '(':
			if l.pos+1 < len(l.source) && l.source[l.pos+1] == ';' {
				if err := l.skipBlockComment(); err != nil {
					return nil, err
				}
				continue
			}
			tok := &Token{Type: LParen, Offset: l.pos}
			l.pos++
			return tok, nil

		case c == ')':
			tok := &Token{Type: RParen, Offset: l.pos}
			l.pos++
			return tok, nil

		case c == '"':
			return l.scanString()

		case c == '$':
			return l.scanIdent()

		case isIDChar(c):
			return l.scanWord()

		default:
			return nil, errors.Lexical(l.pos, fmt.Sprintf("unexpected character %q", rune(c)))
		}
	}
	return nil, nil
}

func (l *Lexer) skipBlockComment() error {
	start := l.pos
	depth := 1
	l.pos += 2
	for l.pos < len(l.source) {
		if l.pos+1 < len(l.source) {
			switch l.source[l.pos : l.pos+2] {
			case "(;":
				depth++
				l.pos += 2
				continue
			case ";)":
				depth--
				l.pos += 2
				if depth == 0 {
					return nil
				}
				continue
			}
		}
		l.pos++
	}
	return errors.Lexical(start, "unterminated block comment")
}

// scanString captures the raw contents between the quotes. Escape
// sequences are left intact for the parser, but a trailing backslash
// is rejected here so downstream decoding can assume every backslash
// has at least one following character.
func (l *Lexer) scanString() (*Token, error) {
	start := l.pos
	i := l.pos + 1
	for i < len(l.source) {
		switch l.source[i] {
		case '\\':
			if i+1 >= len(l.source) {
				return nil, errors.Lexical(start, "unterminated string literal")
			}
			i += 2
		case '"':
			tok := &Token{Type: String, Text: l.source[start+1 : i], Offset: start}
			l.pos = i + 1
			return tok, nil
		default:
			i++
		}
	}
	return nil, errors.Lexical(start, "unterminated string literal")
}

func (l *Lexer) scanIdent() (*Token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.source) && isIDChar(l.source[l.pos]) {
		l.pos++
	}
	if l.pos == start+1 {
		return nil, errors.Lexical(start, "empty identifier")
	}
	return &Token{Type: Ident, Text: l.source[start:l.pos], Offset: start}, nil
}

func (l *Lexer) scanWord() (*Token, error) {
	start := l.pos
	for l.pos < len(l.source) && isIDChar(l.source[l.pos]) {
		l.pos++
	}
	return classify(l.source[start:l.pos], start)
}

// classify turns a maximal idchar run into a keyword, an integer, or
// one of the float forms.
func classify(word string, off int) (*Token, error) {
	sign := Plus
	body := word
	signed := false
	switch word[0] {
	case '+':
		body, signed = word[1:], true
	case '-':
		sign, body, signed = Minus, word[1:], true
	}

	if body == "" {
		return nil, errors.Lexical(off, fmt.Sprintf("malformed number %q", word))
	}
	if body == "inf" {
		return &Token{Type: Float, Form: FloatInf, Sign: sign, Offset: off}, nil
	}
	if body == "nan" {
		return &Token{Type: Float, Form: FloatNan, Sign: sign, Offset: off}, nil
	}
	if rest, ok := strings.CutPrefix(body, "nan:0x"); ok && isHexDigits(rest) {
		return &Token{Type: Float, Form: FloatNan, Sign: sign, Payload: rest, Offset: off}, nil
	}
	if body[0] >= '0' && body[0] <= '9' {
		return number(word, sign, body, off)
	}
	if !signed {
		// nan:canonical and nan:arithmetic land here too
		return &Token{Type: Keyword, Text: word, Offset: off}, nil
	}
	return nil, errors.Lexical(off, fmt.Sprintf("unexpected word %q", word))
}

func number(word string, sign Sign, body string, off int) (*Token, error) {
	malformed := func() (*Token, error) {
		return nil, errors.Lexical(off, fmt.Sprintf("malformed number %q", word))
	}

	base := Dec
	digits := body
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		base = Hex
		digits = body[2:]
	}

	marker := "eE"
	if base == Hex {
		marker = "pP"
	}
	mantissa := digits
	var exp string
	expSign := Plus
	hasExp := false
	if i := strings.IndexAny(digits, marker); i >= 0 {
		mantissa, exp = digits[:i], digits[i+1:]
		hasExp = true
		switch {
		case strings.HasPrefix(exp, "+"):
			exp = exp[1:]
		case strings.HasPrefix(exp, "-"):
			expSign, exp = Minus, exp[1:]
		}
		if !isDecDigits(exp) {
			return malformed()
		}
	}

	dots := 0
	hasDigit := false
	for i := 0; i < len(mantissa); i++ {
		switch c := mantissa[i]; {
		case c == '.':
			dots++
		case c == '_':
		case base == Hex && isHexDigit(c):
			hasDigit = true
		case base == Dec && c >= '0' && c <= '9':
			hasDigit = true
		default:
			return malformed()
		}
	}
	if dots > 1 || !hasDigit {
		return malformed()
	}

	if dots == 0 && !hasExp {
		return &Token{Type: Int, Sign: sign, Base: base, Digits: mantissa, Offset: off}, nil
	}
	return &Token{
		Type:    Float,
		Form:    FloatVal,
		Sign:    sign,
		Base:    base,
		Digits:  mantissa,
		HasExp:  hasExp,
		ExpSign: expSign,
		Exp:     exp,
		Offset:  off,
	}, nil
}

func isIDChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '/',
		':', '<', '=', '>', '?', '@', '\\', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isHexDigits(s string) bool {
	hasDigit := false
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			continue
		}
		if !isHexDigit(s[i]) {
			return false
		}
		hasDigit = true
	}
	return hasDigit
}

func isDecDigits(s string) bool {
	hasDigit := false
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		hasDigit = true
	}
	return hasDigit
}
