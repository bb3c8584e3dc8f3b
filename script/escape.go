package script

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/wast/errors"
)

// decodeEscapes converts the raw text of a string literal into its
// byte sequence. The lexer guarantees at least one character follows
// every backslash.
func decodeEscapes(lit string, offset int) ([]byte, *errors.Error) {
	buf := make([]byte, 0, len(lit))
	for i := 0; i < len(lit); {
		c := lit[i]
		if c != '\\' {
			buf = append(buf, c)
			i++
			continue
		}
		i++
		switch e := lit[i]; e {
		case 't':
			buf = append(buf, '\t')
			i++
		case 'n':
			buf = append(buf, '\n')
			i++
		case 'r':
			buf = append(buf, '\r')
			i++
		case '"':
			buf = append(buf, '"')
			i++
		case '\'':
			buf = append(buf, '\'')
			i++
		case '\\':
			buf = append(buf, '\\')
			i++
		case 'u':
			i++
			if i >= len(lit) || lit[i] != '{' {
				return nil, errors.InvalidString(offset, lit, `invalid \u{xxxx} format`)
			}
			i++
			end := strings.IndexByte(lit[i:], '}')
			if end < 0 {
				return nil, errors.InvalidString(offset, lit, `invalid \u{xxxx} format`)
			}
			code, err := strconv.ParseUint(lit[i:i+end], 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return nil, errors.InvalidString(offset, lit, `invalid code point in \u{xxxx}`)
			}
			buf = utf8.AppendRune(buf, rune(code))
			i += end + 1
		default:
			hi, ok1 := hexDigit(e)
			var lo uint
			ok2 := false
			if i+1 < len(lit) {
				lo, ok2 = hexDigit(lit[i+1])
			}
			if !ok1 || !ok2 {
				return nil, errors.InvalidString(offset, lit, `invalid \XX format`)
			}
			buf = append(buf, byte(hi*16+lo))
			i += 2
		}
	}
	return buf, nil
}

// decodeText runs the second decoder stage: the byte sequence must be
// valid UTF-8. Used for name fields, never for binary payloads.
func decodeText(lit string, offset int) (string, *errors.Error) {
	b, err := decodeEscapes(lit, offset)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8(offset, b)
	}
	return string(b), nil
}
