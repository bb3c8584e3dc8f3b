package script

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/wast/errors"
	"github.com/wippyai/wast/lexer"
)

// Integer operands of iNN.const accept the range
// [iNN_min, uNN_max]: a positive literal above iNN_max is parsed as
// uNN and reinterpreted as two's-complement, so e.g. 4294967295
// decodes to i32 -1. A negative magnitude of exactly iNN_max+1 maps to
// iNN_min; anything smaller is rejected as out of range.

func decodeI32(tok *lexer.Token) (int32, *errors.Error) {
	digits := strings.ReplaceAll(tok.Digits, "_", "")
	radix := 10
	if tok.Base == lexer.Hex {
		radix = 16
	}
	u64, err := strconv.ParseUint(digits, radix, 32)
	if err != nil {
		return 0, errors.InvalidInt(tok.Offset, "i32", err)
	}
	u := uint32(u64)
	switch {
	case tok.Sign == lexer.Plus:
		return int32(u), nil
	case u == 1<<31:
		return math.MinInt32, nil
	case u <= math.MaxInt32:
		return -int32(u), nil
	default:
		return 0, errors.IntOutOfRange(tok.Offset, "i32", digits)
	}
}

func decodeI64(tok *lexer.Token) (int64, *errors.Error) {
	digits := strings.ReplaceAll(tok.Digits, "_", "")
	radix := 10
	if tok.Base == lexer.Hex {
		radix = 16
	}
	u, err := strconv.ParseUint(digits, radix, 64)
	if err != nil {
		return 0, errors.InvalidInt(tok.Offset, "i64", err)
	}
	switch {
	case tok.Sign == lexer.Plus:
		return int64(u), nil
	case u == 1<<63:
		return math.MinInt64, nil
	case u <= math.MaxInt64:
		return -int64(u), nil
	default:
		return 0, errors.IntOutOfRange(tok.Offset, "i64", digits)
	}
}

// decimalText rebuilds the strconv input for a decimal float literal:
// mantissa digits joined with an E-style exponent, separators removed.
func decimalText(tok *lexer.Token) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(tok.Digits, "_", ""))
	if tok.HasExp {
		b.WriteByte('E')
		if tok.ExpSign == lexer.Minus {
			b.WriteByte('-')
		}
		b.WriteString(strings.ReplaceAll(tok.Exp, "_", ""))
	}
	return b.String()
}

func hexDigit(c byte) (uint, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint(c-'A') + 10, true
	}
	return 0, false
}

func decodeF32(tok *lexer.Token) (float32, *errors.Error) {
	if tok.Base == lexer.Dec {
		f, err := strconv.ParseFloat(decimalText(tok), 32)
		if err != nil {
			return 0, errors.InvalidFloat(tok.Offset, "f32", err)
		}
		v := float32(f)
		if tok.Sign == lexer.Minus {
			v = -v
		}
		return v, nil
	}

	// Hex float: accumulate the mantissa digit by digit in the target
	// width so rounding matches the format's own arithmetic.
	var f float32
	frac := tok.Digits
	i := 0
	for ; i < len(frac); i++ {
		c := frac[i]
		if u, ok := hexDigit(c); ok {
			f = f*16.0 + float32(u)
		} else if c == '.' {
			i++
			break
		} else if c == '_' {
			continue
		} else {
			return 0, errors.InvalidHexFloat(tok.Offset, "f32")
		}
	}
	step := float32(16.0)
	for ; i < len(frac); i++ {
		c := frac[i]
		if u, ok := hexDigit(c); ok {
			f += float32(u) / step
			step *= 16.0
		} else if c == '_' {
			continue
		} else {
			return 0, errors.InvalidHexFloat(tok.Offset, "f32")
		}
	}

	if tok.HasExp {
		e, err := strconv.Atoi(strings.ReplaceAll(tok.Exp, "_", ""))
		if err != nil {
			return 0, errors.InvalidHexFloat(tok.Offset, "f32")
		}
		if tok.ExpSign == lexer.Minus {
			e = -e
		}
		f *= float32(math.Pow(2, float64(e)))
	}

	if tok.Sign == lexer.Minus {
		f = -f
	}
	return f, nil
}

func decodeF64(tok *lexer.Token) (float64, *errors.Error) {
	if tok.Base == lexer.Dec {
		f, err := strconv.ParseFloat(decimalText(tok), 64)
		if err != nil {
			return 0, errors.InvalidFloat(tok.Offset, "f64", err)
		}
		if tok.Sign == lexer.Minus {
			f = -f
		}
		return f, nil
	}

	var f float64
	frac := tok.Digits
	i := 0
	for ; i < len(frac); i++ {
		c := frac[i]
		if u, ok := hexDigit(c); ok {
			f = f*16.0 + float64(u)
		} else if c == '.' {
			i++
			break
		} else if c == '_' {
			continue
		} else {
			return 0, errors.InvalidHexFloat(tok.Offset, "f64")
		}
	}
	step := 16.0
	for ; i < len(frac); i++ {
		c := frac[i]
		if u, ok := hexDigit(c); ok {
			f += float64(u) / step
			step *= 16.0
		} else if c == '_' {
			continue
		} else {
			return 0, errors.InvalidHexFloat(tok.Offset, "f64")
		}
	}

	if tok.HasExp {
		e, err := strconv.Atoi(strings.ReplaceAll(tok.Exp, "_", ""))
		if err != nil {
			return 0, errors.InvalidHexFloat(tok.Offset, "f64")
		}
		if tok.ExpSign == lexer.Minus {
			e = -e
		}
		f *= math.Pow(2, float64(e))
	}

	if tok.Sign == lexer.Minus {
		f = -f
	}
	return f, nil
}

// parseConst parses one (t.const value) form.
func (p *Parser) parseConst() (Const, error) {
	if _, err := p.expect(lexer.LParen, "'(' for constant"); err != nil {
		return Const{}, err
	}
	kw, err := p.consume()
	if err != nil {
		return Const{}, err
	}
	if kw == nil || kw.Type != lexer.Keyword {
		return Const{}, p.unexpected("t.const for constant", kw)
	}

	var c Const
	switch kw.Text {
	case "i32.const":
		tok, err := p.consume()
		if err != nil {
			return Const{}, err
		}
		if tok == nil || tok.Type != lexer.Int {
			return Const{}, p.unexpected("i32 value", tok)
		}
		v, derr := decodeI32(tok)
		if derr != nil {
			return Const{}, p.attach(derr)
		}
		c = I32Const(v)

	case "i64.const":
		tok, err := p.consume()
		if err != nil {
			return Const{}, err
		}
		if tok == nil || tok.Type != lexer.Int {
			return Const{}, p.unexpected("i64 value", tok)
		}
		v, derr := decodeI64(tok)
		if derr != nil {
			return Const{}, p.attach(derr)
		}
		c = I64Const(v)

	case "f32.const":
		c, err = p.parseFloatOperand(32)
		if err != nil {
			return Const{}, err
		}

	case "f64.const":
		c, err = p.parseFloatOperand(64)
		if err != nil {
			return Const{}, err
		}

	default:
		return Const{}, p.unexpected("t.const for constant", kw)
	}

	if _, err := p.expect(lexer.RParen, "')' closing constant"); err != nil {
		return Const{}, err
	}
	return c, nil
}

// parseFloatOperand handles the operand of f32.const / f64.const:
// NaN class markers, integer literals, and the float literal forms.
func (p *Parser) parseFloatOperand(bits int) (Const, error) {
	ty := "f32"
	if bits == 64 {
		ty = "f64"
	}
	tok, err := p.consume()
	if err != nil {
		return Const{}, err
	}
	if tok == nil {
		return Const{}, p.unexpected(ty+" value", nil)
	}

	switch {
	case tok.Type == lexer.Keyword && tok.Text == "nan:canonical":
		return CanonicalNanConst(), nil
	case tok.Type == lexer.Keyword && tok.Text == "nan:arithmetic":
		return ArithmeticNanConst(), nil

	case tok.Type == lexer.Int:
		// Integer operands of float consts go through i64 range rules
		// and are converted to the target width.
		v, derr := decodeI64(tok)
		if derr != nil {
			return Const{}, p.attach(derr)
		}
		if bits == 32 {
			return F32Const(float32(v)), nil
		}
		return F64Const(float64(v)), nil

	case tok.Type == lexer.Float && tok.Form == lexer.FloatNan:
		// An explicit payload still decodes to "some NaN"; the test
		// semantics never compare payload bits.
		if bits == 32 {
			v := float32(math.NaN())
			if tok.Sign == lexer.Minus {
				v = -v
			}
			return F32Const(v), nil
		}
		v := math.NaN()
		if tok.Sign == lexer.Minus {
			v = -v
		}
		return F64Const(v), nil

	case tok.Type == lexer.Float && tok.Form == lexer.FloatInf:
		s := 1
		if tok.Sign == lexer.Minus {
			s = -1
		}
		if bits == 32 {
			return F32Const(float32(math.Inf(s))), nil
		}
		return F64Const(math.Inf(s)), nil

	case tok.Type == lexer.Float && tok.Form == lexer.FloatVal:
		if bits == 32 {
			v, derr := decodeF32(tok)
			if derr != nil {
				return Const{}, p.attach(derr)
			}
			return F32Const(v), nil
		}
		v, derr := decodeF64(tok)
		if derr != nil {
			return Const{}, p.attach(derr)
		}
		return F64Const(v), nil
	}

	return Const{}, p.unexpected(ty+" value", tok)
}
