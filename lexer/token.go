package lexer

import "fmt"

type Type int

const (
	LParen Type = iota
	RParen
	Keyword
	Ident
	String
	Int
	Float
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Keyword:
		return "keyword"
	case Ident:
		return "identifier"
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "float"
	}
	return "unknown"
}

// Sign is the leading sign of a numeric literal. Literals without an
// explicit sign are Plus.
type Sign int

const (
	Plus Sign = iota
	Minus
)

func (s Sign) String() string {
	if s == Minus {
		return "-"
	}
	return ""
}

// Base is the numeric base of an integer or float literal.
type Base int

const (
	Dec Base = iota
	Hex
)

// FloatForm distinguishes the three lexical shapes of a float literal.
type FloatForm int

const (
	FloatVal FloatForm = iota // mantissa with optional exponent
	FloatNan                  // nan or nan:0xPAYLOAD
	FloatInf                  // inf
)

// Token is one lexical token with its byte offset. Which fields are
// meaningful depends on Type:
//
//	Keyword, Ident  Text is the atom
//	String          Text is the raw contents between the quotes
//	Int             Sign, Base, Digits
//	Float           Sign, Form; FloatVal also Base, Digits (mantissa,
//	                may contain '.' and '_') and the exponent fields;
//	                FloatNan also Payload ("" for a bare nan)
type Token struct {
	Text    string
	Digits  string
	Exp     string
	Payload string
	Type    Type
	Sign    Sign
	Base    Base
	Form    FloatForm
	ExpSign Sign
	HasExp  bool
	Offset  int
}

// String renders the token for diagnostics.
func (t *Token) String() string {
	switch t.Type {
	case LParen, RParen:
		return t.Type.String()
	case Keyword:
		return fmt.Sprintf("keyword %q", t.Text)
	case Ident:
		return fmt.Sprintf("identifier %q", t.Text)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	case Int:
		if t.Base == Hex {
			return fmt.Sprintf("integer \"%s0x%s\"", t.Sign, t.Digits)
		}
		return fmt.Sprintf("integer %q", t.Sign.String()+t.Digits)
	case Float:
		switch t.Form {
		case FloatInf:
			return fmt.Sprintf("float %q", t.Sign.String()+"inf")
		case FloatNan:
			if t.Payload != "" {
				return fmt.Sprintf("float \"%snan:0x%s\"", t.Sign, t.Payload)
			}
			return fmt.Sprintf("float %q", t.Sign.String()+"nan")
		default:
			if t.Base == Hex {
				return fmt.Sprintf("float \"%s0x%s\"", t.Sign, t.Digits)
			}
			return fmt.Sprintf("float %q", t.Sign.String()+t.Digits)
		}
	}
	return "unknown token"
}
