package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLex     Phase = "lex"     // tokenizing raw text
	PhaseParse   Phase = "parse"   // directive parsing
	PhaseCompile Phase = "compile" // inline module compilation
)

// Kind categorizes the error
type Kind string

const (
	KindUnexpectedToken Kind = "unexpected_token"
	KindInvalidInt      Kind = "invalid_int"
	KindIntOutOfRange   Kind = "int_out_of_range"
	KindInvalidFloat    Kind = "invalid_float"
	KindInvalidHexFloat Kind = "invalid_hex_float"
	KindInvalidString   Kind = "invalid_string"
	KindInvalidUTF8     Kind = "invalid_utf8"
	KindLexical         Kind = "lexical"
)

// Error is the structured error type used throughout the parser.
type Error struct {
	Cause    error
	Prev     *Error // discarded speculative attempt, at most one level
	Phase    Phase
	Kind     Kind
	Expected string // unexpected_token: what the grammar wanted
	Token    string // unexpected_token: the offending token, "" at end of input
	Detail   string
	Offset   int // byte offset into the source text
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Expected != "" {
		b.WriteString(": expected ")
		b.WriteString(e.Expected)
		if e.Token != "" {
			b.WriteString(", got ")
			b.WriteString(e.Token)
		} else {
			b.WriteString(", reached end of input")
		}
	} else if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	fmt.Fprintf(&b, " at offset %d", e.Offset)

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	if e.Prev != nil {
		b.WriteString("\n  after discarded attempt: ")
		b.WriteString(e.Prev.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// WithPrev attaches a discarded attempt as one-level context. Any
// deeper chain on prev is cut so repeated speculation cannot grow the
// diagnostic unboundedly.
func (e *Error) WithPrev(prev *Error) *Error {
	if prev != nil {
		prev.Prev = nil
	}
	e.Prev = prev
	return e
}

// Convenience constructors for the error kinds the parser raises

// Unexpected creates a grammar error. token is the display form of the
// offending token, or "" when input ended.
func Unexpected(offset int, expected, token string) *Error {
	return &Error{
		Phase:    PhaseParse,
		Kind:     KindUnexpectedToken,
		Offset:   offset,
		Expected: expected,
		Token:    token,
	}
}

// InvalidInt creates an error for an integer literal that failed to
// parse as an unsigned value of the target width.
func InvalidInt(offset int, ty string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidInt,
		Offset: offset,
		Detail: fmt.Sprintf("invalid %s literal", ty),
		Cause:  cause,
	}
}

// IntOutOfRange creates an error for a negative literal whose magnitude
// would underflow the signed range of the target width.
func IntOutOfRange(offset int, ty, digits string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindIntOutOfRange,
		Offset: offset,
		Detail: fmt.Sprintf("-%s is too small for %s", digits, ty),
	}
}

// InvalidFloat creates an error for a malformed decimal float literal.
func InvalidFloat(offset int, ty string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidFloat,
		Offset: offset,
		Detail: fmt.Sprintf("invalid %s literal", ty),
		Cause:  cause,
	}
}

// InvalidHexFloat creates an error for a malformed hexadecimal float
// literal.
func InvalidHexFloat(offset int, ty string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidHexFloat,
		Offset: offset,
		Detail: fmt.Sprintf("invalid hex float for %s", ty),
	}
}

// InvalidString creates an error naming the offending string literal
// and the specific escape defect.
func InvalidString(offset int, lit, reason string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidString,
		Offset: offset,
		Detail: fmt.Sprintf("%s in string literal %q", reason, lit),
	}
}

// InvalidUTF8 creates an error for a name whose decoded bytes are not
// valid text.
func InvalidUTF8(offset int, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidUTF8,
		Offset: offset,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// Lexical creates a tokenizer error.
func Lexical(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseLex,
		Kind:   KindLexical,
		Offset: offset,
		Detail: detail,
	}
}

// Compile creates a grammar error in the inline module compiler.
func Compile(offset int, expected, token string) *Error {
	return &Error{
		Phase:    PhaseCompile,
		Kind:     KindUnexpectedToken,
		Offset:   offset,
		Expected: expected,
		Token:    token,
	}
}

// Position converts a byte offset into a 1-based line and column for
// display. Offsets past the end of source report the final position.
func Position(source string, offset int) (line, col int) {
	if offset > len(source) {
		offset = len(source)
	}
	line, col = 1, 1
	for _, r := range source[:offset] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
