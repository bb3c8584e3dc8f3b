// Package lexer tokenizes WAST script text.
//
// The lexer produces structured tokens with byte offsets: parentheses,
// keywords, $-prefixed identifiers, string literals (raw contents,
// escapes left undecoded for the parser), and numeric literals carrying
// their sign, base and digit text so the parser can apply the target
// format's exact value semantics.
//
// LookAhead wraps a Lexer with one-token consume and idempotent
// two-token peek, and can be cloned to snapshot the replay position for
// speculative parsing.
package lexer
