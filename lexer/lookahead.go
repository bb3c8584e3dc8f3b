package lexer

// LookAhead buffers two tokens ahead of a Lexer. It gives the parser
// one-token consume and an idempotent two-token peek, which is enough
// to dispatch every directive from its leading '(' and keyword.
//
// The embedded Lexer is held by value, so Clone is a plain struct copy
// that snapshots the exact replay position. A clone and its original
// advance independently; token pointers are shared but tokens are
// never mutated after production.
type LookAhead struct {
	lex      Lexer
	cur      *Token
	ahead    *Token
	curErr   error
	aheadErr error
}

func NewLookAhead(l *Lexer) *LookAhead {
	la := &LookAhead{lex: *l}
	la.cur, la.curErr = la.lex.Next()
	la.ahead, la.aheadErr = la.lex.Next()
	return la
}

// Peek returns the next token without consuming it; nil at end of
// input.
func (la *LookAhead) Peek() (*Token, error) {
	return la.cur, la.curErr
}

// Peek2 returns the next token and the one after it without advancing.
// Either may be nil at end of input. A lexical error in the window is
// surfaced even if only the first token was wanted, matching the
// all-or-nothing contract of the token source.
func (la *LookAhead) Peek2() (*Token, *Token, error) {
	if la.curErr != nil {
		return nil, nil, la.curErr
	}
	if la.aheadErr != nil {
		return nil, nil, la.aheadErr
	}
	return la.cur, la.ahead, nil
}

// Next consumes and returns the next token; (nil, nil) at end of
// input.
func (la *LookAhead) Next() (*Token, error) {
	tok, err := la.cur, la.curErr
	la.cur, la.curErr = la.ahead, la.aheadErr
	la.ahead, la.aheadErr = la.lex.Next()
	return tok, err
}

// Clone snapshots the buffer so a speculative continuation can be
// explored and discarded without affecting the original.
func (la *LookAhead) Clone() *LookAhead {
	c := *la
	return &c
}
