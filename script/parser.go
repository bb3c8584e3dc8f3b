package script

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wast/errors"
	"github.com/wippyai/wast/lexer"
	"github.com/wippyai/wast/wat"
)

// CompileFunc is the module compiler bridge. It receives the parser's
// lookahead buffer positioned at an inline (module ...) form, parses
// it, and returns the structured module together with the buffer
// positioned after the form. The buffer is loaned: exactly one owner
// advances it at any instant, and the returned buffer (non-nil even on
// error when the delegate got that far) replaces the parser's own.
type CompileFunc func(la *lexer.LookAhead, source string) (*wat.Module, *lexer.LookAhead, error)

func defaultCompile(la *lexer.LookAhead, source string) (*wat.Module, *lexer.LookAhead, error) {
	c := wat.NewCompiler(la, source)
	mod, err := c.Compile()
	return mod, c.Lexer(), err
}

// Parser is a recursive-descent parser over one script source. Not
// safe for concurrent use; parsing one Root is one uninterrupted call
// chain.
type Parser struct {
	la      *lexer.LookAhead
	compile CompileFunc
	ignored *errors.Error // discarded speculative attempt, pending attachment
	source  string
	pos     int // offset of the most recently consumed token
}

func New(source string) *Parser {
	return &Parser{
		source:  source,
		la:      lexer.NewLookAhead(lexer.New(source)),
		compile: defaultCompile,
	}
}

// UseCompiler substitutes the inline module compiler, letting an
// execution engine plug in a full wat-to-wasm implementation.
func (p *Parser) UseCompiler(fn CompileFunc) {
	p.compile = fn
}

// Parse parses a complete script.
func Parse(source string) (*Root, error) {
	return New(source).Root()
}

// Root parses directives until the input is exhausted. The first error
// aborts the parse; no partial Root is returned.
func (p *Parser) Root() (*Root, error) {
	root := &Root{}
	for {
		t, _, err := p.la.Peek2()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		d, err := p.Directive()
		if err != nil {
			return nil, err
		}
		root.Directives = append(root.Directives, d)
	}
	Logger().Debug("parsed script", zap.Int("directives", len(root.Directives)))
	return root, nil
}

// Directive parses one top-level directive, dispatching on the
// two-token (open paren, keyword) lookahead without consuming it.
func (p *Parser) Directive() (Directive, error) {
	t1, t2, err := p.la.Peek2()
	if err != nil {
		return nil, err
	}
	if t1 == nil || t1.Type != lexer.LParen {
		return nil, p.unexpected("'(' for start of WAST directive", t1)
	}
	if t2 == nil || t2.Type != lexer.Keyword {
		return nil, p.unexpected("keyword for WAST directive", t2)
	}

	switch t2.Text {
	case "assert_return":
		return p.parseAssertReturn()
	case "assert_trap":
		return p.parseAssertTrap()
	case "assert_exhaustion":
		return p.parseAssertExhaustion()
	case "assert_malformed":
		return p.parseAssertMalformed()
	case "assert_invalid":
		return p.parseAssertInvalid()
	case "assert_unlinkable":
		return p.parseAssertUnlinkable()
	case "register":
		return p.parseRegister()
	case "invoke":
		return p.parseInvoke()
	case "module":
		return p.parseModuleDirective()
	default:
		return nil, p.unexpected("keyword for WAST directive", t2)
	}
}

// parseModuleDirective resolves the one genuine grammar ambiguity:
// after "(module" only a later quote/binary keyword separates an
// embedded module from an inline definition, and an optional
// identifier sits in between. The buffer position is snapshotted, the
// embedded form attempted, and on failure the snapshot is restored and
// the inline module compiler takes over. The embedded attempt's error
// is kept as one level of diagnostic context in case the fallback also
// fails.
func (p *Parser) parseModuleDirective() (Directive, error) {
	snapshot := p.la.Clone()

	em, err := p.parseEmbeddedModule()
	if err == nil {
		if em.Kind == Quote {
			return &QuoteModule{ID: em.ID, Text: em.Text, Start: em.Start}, nil
		}
		return &BinaryModule{ID: em.ID, Bytes: em.Bytes, Start: em.Start}, nil
	}
	perr, ok := err.(*errors.Error)
	if !ok {
		return nil, err
	}

	Logger().Debug("embedded module parse failed, retrying as inline module",
		zap.Int("offset", perr.Offset),
		zap.Error(perr))

	p.ignored = perr
	p.la = snapshot

	mod, la, cerr := p.compile(p.la, p.source)
	if la != nil {
		p.la = la
	}
	if cerr != nil {
		if ce, ok := cerr.(*errors.Error); ok {
			return nil, p.attach(ce)
		}
		return nil, cerr
	}
	p.ignored = nil
	return &InlineModule{Module: mod}, nil
}

// parseEmbeddedModule parses (module {id}? quote {string}*) or
// (module {id}? binary {string}*).
func (p *Parser) parseEmbeddedModule() (*EmbeddedModule, error) {
	start, err := p.parseStart("module")
	if err != nil {
		return nil, err
	}
	id, err := p.maybeID()
	if err != nil {
		return nil, err
	}

	kw, err := p.consume()
	if err != nil {
		return nil, err
	}
	if kw == nil || kw.Type != lexer.Keyword || (kw.Text != "quote" && kw.Text != "binary") {
		return nil, p.unexpected("'quote' or 'binary' for embedded module", kw)
	}

	em := &EmbeddedModule{ID: id, Start: start}
	if kw.Text == "quote" {
		em.Kind = Quote
		var text strings.Builder
		for {
			tok, err := p.consume()
			if err != nil {
				return nil, err
			}
			switch {
			case tok != nil && tok.Type == lexer.String:
				s, derr := decodeText(tok.Text, tok.Offset)
				if derr != nil {
					return nil, p.attach(derr)
				}
				text.WriteString(s)
			case tok != nil && tok.Type == lexer.RParen:
				em.Text = text.String()
				return em, nil
			default:
				return nil, p.unexpected("string for module quote or ')'", tok)
			}
		}
	}

	em.Kind = Binary
	var bin []byte
	for {
		tok, err := p.consume()
		if err != nil {
			return nil, err
		}
		switch {
		case tok != nil && tok.Type == lexer.String:
			b, derr := decodeEscapes(tok.Text, tok.Offset)
			if derr != nil {
				return nil, p.attach(derr)
			}
			bin = append(bin, b...)
		case tok != nil && tok.Type == lexer.RParen:
			em.Bytes = bin
			return em, nil
		default:
			return nil, p.unexpected("string for module binary or ')'", tok)
		}
	}
}

// parseModuleArg parses the module argument of assert_invalid and
// assert_unlinkable by delegating to the inline module compiler.
func (p *Parser) parseModuleArg() (*wat.Module, error) {
	t1, t2, err := p.la.Peek2()
	if err != nil {
		return nil, err
	}
	if t1 == nil || t1.Type != lexer.LParen || t2 == nil || t2.Type != lexer.Keyword || t2.Text != "module" {
		tok := t1
		if t1 != nil && t1.Type == lexer.LParen {
			tok = t2
		}
		return nil, p.unexpected("starting with '(module' for module argument", tok)
	}

	mod, la, cerr := p.compile(p.la, p.source)
	if la != nil {
		p.la = la
	}
	if cerr != nil {
		if ce, ok := cerr.(*errors.Error); ok {
			return nil, p.attach(ce)
		}
		return nil, cerr
	}
	return mod, nil
}

// parseInvoke parses (invoke {id}? {name} {constant}*).
func (p *Parser) parseInvoke() (*Invoke, error) {
	start, err := p.parseStart("invoke")
	if err != nil {
		return nil, err
	}
	id, err := p.maybeID()
	if err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}

	var args []Const
	for {
		t, err := p.la.Peek()
		if err != nil {
			return nil, err
		}
		if t == nil || t.Type != lexer.LParen {
			break
		}
		c, err := p.parseConst()
		if err != nil {
			return nil, err
		}
		args = append(args, c)
	}

	if _, err := p.expect(lexer.RParen, "')' closing invoke"); err != nil {
		return nil, err
	}
	return &Invoke{Start: start, ID: id, Name: name, Args: args}, nil
}

// parseRegister parses (register {name} {id}?). The name comes first
// in this directive.
func (p *Parser) parseRegister() (*Register, error) {
	start, err := p.parseStart("register")
	if err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	id, err := p.maybeID()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing register"); err != nil {
		return nil, err
	}
	return &Register{Start: start, Name: name, ID: id}, nil
}

// parseGetGlobal parses (get {id}? {name}).
func (p *Parser) parseGetGlobal() (*GetGlobal, error) {
	start, err := p.parseStart("get")
	if err != nil {
		return nil, err
	}
	id, err := p.maybeID()
	if err != nil {
		return nil, err
	}
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing get"); err != nil {
		return nil, err
	}
	return &GetGlobal{Start: start, ID: id, Name: name}, nil
}

// parseAssertReturn parses (assert_return (invoke ...) {constant}?) or
// (assert_return (get ...) {constant}).
func (p *Parser) parseAssertReturn() (*AssertReturn, error) {
	start, err := p.parseStart("assert_return")
	if err != nil {
		return nil, err
	}

	t1, t2, err := p.la.Peek2()
	if err != nil {
		return nil, err
	}
	if t1 != nil && t1.Type == lexer.LParen && t2 != nil && t2.Type == lexer.Keyword {
		switch t2.Text {
		case "invoke":
			inv, err := p.parseInvoke()
			if err != nil {
				return nil, err
			}
			var expected *Const
			t, err := p.la.Peek()
			if err != nil {
				return nil, err
			}
			if t != nil && t.Type == lexer.LParen {
				c, err := p.parseConst()
				if err != nil {
					return nil, err
				}
				expected = &c
			}
			if _, err := p.expect(lexer.RParen, "')' closing assert_return"); err != nil {
				return nil, err
			}
			return &AssertReturn{Start: start, Action: inv, Expected: expected}, nil

		case "get":
			get, err := p.parseGetGlobal()
			if err != nil {
				return nil, err
			}
			c, err := p.parseConst()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RParen, "')' closing assert_return"); err != nil {
				return nil, err
			}
			return &AssertReturn{Start: start, Action: get, Expected: &c}, nil
		}
	}

	tok := t1
	if t1 != nil && t1.Type == lexer.LParen {
		tok = t2
	}
	return nil, p.unexpected("'(invoke' or '(get' for assert_return", tok)
}

// parseAssertTrap parses (assert_trap (invoke ...) {string}).
func (p *Parser) parseAssertTrap() (*AssertTrap, error) {
	start, err := p.parseStart("assert_trap")
	if err != nil {
		return nil, err
	}
	inv, err := p.parseInvoke()
	if err != nil {
		return nil, err
	}
	expected, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing assert_trap"); err != nil {
		return nil, err
	}
	return &AssertTrap{Start: start, Invoke: inv, Expected: expected}, nil
}

// parseAssertExhaustion parses (assert_exhaustion (invoke ...) {string}).
func (p *Parser) parseAssertExhaustion() (*AssertExhaustion, error) {
	start, err := p.parseStart("assert_exhaustion")
	if err != nil {
		return nil, err
	}
	inv, err := p.parseInvoke()
	if err != nil {
		return nil, err
	}
	expected, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing assert_exhaustion"); err != nil {
		return nil, err
	}
	return &AssertExhaustion{Start: start, Invoke: inv, Expected: expected}, nil
}

// parseAssertMalformed parses (assert_malformed (module quote|binary ...) {string}).
func (p *Parser) parseAssertMalformed() (*AssertMalformed, error) {
	start, err := p.parseStart("assert_malformed")
	if err != nil {
		return nil, err
	}
	mod, err := p.parseEmbeddedModule()
	if err != nil {
		return nil, err
	}
	expected, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing assert_malformed"); err != nil {
		return nil, err
	}
	return &AssertMalformed{Start: start, Module: mod, Expected: expected}, nil
}

// parseAssertInvalid parses (assert_invalid (module ...) {string}).
func (p *Parser) parseAssertInvalid() (*AssertInvalid, error) {
	start, err := p.parseStart("assert_invalid")
	if err != nil {
		return nil, err
	}
	mod, err := p.parseModuleArg()
	if err != nil {
		return nil, err
	}
	expected, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing assert_invalid"); err != nil {
		return nil, err
	}
	return &AssertInvalid{Start: start, Module: mod, Expected: expected}, nil
}

// parseAssertUnlinkable parses (assert_unlinkable (module ...) {string}).
func (p *Parser) parseAssertUnlinkable() (*AssertUnlinkable, error) {
	start, err := p.parseStart("assert_unlinkable")
	if err != nil {
		return nil, err
	}
	mod, err := p.parseModuleArg()
	if err != nil {
		return nil, err
	}
	expected, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')' closing assert_unlinkable"); err != nil {
		return nil, err
	}
	return &AssertUnlinkable{Start: start, Module: mod, Expected: expected}, nil
}

// Cursor helpers

func (p *Parser) consume() (*lexer.Token, error) {
	tok, err := p.la.Next()
	if err != nil {
		// Lexical errors pass through untouched
		return nil, err
	}
	if tok != nil {
		p.pos = tok.Offset
	} else {
		p.pos = len(p.source)
	}
	return tok, nil
}

func (p *Parser) expect(typ lexer.Type, expected string) (*lexer.Token, error) {
	tok, err := p.consume()
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.Type != typ {
		return nil, p.unexpected(expected, tok)
	}
	return tok, nil
}

// parseStart consumes "({directive}" and returns the offset of the
// opening parenthesis.
func (p *Parser) parseStart(directive string) (int, error) {
	tok, err := p.expect(lexer.LParen, fmt.Sprintf("'(' for '%s'", directive))
	if err != nil {
		return 0, err
	}
	start := tok.Offset
	kw, err := p.consume()
	if err != nil {
		return 0, err
	}
	if kw == nil || kw.Type != lexer.Keyword || kw.Text != directive {
		return 0, p.unexpected(fmt.Sprintf("keyword '%s'", directive), kw)
	}
	return start, nil
}

// maybeID consumes an identifier if one is next.
func (p *Parser) maybeID() (string, error) {
	t, err := p.la.Peek()
	if err != nil {
		return "", err
	}
	if t == nil || t.Type != lexer.Ident {
		return "", nil
	}
	if _, err := p.consume(); err != nil {
		return "", err
	}
	return t.Text, nil
}

// parseName parses a string token and escape-decodes it as text.
func (p *Parser) parseName() (string, error) {
	tok, err := p.expect(lexer.String, "string")
	if err != nil {
		return "", err
	}
	s, derr := decodeText(tok.Text, tok.Offset)
	if derr != nil {
		return "", p.attach(derr)
	}
	return s, nil
}

// Error helpers

// attach moves a pending discarded-attempt error onto err as exactly
// one level of context.
func (p *Parser) attach(err *errors.Error) *errors.Error {
	if p.ignored != nil {
		err.WithPrev(p.ignored)
		p.ignored = nil
	}
	return err
}

func (p *Parser) unexpected(expected string, tok *lexer.Token) error {
	got := ""
	off := p.pos
	if tok != nil {
		got = tok.String()
		off = tok.Offset
	}
	return p.attach(errors.Unexpected(off, expected, got))
}
