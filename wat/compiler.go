package wat

import (
	"github.com/wippyai/wast/errors"
	"github.com/wippyai/wast/lexer"
)

// fieldKeywords is the closed set of module-level fields.
var fieldKeywords = map[string]bool{
	"type":   true,
	"import": true,
	"func":   true,
	"table":  true,
	"memory": true,
	"global": true,
	"export": true,
	"start":  true,
	"elem":   true,
	"data":   true,
}

// Field records one module-level field and where it starts.
type Field struct {
	Keyword string
	Offset  int
}

// Module is a structurally validated inline module definition with its
// source metadata.
type Module struct {
	ID     string // "$name" after (module, or ""
	Source string // exact text span of the (module ...) form
	Fields []Field
	Offset int // byte offset of the opening '('
}

// Compiler consumes a token stream positioned at an inline module
// definition. It takes sole ownership of the lookahead buffer for the
// duration of Compile; the caller reclaims it through Lexer.
type Compiler struct {
	la     *lexer.LookAhead
	source string
	pos    int
}

func NewCompiler(la *lexer.LookAhead, source string) *Compiler {
	return &Compiler{la: la, source: source}
}

// Lexer yields the buffer back, positioned after the module form when
// Compile succeeded.
func (c *Compiler) Lexer() *lexer.LookAhead {
	return c.la
}

func (c *Compiler) next() (*lexer.Token, error) {
	tok, err := c.la.Next()
	if err != nil {
		return nil, err
	}
	if tok != nil {
		c.pos = tok.Offset
	} else {
		c.pos = len(c.source)
	}
	return tok, nil
}

func (c *Compiler) fail(expected string, tok *lexer.Token) error {
	got := ""
	if tok != nil {
		got = tok.String()
	}
	return errors.Compile(c.pos, expected, got)
}

// Compile parses one (module ...) form.
func (c *Compiler) Compile() (*Module, error) {
	tok, err := c.next()
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.Type != lexer.LParen {
		return nil, c.fail("'(' for inline module", tok)
	}
	mod := &Module{Offset: tok.Offset}

	tok, err = c.next()
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.Type != lexer.Keyword || tok.Text != "module" {
		return nil, c.fail("keyword 'module'", tok)
	}

	if t, err := c.la.Peek(); err != nil {
		return nil, err
	} else if t != nil && t.Type == lexer.Ident {
		mod.ID = t.Text
		if _, err := c.next(); err != nil {
			return nil, err
		}
	}

	for {
		tok, err = c.next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			return nil, c.fail("module field or ')'", nil)
		}
		if tok.Type == lexer.RParen {
			mod.Source = c.source[mod.Offset : tok.Offset+1]
			return mod, nil
		}
		if tok.Type != lexer.LParen {
			return nil, c.fail("'(' opening module field or ')'", tok)
		}
		fieldOffset := tok.Offset

		kw, err := c.next()
		if err != nil {
			return nil, err
		}
		if kw == nil || kw.Type != lexer.Keyword {
			return nil, c.fail("module field keyword", kw)
		}
		if !fieldKeywords[kw.Text] {
			return nil, c.fail("one of type, import, func, table, memory, global, export, start, elem, data", kw)
		}
		mod.Fields = append(mod.Fields, Field{Keyword: kw.Text, Offset: fieldOffset})

		if err := c.skipField(); err != nil {
			return nil, err
		}
	}
}

// skipField consumes tokens through the ')' matching the field's '('.
// Field bodies are not interpreted here.
func (c *Compiler) skipField() error {
	depth := 1
	for depth > 0 {
		tok, err := c.next()
		if err != nil {
			return err
		}
		if tok == nil {
			return c.fail("')' closing module field", nil)
		}
		switch tok.Type {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
		}
	}
	return nil
}
