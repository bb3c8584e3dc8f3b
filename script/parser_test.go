package script

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wippyai/wast/errors"
	"github.com/wippyai/wast/lexer"
	"github.com/wippyai/wast/wat"
)

func parseOne(t *testing.T, source string) Directive {
	t.Helper()
	root, err := Parse(source)
	if err != nil {
		t.Fatalf("parsing %q: %v", source, err)
	}
	if len(root.Directives) != 1 {
		t.Fatalf("got %d directives, want 1", len(root.Directives))
	}
	return root.Directives[0]
}

func TestParseInvoke(t *testing.T) {
	t.Run("no args", func(t *testing.T) {
		inv, ok := parseOne(t, `(invoke "f")`).(*Invoke)
		if !ok {
			t.Fatal("directive is not an invoke")
		}
		if inv.Name != "f" || inv.ID != "" || len(inv.Args) != 0 {
			t.Errorf("invoke = %+v", inv)
		}
	})

	t.Run("with module id", func(t *testing.T) {
		inv := parseOne(t, `(invoke $mod "run")`).(*Invoke)
		if inv.ID != "$mod" || inv.Name != "run" {
			t.Errorf("invoke = %+v", inv)
		}
	})

	t.Run("with args", func(t *testing.T) {
		inv := parseOne(t, `(invoke "add" (i32.const 2) (f64.const 2.5))`).(*Invoke)
		if len(inv.Args) != 2 {
			t.Fatalf("got %d args, want 2", len(inv.Args))
		}
		if inv.Args[0].Kind != I32 || inv.Args[0].I32 != 2 {
			t.Errorf("arg 0 = %+v", inv.Args[0])
		}
		if inv.Args[1].Kind != F64 || inv.Args[1].F64 != 2.5 {
			t.Errorf("arg 1 = %+v", inv.Args[1])
		}
	})

	t.Run("escaped name", func(t *testing.T) {
		inv := parseOne(t, `(invoke "print\n")`).(*Invoke)
		if inv.Name != "print\n" {
			t.Errorf("name = %q", inv.Name)
		}
	})
}

func TestParseRegister(t *testing.T) {
	t.Run("name only", func(t *testing.T) {
		reg := parseOne(t, `(register "spectest")`).(*Register)
		if reg.Name != "spectest" || reg.ID != "" {
			t.Errorf("register = %+v", reg)
		}
	})

	t.Run("name and id", func(t *testing.T) {
		reg := parseOne(t, `(register "spectest" $spec)`).(*Register)
		if reg.Name != "spectest" || reg.ID != "$spec" {
			t.Errorf("register = %+v", reg)
		}
	})
}

func TestParseModuleDirective(t *testing.T) {
	t.Run("inline empty", func(t *testing.T) {
		m := parseOne(t, `(module)`).(*InlineModule)
		if m.Module.Source != "(module)" {
			t.Errorf("source = %q", m.Module.Source)
		}
	})

	t.Run("inline with fields", func(t *testing.T) {
		src := `(module $m (func (result i32) (i32.const 0)) (export "f" (func 0)))`
		m := parseOne(t, src).(*InlineModule)
		if m.Module.ID != "$m" {
			t.Errorf("id = %q", m.Module.ID)
		}
		if m.Module.Source != src {
			t.Errorf("source = %q", m.Module.Source)
		}
		if len(m.Module.Fields) != 2 || m.Module.Fields[0].Keyword != "func" || m.Module.Fields[1].Keyword != "export" {
			t.Errorf("fields = %+v", m.Module.Fields)
		}
	})

	t.Run("quote", func(t *testing.T) {
		m := parseOne(t, `(module quote "(module" ")")`).(*QuoteModule)
		if m.Text != "(module)" {
			t.Errorf("text = %q", m.Text)
		}
	})

	t.Run("quote with id", func(t *testing.T) {
		m := parseOne(t, `(module $q quote "(module)")`).(*QuoteModule)
		if m.ID != "$q" || m.Text != "(module)" {
			t.Errorf("module = %+v", m)
		}
	})

	t.Run("binary", func(t *testing.T) {
		m := parseOne(t, `(module binary "\00asm" "\01\00\00\00")`).(*BinaryModule)
		want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
		if !bytes.Equal(m.Bytes, want) {
			t.Errorf("bytes = %x, want %x", m.Bytes, want)
		}
	})

	t.Run("binary empty payload", func(t *testing.T) {
		m := parseOne(t, `(module $b binary)`).(*BinaryModule)
		if m.ID != "$b" || len(m.Bytes) != 0 {
			t.Errorf("module = %+v", m)
		}
	})
}

func TestParseAssertReturn(t *testing.T) {
	t.Run("invoke with expected", func(t *testing.T) {
		a := parseOne(t, `(assert_return (invoke "add" (i32.const 1) (i32.const 2)) (i32.const 3))`).(*AssertReturn)
		inv, ok := a.Action.(*Invoke)
		if !ok {
			t.Fatal("action is not an invoke")
		}
		if inv.Name != "add" || len(inv.Args) != 2 {
			t.Errorf("invoke = %+v", inv)
		}
		if a.Expected == nil || a.Expected.Kind != I32 || a.Expected.I32 != 3 {
			t.Errorf("expected = %+v", a.Expected)
		}
	})

	t.Run("invoke without expected", func(t *testing.T) {
		a := parseOne(t, `(assert_return (invoke "store"))`).(*AssertReturn)
		if a.Expected != nil {
			t.Errorf("expected = %+v, want nil", a.Expected)
		}
	})

	t.Run("get", func(t *testing.T) {
		a := parseOne(t, `(assert_return (get "e") (i32.const 42))`).(*AssertReturn)
		get, ok := a.Action.(*GetGlobal)
		if !ok {
			t.Fatal("action is not a get")
		}
		if get.Name != "e" || get.ID != "" {
			t.Errorf("get = %+v", get)
		}
		if a.Expected == nil || a.Expected.I32 != 42 {
			t.Errorf("expected = %+v", a.Expected)
		}
	})

	t.Run("get with module id", func(t *testing.T) {
		a := parseOne(t, `(assert_return (get $Global "e") (f32.const nan:canonical))`).(*AssertReturn)
		get := a.Action.(*GetGlobal)
		if get.ID != "$Global" || get.Name != "e" {
			t.Errorf("get = %+v", get)
		}
		if a.Expected == nil || a.Expected.Kind != CanonicalNan {
			t.Errorf("expected = %+v", a.Expected)
		}
	})

	t.Run("get requires expected", func(t *testing.T) {
		_, err := Parse(`(assert_return (get "e"))`)
		if err == nil {
			t.Fatal("expected error, got none")
		}
	})

	t.Run("bad action", func(t *testing.T) {
		_, err := Parse(`(assert_return (nop))`)
		if err == nil {
			t.Fatal("expected error, got none")
		}
		if !strings.Contains(err.Error(), "'(invoke' or '(get' for assert_return") {
			t.Errorf("error = %q", err.Error())
		}
	})
}

func TestParseAssertTrap(t *testing.T) {
	a := parseOne(t, `(assert_trap (invoke "div" (i32.const 1) (i32.const 0)) "integer divide by zero")`).(*AssertTrap)
	if a.Invoke.Name != "div" || len(a.Invoke.Args) != 2 {
		t.Errorf("invoke = %+v", a.Invoke)
	}
	if a.Expected != "integer divide by zero" {
		t.Errorf("expected = %q", a.Expected)
	}
}

func TestParseAssertExhaustion(t *testing.T) {
	a := parseOne(t, `(assert_exhaustion (invoke "runaway") "call stack exhausted")`).(*AssertExhaustion)
	if a.Invoke.Name != "runaway" {
		t.Errorf("invoke = %+v", a.Invoke)
	}
	if a.Expected != "call stack exhausted" {
		t.Errorf("expected = %q", a.Expected)
	}
}

func TestParseAssertMalformed(t *testing.T) {
	t.Run("quote", func(t *testing.T) {
		a := parseOne(t, `(assert_malformed (module quote "(module (memory 0) (func)") "unexpected end")`).(*AssertMalformed)
		if a.Module.Kind != Quote {
			t.Errorf("kind = %v, want quote", a.Module.Kind)
		}
		if a.Module.Text != "(module (memory 0) (func)" {
			t.Errorf("text = %q", a.Module.Text)
		}
		if a.Expected != "unexpected end" {
			t.Errorf("expected = %q", a.Expected)
		}
	})

	t.Run("binary", func(t *testing.T) {
		a := parseOne(t, `(assert_malformed (module binary "\de\ad") "magic header not detected")`).(*AssertMalformed)
		if a.Module.Kind != Binary || !bytes.Equal(a.Module.Bytes, []byte{0xde, 0xad}) {
			t.Errorf("module = %+v", a.Module)
		}
	})

	t.Run("inline module rejected", func(t *testing.T) {
		_, err := Parse(`(assert_malformed (module (func)) "oops")`)
		if err == nil {
			t.Fatal("expected error, got none")
		}
	})
}

func TestParseAssertInvalid(t *testing.T) {
	a := parseOne(t, `(assert_invalid (module (func (result i32))) "type mismatch")`).(*AssertInvalid)
	if a.Module == nil || len(a.Module.Fields) != 1 || a.Module.Fields[0].Keyword != "func" {
		t.Errorf("module = %+v", a.Module)
	}
	if a.Expected != "type mismatch" {
		t.Errorf("expected = %q", a.Expected)
	}

	_, err := Parse(`(assert_invalid (module binary "") "oops")`)
	if err == nil {
		t.Fatal("embedded module accepted where inline required")
	}
}

func TestParseAssertUnlinkable(t *testing.T) {
	a := parseOne(t, `(assert_unlinkable (module (import "spectest" "unknown" (func))) "unknown import")`).(*AssertUnlinkable)
	if a.Module == nil || a.Module.Fields[0].Keyword != "import" {
		t.Errorf("module = %+v", a.Module)
	}
	if a.Expected != "unknown import" {
		t.Errorf("expected = %q", a.Expected)
	}
}

func TestParseRootOrder(t *testing.T) {
	source := `
;; test script
(module $lib (func) (export "f" (func 0)))
(register "lib" $lib)
(module quote "(module)")
(module binary "\00asm" "\01\00\00\00")
(invoke "f")
(assert_return (invoke "f") (i32.const 0))
(assert_return (get "g") (f64.const 1.5))
(assert_trap (invoke "f") "unreachable")
(assert_exhaustion (invoke "f") "call stack exhausted")
(assert_malformed (module quote "(module") "unexpected end")
(assert_invalid (module (func)) "type mismatch")
(assert_unlinkable (module (import "a" "b" (func))) "unknown import")
`
	root, err := Parse(source)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"module",
		"register",
		"module quote",
		"module binary",
		"invoke",
		"assert_return",
		"assert_return",
		"assert_trap",
		"assert_exhaustion",
		"assert_malformed",
		"assert_invalid",
		"assert_unlinkable",
	}
	if len(root.Directives) != len(want) {
		t.Fatalf("got %d directives, want %d", len(root.Directives), len(want))
	}
	for i, d := range root.Directives {
		if DirectiveName(d) != want[i] {
			t.Errorf("directive %d = %s, want %s", i, DirectiveName(d), want[i])
		}
	}
}

func TestParseEmpty(t *testing.T) {
	root, err := Parse("  ;; nothing here\n(; not even\n a module ;)\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Directives) != 0 {
		t.Errorf("got %d directives, want 0", len(root.Directives))
	}
}

func TestParseErrorChaining(t *testing.T) {
	// The embedded form fails on "(frob", the inline fallback fails on
	// the unknown field keyword, and the final error carries exactly one
	// level of the discarded attempt.
	_, err := Parse(`(module (frob))`)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	perr, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if perr.Phase != errors.PhaseCompile {
		t.Errorf("phase = %s, want %s", perr.Phase, errors.PhaseCompile)
	}
	if perr.Prev == nil {
		t.Fatal("discarded attempt not attached")
	}
	if perr.Prev.Kind != errors.KindUnexpectedToken {
		t.Errorf("prev kind = %s", perr.Prev.Kind)
	}
	if perr.Prev.Prev != nil {
		t.Error("discarded attempt chain deeper than one level")
	}
}

func TestParseErrorNotChainedOnSuccess(t *testing.T) {
	// A successful inline fallback discards the speculative error; a
	// later failure must not resurrect it.
	_, err := Parse(`(module (func)) (flub)`)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	perr, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if perr.Prev != nil {
		t.Errorf("stale discarded attempt attached: %v", perr.Prev)
	}
}

func TestParseUnknownDirective(t *testing.T) {
	_, err := Parse(`(frobnicate)`)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if !strings.Contains(err.Error(), "keyword for WAST directive") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParseLexicalErrorSurfaces(t *testing.T) {
	_, err := Parse(`(invoke "unterminated`)
	if err == nil {
		t.Fatal("expected error, got none")
	}
	perr, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if perr.Phase != errors.PhaseLex {
		t.Errorf("phase = %s, want %s", perr.Phase, errors.PhaseLex)
	}
}

func TestUseCompiler(t *testing.T) {
	p := New(`(module (func))`)
	called := false
	p.UseCompiler(func(la *lexer.LookAhead, source string) (*wat.Module, *lexer.LookAhead, error) {
		called = true
		return defaultCompile(la, source)
	})
	root, err := p.Root()
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("substitute compiler was not called")
	}
	if _, ok := root.Directives[0].(*InlineModule); !ok {
		t.Errorf("directive = %T, want inline module", root.Directives[0])
	}
}
