package script

import "github.com/wippyai/wast/wat"

// ConstKind tags a Const value.
type ConstKind int

const (
	I32 ConstKind = iota
	I64
	F32
	F64
	// CanonicalNan and ArithmeticNan assert "any NaN of this class";
	// the concrete bit pattern is chosen by the execution engine at
	// assertion time, never by the parser.
	CanonicalNan
	ArithmeticNan
)

func (k ConstKind) String() string {
	switch k {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case CanonicalNan:
		return "nan:canonical"
	case ArithmeticNan:
		return "nan:arithmetic"
	}
	return "unknown"
}

// Const is one typed constant argument or expected value. Only the
// field matching Kind is meaningful. Integer constants hold the exact
// two's-complement reinterpretation of the source literal; float
// constants hold the exact bit pattern the literal decodes to.
type Const struct {
	I64  int64
	F64  float64
	I32  int32
	F32  float32
	Kind ConstKind
}

func I32Const(v int32) Const    { return Const{Kind: I32, I32: v} }
func I64Const(v int64) Const    { return Const{Kind: I64, I64: v} }
func F32Const(v float32) Const  { return Const{Kind: F32, F32: v} }
func F64Const(v float64) Const  { return Const{Kind: F64, F64: v} }
func CanonicalNanConst() Const  { return Const{Kind: CanonicalNan} }
func ArithmeticNanConst() Const { return Const{Kind: ArithmeticNan} }

// Action is an invoke or global-read request that can stand alone or
// be paired with an expected outcome in an assertion.
type Action interface {
	Pos() int
	action()
}

// Directive is one top-level parsed statement.
type Directive interface {
	Pos() int
	directive()
}

// Invoke calls an export of a previously instantiated module.
type Invoke struct {
	ID    string // "$name" of the module instance, or ""
	Name  string // export name, escape-decoded
	Args  []Const
	Start int
}

func (i *Invoke) Pos() int   { return i.Start }
func (i *Invoke) action()    {}
func (i *Invoke) directive() {}

// GetGlobal reads an exported global.
type GetGlobal struct {
	ID    string
	Name  string
	Start int
}

func (g *GetGlobal) Pos() int { return g.Start }
func (g *GetGlobal) action() {}

// Register binds the most recent module instance (or the one named by
// ID) under a name for import by later modules.
type Register struct {
	Name  string
	ID    string
	Start int
}

func (r *Register) Pos() int   { return r.Start }
func (r *Register) directive() {}

// EmbeddedKind distinguishes the two embedded module payload forms.
type EmbeddedKind int

const (
	Quote EmbeddedKind = iota
	Binary
)

// EmbeddedModule is a module supplied as literal quoted source text or
// as an already-encoded binary payload. Text is set for Quote, Bytes
// for Binary. The optional ID is retained so an engine can register
// embedded modules by name.
type EmbeddedModule struct {
	ID    string
	Text  string
	Bytes []byte
	Kind  EmbeddedKind
	Start int
}

func (m *EmbeddedModule) Pos() int { return m.Start }

// InlineModule is a module written in the script's own grammar,
// captured by the module compiler.
type InlineModule struct {
	Module *wat.Module
}

func (m *InlineModule) Pos() int   { return m.Module.Offset }
func (m *InlineModule) directive() {}

// QuoteModule is a standalone (module quote ...) directive.
type QuoteModule struct {
	ID    string
	Text  string
	Start int
}

func (m *QuoteModule) Pos() int   { return m.Start }
func (m *QuoteModule) directive() {}

// BinaryModule is a standalone (module binary ...) directive.
type BinaryModule struct {
	ID    string
	Bytes []byte
	Start int
}

func (m *BinaryModule) Pos() int   { return m.Start }
func (m *BinaryModule) directive() {}

// AssertReturn pairs an action with an optional expected constant. The
// expected value is required when Action is a *GetGlobal and optional
// for a *Invoke.
type AssertReturn struct {
	Action   Action
	Expected *Const
	Start    int
}

func (a *AssertReturn) Pos() int   { return a.Start }
func (a *AssertReturn) directive() {}

// AssertTrap expects an invocation to trap with a message containing
// Expected. The message is compared by the execution engine.
type AssertTrap struct {
	Invoke   *Invoke
	Expected string
	Start    int
}

func (a *AssertTrap) Pos() int   { return a.Start }
func (a *AssertTrap) directive() {}

// AssertExhaustion expects an invocation to exhaust a resource,
// typically the call stack.
type AssertExhaustion struct {
	Invoke   *Invoke
	Expected string
	Start    int
}

func (a *AssertExhaustion) Pos() int   { return a.Start }
func (a *AssertExhaustion) directive() {}

// AssertMalformed expects an embedded module payload to be rejected
// during decoding or re-lexing.
type AssertMalformed struct {
	Module   *EmbeddedModule
	Expected string
	Start    int
}

func (a *AssertMalformed) Pos() int   { return a.Start }
func (a *AssertMalformed) directive() {}

// AssertInvalid expects an inline module to fail validation.
type AssertInvalid struct {
	Module   *wat.Module
	Expected string
	Start    int
}

func (a *AssertInvalid) Pos() int   { return a.Start }
func (a *AssertInvalid) directive() {}

// AssertUnlinkable expects an inline module to fail instantiation.
type AssertUnlinkable struct {
	Module   *wat.Module
	Expected string
	Start    int
}

func (a *AssertUnlinkable) Pos() int   { return a.Start }
func (a *AssertUnlinkable) directive() {}

// Root is one fully parsed script. Directives preserve source order;
// later directives may reference modules and globals registered by
// earlier ones.
type Root struct {
	Directives []Directive
}

// DirectiveName reports the source keyword form of a directive, for
// listings and logs.
func DirectiveName(d Directive) string {
	switch d.(type) {
	case *InlineModule:
		return "module"
	case *QuoteModule:
		return "module quote"
	case *BinaryModule:
		return "module binary"
	case *Invoke:
		return "invoke"
	case *Register:
		return "register"
	case *AssertReturn:
		return "assert_return"
	case *AssertTrap:
		return "assert_trap"
	case *AssertExhaustion:
		return "assert_exhaustion"
	case *AssertMalformed:
		return "assert_malformed"
	case *AssertInvalid:
		return "assert_invalid"
	case *AssertUnlinkable:
		return "assert_unlinkable"
	}
	return "unknown"
}
