package script

import (
	"math"
	"strings"
	"testing"

	"github.com/wippyai/wast/errors"
)

func parseOneConst(t *testing.T, source string) Const {
	t.Helper()
	p := New(source)
	c, err := p.parseConst()
	if err != nil {
		t.Fatalf("parsing %q: %v", source, err)
	}
	return c
}

func TestConstI32(t *testing.T) {
	tests := []struct {
		source string
		want   int32
	}{
		{"(i32.const 0)", 0},
		{"(i32.const 123)", 123},
		{"(i32.const +42)", 42},
		{"(i32.const -123)", -123},
		{"(i32.const 1_234)", 1234},
		{"(i32.const 0x1f)", 0x1f},
		{"(i32.const -0x1f)", -0x1f},
		{"(i32.const 2147483647)", math.MaxInt32},
		{"(i32.const -2147483648)", math.MinInt32},
		{"(i32.const -0x80000000)", math.MinInt32},
		// Above i32_max the literal is read as u32 and reinterpreted.
		{"(i32.const 2147483648)", math.MinInt32},
		{"(i32.const 4294967295)", -1},
		{"(i32.const 0xffffffff)", -1},
		{"(i32.const 0xfedc6543)", -19110589},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			c := parseOneConst(t, tt.source)
			if c.Kind != I32 {
				t.Fatalf("kind = %s, want i32", c.Kind)
			}
			if c.I32 != tt.want {
				t.Errorf("value = %d, want %d", c.I32, tt.want)
			}
		})
	}
}

func TestConstI64(t *testing.T) {
	tests := []struct {
		source string
		want   int64
	}{
		{"(i64.const 0)", 0},
		{"(i64.const 123)", 123},
		{"(i64.const -123)", -123},
		{"(i64.const 9223372036854775807)", math.MaxInt64},
		{"(i64.const -9223372036854775808)", math.MinInt64},
		{"(i64.const -0x8000000000000000)", math.MinInt64},
		{"(i64.const 9223372036854775808)", math.MinInt64},
		{"(i64.const 18446744073709551615)", -1},
		{"(i64.const 0xffffffffffffffff)", -1},
		{"(i64.const 0x8000000000000000)", math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			c := parseOneConst(t, tt.source)
			if c.Kind != I64 {
				t.Fatalf("kind = %s, want i64", c.Kind)
			}
			if c.I64 != tt.want {
				t.Errorf("value = %d, want %d", c.I64, tt.want)
			}
		})
	}
}

func TestConstIntOutOfRange(t *testing.T) {
	tests := []string{
		"(i32.const 4294967296)",
		"(i32.const 0x100000000)",
		"(i32.const -2147483649)",
		"(i32.const -0x80000001)",
		"(i64.const 18446744073709551616)",
		"(i64.const -9223372036854775809)",
		"(i64.const -0x8000000000000001)",
	}
	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			p := New(source)
			_, err := p.parseConst()
			if err == nil {
				t.Fatal("expected error, got none")
			}
			perr, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error type = %T, want *errors.Error", err)
			}
			if perr.Kind != errors.KindIntOutOfRange && perr.Kind != errors.KindInvalidInt {
				t.Errorf("kind = %s, want an integer decode error", perr.Kind)
			}
		})
	}
}

func TestConstF32(t *testing.T) {
	tests := []struct {
		source string
		want   float32
	}{
		{"(f32.const 0)", 0},
		{"(f32.const 42)", 42},
		{"(f32.const -42)", -42},
		{"(f32.const 3.14)", 3.14},
		{"(f32.const -3.14)", -3.14},
		{"(f32.const 1.5e3)", 1500},
		{"(f32.const 1.5E3)", 1500},
		{"(f32.const 1.5e-2)", 0.015},
		{"(f32.const 3.4_6)", 3.46},
		{"(f32.const 0x1f)", 31},
		{"(f32.const 0x12.34)", 18.203125},
		{"(f32.const 0x12.34p2)", 72.8125},
		{"(f32.const 0x12.34P2)", 72.8125},
		{"(f32.const 0x12.34p-2)", 4.55078125},
		{"(f32.const -0x12.34p2)", -72.8125},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			c := parseOneConst(t, tt.source)
			if c.Kind != F32 {
				t.Fatalf("kind = %s, want f32", c.Kind)
			}
			if c.F32 != tt.want {
				t.Errorf("value = %g, want %g", c.F32, tt.want)
			}
		})
	}
}

func TestConstF64(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"(f64.const 0)", 0},
		{"(f64.const 123.456)", 123.456},
		{"(f64.const -123.456)", -123.456},
		{"(f64.const 1e3)", 1000},
		{"(f64.const 1.5e-2)", 0.015},
		{"(f64.const 0x12.34)", 18.203125},
		{"(f64.const 0x12.34p2)", 72.8125},
		{"(f64.const 0x12.34p-2)", 4.55078125},
		{"(f64.const 0x1p10)", 1024},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			c := parseOneConst(t, tt.source)
			if c.Kind != F64 {
				t.Fatalf("kind = %s, want f64", c.Kind)
			}
			if c.F64 != tt.want {
				t.Errorf("value = %g, want %g", c.F64, tt.want)
			}
		})
	}
}

func TestConstFloatSpecials(t *testing.T) {
	t.Run("f32 inf", func(t *testing.T) {
		c := parseOneConst(t, "(f32.const inf)")
		if !math.IsInf(float64(c.F32), 1) {
			t.Errorf("value = %g, want +inf", c.F32)
		}
	})
	t.Run("f32 -inf", func(t *testing.T) {
		c := parseOneConst(t, "(f32.const -inf)")
		if !math.IsInf(float64(c.F32), -1) {
			t.Errorf("value = %g, want -inf", c.F32)
		}
	})
	t.Run("f64 inf", func(t *testing.T) {
		c := parseOneConst(t, "(f64.const inf)")
		if !math.IsInf(c.F64, 1) {
			t.Errorf("value = %g, want +inf", c.F64)
		}
	})
	t.Run("f32 nan", func(t *testing.T) {
		for _, source := range []string{
			"(f32.const nan)",
			"(f32.const -nan)",
			"(f32.const nan:0x12)",
		} {
			c := parseOneConst(t, source)
			if c.Kind != F32 || !math.IsNaN(float64(c.F32)) {
				t.Errorf("%s: got %s %g, want f32 NaN", source, c.Kind, c.F32)
			}
		}
	})
	t.Run("f64 nan", func(t *testing.T) {
		for _, source := range []string{
			"(f64.const nan)",
			"(f64.const nan:0x1234)",
		} {
			c := parseOneConst(t, source)
			if c.Kind != F64 || !math.IsNaN(c.F64) {
				t.Errorf("%s: got %s %g, want f64 NaN", source, c.Kind, c.F64)
			}
		}
	})
	t.Run("nan classes", func(t *testing.T) {
		c := parseOneConst(t, "(f32.const nan:canonical)")
		if c.Kind != CanonicalNan {
			t.Errorf("kind = %s, want nan:canonical", c.Kind)
		}
		c = parseOneConst(t, "(f64.const nan:arithmetic)")
		if c.Kind != ArithmeticNan {
			t.Errorf("kind = %s, want nan:arithmetic", c.Kind)
		}
	})
	t.Run("integer operand", func(t *testing.T) {
		c := parseOneConst(t, "(f32.const 1)")
		if c.Kind != F32 || c.F32 != 1 {
			t.Errorf("got %s %g, want f32 1", c.Kind, c.F32)
		}
		c = parseOneConst(t, "(f64.const -3)")
		if c.Kind != F64 || c.F64 != -3 {
			t.Errorf("got %s %g, want f64 -3", c.Kind, c.F64)
		}
	})
}

func TestConstErrors(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"(i32.const)", "i32 value"},
		{"(i32.const 3.14)", "i32 value"},
		{"(i64.const \"hi\")", "i64 value"},
		{"(f32.const)", "f32 value"},
		{"(nop)", "t.const for constant"},
		{"(i32.const 1", "')' closing constant"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			p := New(tt.source)
			_, err := p.parseConst()
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.expected)
			}
		})
	}
}
