package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is an instruction operand.
type Value interface {
	Type() *Type
	// Ident is the operand spelling without its type, e.g. "%t3" or "42".
	Ident() string
}

// typed spells a value together with its type, "i32 %t3".
func typed(v Value) string { return v.Type().String() + " " + v.Ident() }

// Register is a virtual register holding an instruction result or a
// parameter. It formats as %tN.
type Register struct {
	ID int
	Ty *Type
}

func (r *Register) Type() *Type   { return r.Ty }
func (r *Register) Ident() string { return fmt.Sprintf("%%t%d", r.ID) }

// ConstInt is an integer literal; i1 constants spell true/false.
type ConstInt struct {
	Ty *Type
	V  int64
}

func (c *ConstInt) Type() *Type { return c.Ty }
func (c *ConstInt) Ident() string {
	if c.Ty.Bits == 1 {
		if c.V != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.FormatInt(c.V, 10)
}

// ConstFloat is a float literal. LLVM requires float constants to be spelled
// as the hex image of the equivalent double.
type ConstFloat struct {
	Ty *Type
	V  float32
}

func (c *ConstFloat) Type() *Type { return c.Ty }
func (c *ConstFloat) Ident() string {
	if c.V == 0 && !math.Signbit(float64(c.V)) {
		return "0.0"
	}
	return fmt.Sprintf("0x%016X", math.Float64bits(float64(c.V)))
}

// ZeroInit is the all-zero aggregate constant.
type ZeroInit struct {
	Ty *Type
}

func (z *ZeroInit) Type() *Type { return z.Ty }
func (*ZeroInit) Ident() string { return "zeroinitializer" }

// ConstArray is an aggregate constant with one element per array slot.
type ConstArray struct {
	Ty    *Type
	Elems []Value
}

func (c *ConstArray) Type() *Type { return c.Ty }
func (c *ConstArray) Ident() string {
	parts := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		parts[i] = typed(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IsZero reports whether v is a constant whose every bit is zero.
func IsZero(v Value) bool {
	switch c := v.(type) {
	case *ConstInt:
		return c.V == 0
	case *ConstFloat:
		return c.V == 0 && !math.Signbit(float64(c.V))
	case *ZeroInit:
		return true
	case *ConstArray:
		for _, e := range c.Elems {
			if !IsZero(e) {
				return false
			}
		}
		return true
	}
	return false
}

// Global is a module-level variable. As an operand it is the address of
// its storage.
type Global struct {
	Name    string
	Content *Type
	Init    Value
	Const   bool
	ptr     *Type
}

func (g *Global) Type() *Type   { return g.ptr }
func (g *Global) Ident() string { return "@" + g.Name }

func (g *Global) String() string {
	kind := "global"
	if g.Const {
		kind = "constant"
	}
	return fmt.Sprintf("@%s = %s %s", g.Name, kind, typed(g.Init))
}
