package compiler

import (
	"fmt"
	"strings"
)

// BasicType is the scalar part of every source-level type.
type BasicType int

const (
	Void BasicType = iota
	Int
	Float
	Bool // result of comparisons; never declared in source
)

func (b BasicType) String() string {
	switch b {
	case Void:
		return "void"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("BasicType(%d)", int(b))
}

// Type is a scalar or a fixed-shape array of scalars.
//
//	int a[2][3]        Type{Basic: Int, Dims: [2 3]}
//	float p[][4]       Type{Basic: Float, Dims: [0 4], Decayed: true}
type Type struct {
	Basic   BasicType
	Dims    []int
	Decayed bool // array parameter passed as a pointer; Dims[0] is unknown
}

func Scalar(b BasicType) Type { return Type{Basic: b} }

func (t Type) IsArray() bool { return len(t.Dims) > 0 }

// Elems is the number of scalars covered by the shape, or 0 for a
// decayed array.
func (t Type) Elems() int {
	if t.Decayed {
		return 0
	}
	n := 1
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// Stride is the number of scalars spanned by one step of index k.
func (t Type) Stride(k int) int {
	n := 1
	for _, d := range t.Dims[k+1:] {
		n *= d
	}
	return n
}

func (t Type) String() string {
	var sb strings.Builder
	sb.WriteString(t.Basic.String())
	for i, d := range t.Dims {
		if i == 0 && t.Decayed {
			sb.WriteString("[]")
			continue
		}
		fmt.Fprintf(&sb, "[%d]", d)
	}
	return sb.String()
}

// sameTrailingDims reports whether a and b agree on every dimension after
// the first.
func sameTrailingDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 1; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FuncSig is the checked signature of a function.
type FuncSig struct {
	Ret    BasicType
	Params []Type
}

func (s *FuncSig) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", s.Ret, strings.Join(parts, ", "))
}
