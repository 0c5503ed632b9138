package ir

import (
	"fmt"
	"strings"
)

type TypeKind int

const (
	TVoid TypeKind = iota
	TInt
	TFloat
	TPtr
	TArray
	TFunc
)

// Type is an interned IR type. Two *Type values obtained from the same Types
// table are equal exactly when they describe the same type.
type Type struct {
	K      TypeKind
	Bits   int     // TInt width
	Len    int     // TArray length
	Elem   *Type   // TArray element
	Ret    *Type   // TFunc result
	Params []*Type // TFunc parameters

	str string
}

func (t *Type) String() string { return t.str }

// Size is the storage size in bytes.
func (t *Type) Size() int {
	switch t.K {
	case TInt:
		if t.Bits <= 8 {
			return 1
		}
		return t.Bits / 8
	case TFloat:
		return 4
	case TPtr:
		return 8
	case TArray:
		return t.Len * t.Elem.Size()
	}
	return 0
}

// Scalar returns the innermost element type of nested arrays.
func (t *Type) Scalar() *Type {
	for t.K == TArray {
		t = t.Elem
	}
	return t
}

func spell(t *Type) string {
	switch t.K {
	case TVoid:
		return "void"
	case TInt:
		return fmt.Sprintf("i%d", t.Bits)
	case TFloat:
		return "float"
	case TPtr:
		return "ptr"
	case TArray:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case TFunc:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("%s (%s)", t.Ret, strings.Join(parts, ", "))
	}
	return "<bad>"
}

// Types interns type descriptors for one module.
type Types struct {
	byName map[string]*Type

	Void  *Type
	I1    *Type
	I8    *Type
	I32   *Type
	Float *Type
	Ptr   *Type
}

func NewTypes() *Types {
	ts := &Types{byName: make(map[string]*Type)}
	ts.Void = ts.intern(&Type{K: TVoid})
	ts.I1 = ts.intern(&Type{K: TInt, Bits: 1})
	ts.I8 = ts.intern(&Type{K: TInt, Bits: 8})
	ts.I32 = ts.intern(&Type{K: TInt, Bits: 32})
	ts.Float = ts.intern(&Type{K: TFloat})
	ts.Ptr = ts.intern(&Type{K: TPtr})
	return ts
}

func (ts *Types) intern(t *Type) *Type {
	t.str = spell(t)
	if have, ok := ts.byName[t.str]; ok {
		return have
	}
	ts.byName[t.str] = t
	return t
}

// Array returns [n x elem].
func (ts *Types) Array(n int, elem *Type) *Type {
	return ts.intern(&Type{K: TArray, Len: n, Elem: elem})
}

// Nested returns the array type with the given dimensions, outermost first.
func (ts *Types) Nested(elem *Type, dims []int) *Type {
	t := elem
	for i := len(dims) - 1; i >= 0; i-- {
		t = ts.Array(dims[i], t)
	}
	return t
}

// Func returns the signature type ret (params...).
func (ts *Types) Func(ret *Type, params ...*Type) *Type {
	return ts.intern(&Type{K: TFunc, Ret: ret, Params: params})
}

// Len reports how many distinct types have been interned.
func (ts *Types) Len() int { return len(ts.byName) }
