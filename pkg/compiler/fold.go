package compiler

import "math"

// constValue is what the parser knows about a declared name. Only const
// declarations carry a value; every other declaration is recorded with
// known == false so that it shadows an outer constant of the same name.
type constValue struct {
	typ    Type
	known  bool
	scalar Expr   // *IntLit or *FloatLit
	elems  []Expr // flattened literals of a const array
}

// constEnv mirrors block nesting during parsing.
type constEnv struct {
	scopes []map[string]*constValue
}

func newConstEnv() *constEnv {
	return &constEnv{scopes: []map[string]*constValue{{}}}
}

func (c *constEnv) push() { c.scopes = append(c.scopes, map[string]*constValue{}) }
func (c *constEnv) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *constEnv) bind(name string, v *constValue) {
	c.scopes[len(c.scopes)-1][name] = v
}

func (c *constEnv) lookup(name string) *constValue {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

func zeroLit(b BasicType, at Pos) Expr {
	if b == Float {
		return &FloatLit{At: at}
	}
	return &IntLit{At: at}
}

func boolLit(v bool, at Pos) *IntLit {
	if v {
		return &IntLit{At: at, Value: 1}
	}
	return &IntLit{At: at}
}

// litFloat widens a literal to float; ok is false for non-literals.
func litFloat(e Expr) (float32, bool) {
	switch l := e.(type) {
	case *IntLit:
		return float32(l.Value), true
	case *FloatLit:
		return l.Value, true
	}
	return 0, false
}

// fold reduces e to an *IntLit or *FloatLit using only literals and
// previously declared constants. It returns nil when e is not constant.
func (p *Parser) fold(e Expr) (Expr, error) {
	switch n := e.(type) {
	case *IntLit, *FloatLit:
		return n, nil

	case *VarRef:
		v := p.consts.lookup(n.Name)
		if v == nil || !v.known || v.scalar == nil {
			return nil, nil
		}
		return relocate(v.scalar, n.At), nil

	case *IndexExpr:
		v := p.consts.lookup(n.Name)
		if v == nil || !v.known || v.elems == nil || len(n.Indices) != len(v.typ.Dims) {
			return nil, nil
		}
		flat := 0
		for k, ix := range n.Indices {
			lit, err := p.fold(ix)
			if err != nil || lit == nil {
				return nil, err
			}
			il, ok := lit.(*IntLit)
			if !ok {
				return nil, semErr(InvalidArrayIndex, ix.Pos(), "array index must be an integer")
			}
			if il.Value < 0 || int(il.Value) >= v.typ.Dims[k] {
				return nil, semErr(InvalidArrayIndex, ix.Pos(), "index %d out of range for dimension of size %d", il.Value, v.typ.Dims[k])
			}
			flat += int(il.Value) * v.typ.Stride(k)
		}
		return relocate(v.elems[flat], n.At), nil

	case *UnaryExpr:
		x, err := p.fold(n.X)
		if err != nil || x == nil {
			return nil, err
		}
		switch n.Op {
		case PLUS:
			return x, nil
		case MINUS:
			if il, ok := x.(*IntLit); ok {
				return &IntLit{At: n.At, Value: -il.Value}, nil
			}
			return &FloatLit{At: n.At, Value: -x.(*FloatLit).Value}, nil
		case NOT:
			f, _ := litFloat(x)
			return boolLit(f == 0, n.At), nil
		}

	case *BinaryExpr:
		l, err := p.fold(n.Left)
		if err != nil || l == nil {
			return nil, err
		}
		r, err := p.fold(n.Right)
		if err != nil || r == nil {
			return nil, err
		}
		return foldBinary(n, l, r)

	case *LogicalExpr:
		l, err := p.fold(n.Left)
		if err != nil || l == nil {
			return nil, err
		}
		// The right operand is not evaluated once the left decides.
		lf, _ := litFloat(l)
		if n.Op == AND_LOGICAL && lf == 0 {
			return boolLit(false, n.At), nil
		}
		if n.Op == OR_LOGICAL && lf != 0 {
			return boolLit(true, n.At), nil
		}
		r, err := p.fold(n.Right)
		if err != nil || r == nil {
			return nil, err
		}
		rf, _ := litFloat(r)
		return boolLit(rf != 0, n.At), nil
	}
	return nil, nil
}

func relocate(lit Expr, at Pos) Expr {
	switch l := lit.(type) {
	case *IntLit:
		return &IntLit{At: at, Value: l.Value}
	case *FloatLit:
		return &FloatLit{At: at, Value: l.Value}
	}
	return lit
}

func foldBinary(n *BinaryExpr, l, r Expr) (Expr, error) {
	li, lInt := l.(*IntLit)
	ri, rInt := r.(*IntLit)
	if lInt && rInt {
		a, b := li.Value, ri.Value
		switch n.Op {
		case PLUS:
			return &IntLit{At: n.At, Value: a + b}, nil
		case MINUS:
			return &IntLit{At: n.At, Value: a - b}, nil
		case STAR:
			return &IntLit{At: n.At, Value: a * b}, nil
		case SLASH, PERCENT:
			if b == 0 {
				return nil, semErr(NonConstantInConstContext, n.At, "division by zero in constant expression")
			}
			if n.Op == SLASH {
				return &IntLit{At: n.At, Value: a / b}, nil
			}
			return &IntLit{At: n.At, Value: a % b}, nil
		case EQUALS:
			return boolLit(a == b, n.At), nil
		case NOT_EQ:
			return boolLit(a != b, n.At), nil
		case LESS:
			return boolLit(a < b, n.At), nil
		case GREATER:
			return boolLit(a > b, n.At), nil
		case LESS_EQ:
			return boolLit(a <= b, n.At), nil
		case GREATER_EQ:
			return boolLit(a >= b, n.At), nil
		}
		return nil, nil
	}

	a, _ := litFloat(l)
	b, _ := litFloat(r)
	switch n.Op {
	case PLUS:
		return &FloatLit{At: n.At, Value: a + b}, nil
	case MINUS:
		return &FloatLit{At: n.At, Value: a - b}, nil
	case STAR:
		return &FloatLit{At: n.At, Value: a * b}, nil
	case SLASH:
		if b == 0 {
			return nil, semErr(NonConstantInConstContext, n.At, "division by zero in constant expression")
		}
		return &FloatLit{At: n.At, Value: a / b}, nil
	case PERCENT:
		return nil, semErr(TypeMismatch, n.At, "operator %% requires int operands, got float")
	case EQUALS:
		return boolLit(a == b, n.At), nil
	case NOT_EQ:
		return boolLit(a != b, n.At), nil
	case LESS:
		return boolLit(a < b, n.At), nil
	case GREATER:
		return boolLit(a > b, n.At), nil
	case LESS_EQ:
		return boolLit(a <= b, n.At), nil
	case GREATER_EQ:
		return boolLit(a >= b, n.At), nil
	}
	return nil, nil
}

// constExpr folds e in a context that requires a constant of type want.
// what names the context for the diagnostic.
func (p *Parser) constExpr(e Expr, want BasicType, what string) (Expr, error) {
	lit, err := p.fold(e)
	if err != nil {
		return nil, err
	}
	if lit == nil {
		return nil, semErr(NonConstantInConstContext, e.Pos(), "%s is not a compile-time constant", what)
	}
	switch l := lit.(type) {
	case *IntLit:
		if want == Float {
			return &FloatLit{At: l.At, Value: float32(l.Value)}, nil
		}
	case *FloatLit:
		if want == Int {
			return nil, semErr(TypeMismatch, e.Pos(), "%s has type float, want int", what)
		}
		if math.IsInf(float64(l.Value), 0) || math.IsNaN(float64(l.Value)) {
			return nil, semErr(NonConstantInConstContext, e.Pos(), "%s does not fold to a finite value", what)
		}
	}
	return lit, nil
}

// flattenInit lays a brace initializer out in row-major order for an array
// of type t. A nested list starts at the next boundary of the largest
// sub-array that fits at the current offset; missing elements are nil.
func flattenInit(list *InitList, t Type) ([]Expr, error) {
	out := make([]Expr, 0, t.Elems())
	if err := fillInit(&out, list, t.Dims); err != nil {
		return nil, err
	}
	return out, nil
}

func fillInit(out *[]Expr, list *InitList, dims []int) error {
	size := 1
	for _, d := range dims {
		size *= d
	}
	start := len(*out)
	for _, e := range list.Elems {
		if len(*out)-start >= size {
			return semErr(TypeMismatch, e.Pos(), "excess elements in array initializer")
		}
		sub, ok := e.(*InitList)
		if !ok {
			*out = append(*out, e)
			continue
		}
		offset := len(*out) - start
		inner := dims[1:]
		for len(inner) > 0 && offset%product(inner) != 0 {
			inner = inner[1:]
		}
		if len(inner) == 0 {
			return semErr(TypeMismatch, sub.At, "braces around scalar initializer")
		}
		if err := fillInit(out, sub, inner); err != nil {
			return err
		}
	}
	for len(*out)-start < size {
		*out = append(*out, nil)
	}
	return nil
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
