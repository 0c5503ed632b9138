package compiler

import (
	"fmt"

	"cactc/pkg/ir"
)

var (
	intOps   = map[TokenType]string{PLUS: "add", MINUS: "sub", STAR: "mul", SLASH: "sdiv", PERCENT: "srem"}
	floatOps = map[TokenType]string{PLUS: "fadd", MINUS: "fsub", STAR: "fmul", SLASH: "fdiv"}
	intPreds = map[TokenType]string{
		EQUALS: "eq", NOT_EQ: "ne", LESS: "slt", GREATER: "sgt", LESS_EQ: "sle", GREATER_EQ: "sge",
	}
	floatPreds = map[TokenType]string{
		EQUALS: "oeq", NOT_EQ: "une", LESS: "olt", GREATER: "ogt", LESS_EQ: "ole", GREATER_EQ: "oge",
	}
)

// genExpr lowers e to a register or an inline constant.
func (cg *CodeGen) genExpr(e Expr) (value, error) {
	switch n := e.(type) {
	case *IntLit:
		return value{cg.b.Int(n.Value), Int}, nil

	case *FloatLit:
		return value{cg.b.Float(n.Value), Float}, nil

	case *VarRef:
		sym, err := cg.lookupVar(n.Name, n.At)
		if err != nil {
			return value{}, err
		}
		if sym.Type.IsArray() {
			return value{}, semErr(TypeMismatch, n.At, "array %q used as a scalar value", n.Name)
		}
		if sym.Value != nil {
			return value{sym.Value, sym.Type.Basic}, nil
		}
		return value{cg.b.Load(cg.irType(sym.Type.Basic), sym.Addr), sym.Type.Basic}, nil

	case *IndexExpr:
		sym, err := cg.lookupVar(n.Name, n.At)
		if err != nil {
			return value{}, err
		}
		addr, rest, err := cg.elementAddr(sym, n.Indices, n.At)
		if err != nil {
			return value{}, err
		}
		if len(rest) > 0 {
			return value{}, semErr(InvalidArrayIndex, n.At, "%s has %d indices, %q needs %d", n, len(n.Indices), n.Name, len(sym.Type.Dims))
		}
		return value{cg.b.Load(cg.irType(sym.Type.Basic), addr), sym.Type.Basic}, nil

	case *UnaryExpr:
		return cg.genUnary(n)

	case *BinaryExpr:
		return cg.genBinary(n)

	case *LogicalExpr:
		return cg.genLogical(n)

	case *CallExpr:
		return cg.genCall(n)

	case *InitList:
		return value{}, semErr(TypeMismatch, n.At, "brace list used as a value")
	}
	return value{}, fmt.Errorf("%s: unexpected expression %T", e.Pos(), e)
}

// genScalar is genExpr for operand positions, where void is not allowed.
func (cg *CodeGen) genScalar(e Expr) (value, error) {
	v, err := cg.genExpr(e)
	if err != nil {
		return value{}, err
	}
	if v.t == Void {
		return value{}, semErr(TypeMismatch, e.Pos(), "%s returns void and has no value", e)
	}
	return v, nil
}

// promote widens v to the numeric type to. Narrowing float to int is never
// implicit; callers reject it before getting here.
func (cg *CodeGen) promote(v value, to BasicType) ir.Value {
	if v.t == to {
		return v.v
	}
	switch {
	case v.t == Bool && to == Int:
		if c, ok := v.v.(*ir.ConstInt); ok {
			return cg.b.Int(int32(c.V))
		}
		return cg.b.Cast("zext", v.v, cg.b.Types.I32)
	case v.t == Bool && to == Float:
		if c, ok := v.v.(*ir.ConstInt); ok {
			return cg.b.Float(float32(c.V))
		}
		return cg.b.Cast("uitofp", v.v, cg.b.Types.Float)
	case v.t == Int && to == Float:
		if c, ok := v.v.(*ir.ConstInt); ok {
			return cg.b.Float(float32(c.V))
		}
		return cg.b.Cast("sitofp", v.v, cg.b.Types.Float)
	}
	panic(&ir.InvariantError{Msg: fmt.Sprintf("cannot promote %s to %s", v.t, to)})
}

// convert checks that v may be stored as type to and returns the converted
// value. kind selects the diagnostic for an incompatible value.
func (cg *CodeGen) convert(v value, to BasicType, pos Pos, kind SemanticKind, what string) (ir.Value, error) {
	switch {
	case v.t == Void:
		return nil, semErr(kind, pos, "%s: void value used as %s", what, to)
	case v.t == Float && to == Int:
		return nil, semErr(kind, pos, "%s: cannot use float value as int", what)
	}
	return cg.promote(v, to), nil
}

// arithType is the common type of a binary operation.
func arithType(a, b BasicType) BasicType {
	if a == Float || b == Float {
		return Float
	}
	return Int
}

// truth materializes nonzero-is-true as an i1.
func (cg *CodeGen) truth(v value) ir.Value {
	switch v.t {
	case Bool:
		return v.v
	case Float:
		return cg.b.FCmp("une", v.v, cg.b.Float(0))
	}
	return cg.b.ICmp("ne", v.v, cg.b.Int(0))
}

func (cg *CodeGen) genUnary(n *UnaryExpr) (value, error) {
	x, err := cg.genScalar(n.X)
	if err != nil {
		return value{}, err
	}
	switch n.Op {
	case PLUS:
		if x.t == Bool {
			return value{cg.promote(x, Int), Int}, nil
		}
		return x, nil

	case MINUS:
		if x.t == Bool {
			x = value{cg.promote(x, Int), Int}
		}
		switch c := x.v.(type) {
		case *ir.ConstInt:
			return value{cg.b.Int(-int32(c.V)), Int}, nil
		case *ir.ConstFloat:
			return value{cg.b.Float(-c.V), Float}, nil
		}
		if x.t == Float {
			return value{cg.b.FNeg(x.v), Float}, nil
		}
		return value{cg.b.BinOp("sub", cg.b.Int(0), x.v), Int}, nil

	case NOT:
		switch x.t {
		case Bool:
			return value{cg.b.BinOp("xor", x.v, cg.b.Bool(true)), Bool}, nil
		case Float:
			return value{cg.b.FCmp("oeq", x.v, cg.b.Float(0)), Bool}, nil
		}
		return value{cg.b.ICmp("eq", x.v, cg.b.Int(0)), Bool}, nil
	}
	return value{}, fmt.Errorf("%s: unknown unary operator %s", n.At, n.Op)
}

func (cg *CodeGen) genBinary(n *BinaryExpr) (value, error) {
	l, err := cg.genScalar(n.Left)
	if err != nil {
		return value{}, err
	}
	r, err := cg.genScalar(n.Right)
	if err != nil {
		return value{}, err
	}

	if op, ok := intOps[n.Op]; ok {
		t := arithType(l.t, r.t)
		if t == Float {
			if n.Op == PERCENT {
				return value{}, semErr(TypeMismatch, n.At, "operator %% requires int operands, got %s and %s", l.t, r.t)
			}
			op = floatOps[n.Op]
		}
		return value{cg.b.BinOp(op, cg.promote(l, t), cg.promote(r, t)), t}, nil
	}

	pred, ok := intPreds[n.Op]
	if !ok {
		return value{}, fmt.Errorf("%s: unknown binary operator %s", n.At, n.Op)
	}
	if l.t == Bool && r.t == Bool && (n.Op == EQUALS || n.Op == NOT_EQ) {
		return value{cg.b.ICmp(pred, l.v, r.v), Bool}, nil
	}
	if arithType(l.t, r.t) == Float {
		return value{cg.b.FCmp(floatPreds[n.Op], cg.promote(l, Float), cg.promote(r, Float)), Bool}, nil
	}
	return value{cg.b.ICmp(pred, cg.promote(l, Int), cg.promote(r, Int)), Bool}, nil
}

// genLogical lowers && and || used as values:
//
//	from:    br %l, label %sc.rhs, label %sc.end     (&&; || swaps targets)
//	sc.rhs:  ... evaluate right ...
//	         br label %sc.end
//	sc.end:  phi i1 [ false, %from ], [ %r, %rhsEnd ]
func (cg *CodeGen) genLogical(n *LogicalExpr) (value, error) {
	l, err := cg.genScalar(n.Left)
	if err != nil {
		return value{}, err
	}
	lc := cg.truth(l)
	rhs := cg.b.NewBlock("sc.rhs")
	join := cg.b.NewBlock("sc.end")
	from := cg.b.InsertBlock()
	if n.Op == AND_LOGICAL {
		cg.b.CondBr(lc, rhs, join)
	} else {
		cg.b.CondBr(lc, join, rhs)
	}

	cg.b.SetInsertPoint(rhs)
	r, err := cg.genScalar(n.Right)
	if err != nil {
		return value{}, err
	}
	rc := cg.truth(r)
	rhsEnd := cg.b.InsertBlock()
	cg.b.Br(join)

	cg.b.SetInsertPoint(join)
	short := cg.b.Bool(n.Op == OR_LOGICAL)
	phi := cg.b.Phi(cg.b.Types.I1, ir.PhiEdge{Val: short, From: from}, ir.PhiEdge{Val: rc, From: rhsEnd})
	return value{phi, Bool}, nil
}

// genCond lowers e as a branch condition, jumping to t when it holds and to
// f otherwise. && and || become nested branches; the right operand is only
// reached when its value decides the outcome.
func (cg *CodeGen) genCond(e Expr, t, f *ir.Block) error {
	switch n := e.(type) {
	case *LogicalExpr:
		rhs := cg.b.NewBlock("cond.rhs")
		var err error
		if n.Op == AND_LOGICAL {
			err = cg.genCond(n.Left, rhs, f)
		} else {
			err = cg.genCond(n.Left, t, rhs)
		}
		if err != nil {
			return err
		}
		cg.b.SetInsertPoint(rhs)
		return cg.genCond(n.Right, t, f)

	case *UnaryExpr:
		if n.Op == NOT {
			return cg.genCond(n.X, f, t)
		}
	}

	v, err := cg.genScalar(e)
	if err != nil {
		return err
	}
	cg.b.CondBr(cg.truth(v), t, f)
	return nil
}

func (cg *CodeGen) genCall(n *CallExpr) (value, error) {
	sym, err := cg.lookup(n.Name, n.At)
	if err != nil {
		return value{}, err
	}
	if sym.Class != StorageFunc {
		return value{}, semErr(TypeMismatch, n.At, "%q is not a function", n.Name)
	}
	sig := sym.Sig
	if len(n.Args) != len(sig.Params) {
		return value{}, semErr(ArityMismatch, n.At, "%s expects %d arguments, got %d", n.Name, len(sig.Params), len(n.Args))
	}

	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		pt := sig.Params[i]
		what := fmt.Sprintf("argument %d of %s", i+1, n.Name)
		if pt.IsArray() {
			v, err := cg.genArrayArg(a, pt, what)
			if err != nil {
				return value{}, err
			}
			args[i] = v
			continue
		}
		v, err := cg.genScalar(a)
		if err != nil {
			return value{}, err
		}
		if args[i], err = cg.convert(v, pt.Basic, a.Pos(), TypeMismatch, what); err != nil {
			return value{}, err
		}
	}

	res := cg.b.Call(cg.function(sym), args...)
	if sig.Ret == Void {
		return value{nil, Void}, nil
	}
	return value{res, sig.Ret}, nil
}

// genArrayArg passes a whole or partially indexed array to an array
// parameter. Every dimension after the first must match.
func (cg *CodeGen) genArrayArg(a Expr, pt Type, what string) (ir.Value, error) {
	var (
		name    string
		indices []Expr
	)
	switch x := a.(type) {
	case *VarRef:
		name = x.Name
	case *IndexExpr:
		name, indices = x.Name, x.Indices
	default:
		return nil, semErr(TypeMismatch, a.Pos(), "%s: want %s, got a scalar expression", what, pt)
	}
	sym, err := cg.lookupVar(name, a.Pos())
	if err != nil {
		return nil, err
	}
	if !sym.Type.IsArray() {
		return nil, semErr(TypeMismatch, a.Pos(), "%s: want %s, got scalar %q", what, pt, name)
	}
	addr, rest, err := cg.elementAddr(sym, indices, a.Pos())
	if err != nil {
		return nil, err
	}
	got := Type{Basic: sym.Type.Basic, Dims: rest, Decayed: sym.Type.Decayed && len(indices) == 0}
	if len(rest) == 0 || got.Basic != pt.Basic || !sameTrailingDims(rest, pt.Dims) {
		return nil, semErr(TypeMismatch, a.Pos(), "%s: want %s, got %s", what, pt, got)
	}
	return addr, nil
}

// elementAddr computes the address selected by indices into sym and
// returns the dimensions left unindexed. The indices combine row-major
// into one element offset; constant parts are combined at compile time.
func (cg *CodeGen) elementAddr(sym *Symbol, indices []Expr, pos Pos) (ir.Value, []int, error) {
	dims := sym.Type.Dims
	if len(indices) == 0 {
		return sym.Addr, dims, nil
	}
	if !sym.Type.IsArray() {
		return nil, nil, semErr(InvalidArrayIndex, pos, "%q is not an array", sym.Name)
	}
	if len(indices) > len(dims) {
		return nil, nil, semErr(InvalidArrayIndex, pos, "too many indices for %q: %d, array has %d dimensions", sym.Name, len(indices), len(dims))
	}

	var flat ir.Value
	for k, ix := range indices {
		v, err := cg.genExpr(ix)
		if err != nil {
			return nil, nil, err
		}
		if v.t != Int && v.t != Bool {
			return nil, nil, semErr(InvalidArrayIndex, ix.Pos(), "array index must be an integer, got %s", v.t)
		}
		iv := cg.promote(v, Int)
		if c, ok := iv.(*ir.ConstInt); ok {
			bound := dims[k]
			if c.V < 0 || (bound > 0 && c.V >= int64(bound)) {
				return nil, nil, semErr(InvalidArrayIndex, ix.Pos(), "index %d out of range for dimension of size %d", c.V, bound)
			}
		}
		flat = cg.addIndex(flat, cg.scaleIndex(iv, sym.Type.Stride(k)))
	}
	addr := cg.b.GEP(cg.irType(sym.Type.Basic), sym.Addr, flat)
	return addr, dims[len(indices):], nil
}

func (cg *CodeGen) scaleIndex(v ir.Value, stride int) ir.Value {
	if stride == 1 {
		return v
	}
	if c, ok := v.(*ir.ConstInt); ok {
		return cg.b.Int(int32(c.V) * int32(stride))
	}
	return cg.b.BinOp("mul", v, cg.b.Int(int32(stride)))
}

func (cg *CodeGen) addIndex(acc, v ir.Value) ir.Value {
	if acc == nil {
		return v
	}
	ca, aok := acc.(*ir.ConstInt)
	cv, vok := v.(*ir.ConstInt)
	switch {
	case aok && vok:
		return cg.b.Int(int32(ca.V + cv.V))
	case aok && ca.V == 0:
		return v
	case vok && cv.V == 0:
		return acc
	}
	return cg.b.BinOp("add", acc, v)
}
