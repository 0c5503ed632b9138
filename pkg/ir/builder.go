// Package ir builds LLVM-compatible textual IR.
//
// A Builder owns every piece of mutable state for one module: interned
// types, the register and label counters, and the current function and
// block. Nothing is shared between builders, so independent compilations
// can run side by side.
package ir

import "fmt"

// InvariantError is the panic value raised when the builder is misused
// (appending to a sealed block, sealing twice, leaving a block open). It
// signals a bug in the caller, not a problem with the compiled program.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "ir: invariant violated: " + e.Msg }

func invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

type Builder struct {
	Types *Types

	mod       *Module
	nextReg   int
	nextLabel int
	fn        *Function
	cur       *Block
}

func NewBuilder(moduleName, sourceFile string) *Builder {
	return &Builder{
		Types: NewTypes(),
		mod:   &Module{Name: moduleName, SourceFile: sourceFile},
	}
}

// Module returns the module under construction.
func (b *Builder) Module() *Module { return b.mod }

// Func returns the function being defined, or nil between functions.
func (b *Builder) Func() *Function { return b.fn }

// NewReg allocates a fresh virtual register of type t.
func (b *Builder) NewReg(t *Type) *Register {
	r := &Register{ID: b.nextReg, Ty: t}
	b.nextReg++
	return r
}

// NewBlock creates an empty block in the current function. The label is
// hint followed by a module-unique number.
func (b *Builder) NewBlock(hint string) *Block {
	if b.fn == nil {
		invariant("NewBlock(%q) outside a function", hint)
	}
	bl := &Block{ID: b.nextLabel, Label: fmt.Sprintf("%s%d", hint, b.nextLabel)}
	b.nextLabel++
	b.fn.Blocks = append(b.fn.Blocks, bl)
	return bl
}

func (b *Builder) SetInsertPoint(bl *Block) { b.cur = bl }

func (b *Builder) InsertBlock() *Block { return b.cur }

// Terminated reports whether the insertion block already has a terminator.
func (b *Builder) Terminated() bool { return b.cur == nil || b.cur.Sealed() }

func (b *Builder) emit(in Instr) {
	if b.cur == nil {
		invariant("no insertion block for %q", in)
	}
	if b.cur.Sealed() {
		invariant("append %q to sealed block %s", in, b.cur.Label)
	}
	b.cur.Instrs = append(b.cur.Instrs, in)
}

func (b *Builder) seal(t Term) {
	if b.cur == nil {
		invariant("no insertion block for %q", t)
	}
	if b.cur.Sealed() {
		invariant("block %s sealed twice (%q after %q)", b.cur.Label, t, b.cur.Term)
	}
	b.cur.Term = t
}

// StartFunction opens a definition and positions the builder at its entry
// block.
func (b *Builder) StartFunction(name string, ret *Type, params []*Type) *Function {
	if b.fn != nil {
		invariant("StartFunction(%s) while %s is open", name, b.fn.Name)
	}
	f := &Function{Name: name, Ret: ret, Sig: b.Types.Func(ret, params...), ptr: b.Types.Ptr}
	for _, p := range params {
		f.Params = append(f.Params, b.NewReg(p))
	}
	b.mod.Funcs = append(b.mod.Funcs, f)
	b.fn = f
	b.cur = b.NewBlock("entry")
	return f
}

// EndFunction closes the current definition. Every block must be sealed.
func (b *Builder) EndFunction() {
	if b.fn == nil {
		invariant("EndFunction without StartFunction")
	}
	for _, bl := range b.fn.Blocks {
		if !bl.Sealed() {
			invariant("block %s of %s has no terminator", bl.Label, b.fn.Name)
		}
	}
	b.fn, b.cur = nil, nil
}

// Declare adds an external function declaration.
func (b *Builder) Declare(name string, ret *Type, params []*Type) *Function {
	f := &Function{Name: name, Ret: ret, Sig: b.Types.Func(ret, params...), External: true, ptr: b.Types.Ptr}
	b.mod.Funcs = append(b.mod.Funcs, f)
	return f
}

// AddGlobal defines a module-level variable; a nil init means zero.
func (b *Builder) AddGlobal(name string, content *Type, init Value, constant bool) *Global {
	if init == nil {
		init = b.Zero(content)
	}
	g := &Global{Name: name, Content: content, Init: init, Const: constant, ptr: b.Types.Ptr}
	b.mod.Globals = append(b.mod.Globals, g)
	return g
}

// Constants

func (b *Builder) Int(v int32) *ConstInt { return &ConstInt{Ty: b.Types.I32, V: int64(v)} }

func (b *Builder) Bool(v bool) *ConstInt {
	c := &ConstInt{Ty: b.Types.I1}
	if v {
		c.V = 1
	}
	return c
}

func (b *Builder) Float(v float32) *ConstFloat { return &ConstFloat{Ty: b.Types.Float, V: v} }

// Zero returns the zero value of t.
func (b *Builder) Zero(t *Type) Value {
	switch t.K {
	case TInt:
		return &ConstInt{Ty: t}
	case TFloat:
		return &ConstFloat{Ty: t}
	}
	return &ZeroInit{Ty: t}
}

// ArrayConst nests a row-major list of scalar constants into an aggregate
// of type t. All-zero sub-arrays collapse to zeroinitializer.
func (b *Builder) ArrayConst(t *Type, flat []Value) Value {
	if t.K != TArray {
		return flat[0]
	}
	allZero := true
	for _, v := range flat {
		if !IsZero(v) {
			allZero = false
			break
		}
	}
	if allZero {
		return &ZeroInit{Ty: t}
	}
	n := len(flat) / t.Len
	c := &ConstArray{Ty: t, Elems: make([]Value, t.Len)}
	for i := range c.Elems {
		c.Elems[i] = b.ArrayConst(t.Elem, flat[i*n:(i+1)*n])
	}
	return c
}

// Instructions

func (b *Builder) BinOp(op string, x, y Value) *Register {
	if x.Type() != y.Type() {
		invariant("%s operands differ: %s vs %s", op, x.Type(), y.Type())
	}
	dst := b.NewReg(x.Type())
	b.emit(&BinOp{Dst: dst, Op: op, X: x, Y: y})
	return dst
}

func (b *Builder) ICmp(pred string, x, y Value) *Register {
	dst := b.NewReg(b.Types.I1)
	b.emit(&Cmp{Dst: dst, Pred: pred, X: x, Y: y})
	return dst
}

func (b *Builder) FCmp(pred string, x, y Value) *Register {
	dst := b.NewReg(b.Types.I1)
	b.emit(&Cmp{Dst: dst, Float: true, Pred: pred, X: x, Y: y})
	return dst
}

func (b *Builder) FNeg(x Value) *Register {
	dst := b.NewReg(x.Type())
	b.emit(&FNeg{Dst: dst, X: x})
	return dst
}

func (b *Builder) Cast(op string, x Value, to *Type) *Register {
	dst := b.NewReg(to)
	b.emit(&Cast{Dst: dst, Op: op, X: x})
	return dst
}

// Alloca reserves a slot in the entry block of the current function,
// wherever the builder is positioned.
func (b *Builder) Alloca(elem *Type) *Register {
	if b.fn == nil {
		invariant("Alloca outside a function")
	}
	dst := b.NewReg(b.Types.Ptr)
	b.fn.allocas = append(b.fn.allocas, &Alloca{Dst: dst, Elem: elem})
	return dst
}

func (b *Builder) Load(t *Type, addr Value) *Register {
	dst := b.NewReg(t)
	b.emit(&Load{Dst: dst, Addr: addr})
	return dst
}

func (b *Builder) Store(v, addr Value) {
	b.emit(&Store{Val: v, Addr: addr})
}

func (b *Builder) GEP(elem *Type, base Value, indices ...Value) *Register {
	dst := b.NewReg(b.Types.Ptr)
	b.emit(&GEP{Dst: dst, Elem: elem, Base: base, Indices: indices})
	return dst
}

// Call emits a call and returns its result, or nil for a void callee.
func (b *Builder) Call(fn *Function, args ...Value) *Register {
	if len(args) != len(fn.Sig.Params) {
		invariant("call of %s with %d args, want %d", fn.Name, len(args), len(fn.Sig.Params))
	}
	var dst *Register
	if fn.Ret.K != TVoid {
		dst = b.NewReg(fn.Ret)
	}
	b.emit(&Call{Dst: dst, Callee: fn, Args: args})
	return dst
}

func (b *Builder) Phi(t *Type, edges ...PhiEdge) *Register {
	dst := b.NewReg(t)
	b.emit(&Phi{Dst: dst, Edges: edges})
	return dst
}

// MemsetZero clears n bytes at addr.
func (b *Builder) MemsetZero(addr Value, n int) {
	b.mod.usesMemset = true
	b.emit(&MemsetZero{Addr: addr, Len: n})
}

// Terminators

func (b *Builder) Br(target *Block) { b.seal(&Br{Target: target}) }

func (b *Builder) CondBr(cond Value, then, els *Block) {
	if cond.Type() != b.Types.I1 {
		invariant("branch condition has type %s", cond.Type())
	}
	b.seal(&CondBr{Cond: cond, Then: then, Else: els})
}

// Ret returns v; a nil v returns void.
func (b *Builder) Ret(v Value) { b.seal(&Ret{Val: v}) }
