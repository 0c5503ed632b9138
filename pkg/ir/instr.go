package ir

import (
	"fmt"
	"strings"
)

// Instr is a non-terminating instruction.
type Instr interface {
	instrNode()
	String() string
}

// Term ends a basic block.
type Term interface {
	termNode()
	String() string
	Succs() []*Block
}

// BinOp is an arithmetic or bitwise operation: add sub mul sdiv srem xor,
// or the float forms fadd fsub fmul fdiv.
type BinOp struct {
	Dst  *Register
	Op   string
	X, Y Value
}

func (*BinOp) instrNode() {}
func (i *BinOp) String() string {
	return fmt.Sprintf("%s = %s %s, %s", i.Dst.Ident(), i.Op, typed(i.X), i.Y.Ident())
}

// Cmp is icmp or fcmp with an LLVM predicate (slt, oeq, une, ...).
type Cmp struct {
	Dst   *Register
	Float bool
	Pred  string
	X, Y  Value
}

func (*Cmp) instrNode() {}
func (i *Cmp) String() string {
	op := "icmp"
	if i.Float {
		op = "fcmp"
	}
	return fmt.Sprintf("%s = %s %s %s, %s", i.Dst.Ident(), op, i.Pred, typed(i.X), i.Y.Ident())
}

// FNeg negates a float.
type FNeg struct {
	Dst *Register
	X   Value
}

func (*FNeg) instrNode() {}
func (i *FNeg) String() string {
	return fmt.Sprintf("%s = fneg %s", i.Dst.Ident(), typed(i.X))
}

// Cast converts between scalar types: sitofp fptosi uitofp zext.
type Cast struct {
	Dst *Register
	Op  string
	X   Value
}

func (*Cast) instrNode() {}
func (i *Cast) String() string {
	return fmt.Sprintf("%s = %s %s to %s", i.Dst.Ident(), i.Op, typed(i.X), i.Dst.Ty)
}

// Alloca reserves a stack slot of type Elem; Dst is its address.
type Alloca struct {
	Dst  *Register
	Elem *Type
}

func (*Alloca) instrNode() {}
func (i *Alloca) String() string {
	return fmt.Sprintf("%s = alloca %s", i.Dst.Ident(), i.Elem)
}

type Load struct {
	Dst  *Register
	Addr Value
}

func (*Load) instrNode() {}
func (i *Load) String() string {
	return fmt.Sprintf("%s = load %s, %s", i.Dst.Ident(), i.Dst.Ty, typed(i.Addr))
}

type Store struct {
	Val  Value
	Addr Value
}

func (*Store) instrNode() {}
func (i *Store) String() string {
	return fmt.Sprintf("store %s, %s", typed(i.Val), typed(i.Addr))
}

// GEP computes an element address: getelementptr inbounds Elem, ptr Base,
// Indices...
type GEP struct {
	Dst     *Register
	Elem    *Type
	Base    Value
	Indices []Value
}

func (*GEP) instrNode() {}
func (i *GEP) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s = getelementptr inbounds %s, %s", i.Dst.Ident(), i.Elem, typed(i.Base))
	for _, ix := range i.Indices {
		sb.WriteString(", ")
		sb.WriteString(typed(ix))
	}
	return sb.String()
}

// Call invokes Callee. Dst is nil for void calls.
type Call struct {
	Dst    *Register
	Callee *Function
	Args   []Value
}

func (*Call) instrNode() {}
func (i *Call) String() string {
	parts := make([]string, len(i.Args))
	for k, a := range i.Args {
		parts[k] = typed(a)
	}
	call := fmt.Sprintf("call %s @%s(%s)", i.Callee.Ret, i.Callee.Name, strings.Join(parts, ", "))
	if i.Dst == nil {
		return call
	}
	return i.Dst.Ident() + " = " + call
}

// PhiEdge is one incoming (value, predecessor) pair.
type PhiEdge struct {
	Val  Value
	From *Block
}

type Phi struct {
	Dst   *Register
	Edges []PhiEdge
}

func (*Phi) instrNode() {}
func (i *Phi) String() string {
	parts := make([]string, len(i.Edges))
	for k, e := range i.Edges {
		parts[k] = fmt.Sprintf("[ %s, %%%s ]", e.Val.Ident(), e.From.Label)
	}
	return fmt.Sprintf("%s = phi %s %s", i.Dst.Ident(), i.Dst.Ty, strings.Join(parts, ", "))
}

// MemsetZero clears Len bytes at Addr through the llvm.memset intrinsic.
type MemsetZero struct {
	Addr Value
	Len  int
}

func (*MemsetZero) instrNode() {}
func (i *MemsetZero) String() string {
	return fmt.Sprintf("call void @%s(%s, i8 0, i32 %d, i1 false)", memsetName, typed(i.Addr), i.Len)
}

// Terminators

type Br struct {
	Target *Block
}

func (*Br) termNode()         {}
func (t *Br) Succs() []*Block { return []*Block{t.Target} }
func (t *Br) String() string  { return fmt.Sprintf("br label %%%s", t.Target.Label) }

type CondBr struct {
	Cond       Value
	Then, Else *Block
}

func (*CondBr) termNode()         {}
func (t *CondBr) Succs() []*Block { return []*Block{t.Then, t.Else} }
func (t *CondBr) String() string {
	return fmt.Sprintf("br %s, label %%%s, label %%%s", typed(t.Cond), t.Then.Label, t.Else.Label)
}

// Ret returns Val, or nothing when Val is nil.
type Ret struct {
	Val Value
}

func (*Ret) termNode()       {}
func (*Ret) Succs() []*Block { return nil }
func (t *Ret) String() string {
	if t.Val == nil {
		return "ret void"
	}
	return "ret " + typed(t.Val)
}
