package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	Pos() Pos
	String() string
}

// IntLit is an integer constant, already wrapped to 32 bits.
//
//	int x = 10;
//	        ^^  IntLit{Value: 10}
type IntLit struct {
	At    Pos
	Value int32
}

func (*IntLit) exprNode()        {}
func (l *IntLit) Pos() Pos       { return l.At }
func (l *IntLit) String() string { return strconv.Itoa(int(l.Value)) }

// FloatLit is a single-precision floating constant.
type FloatLit struct {
	At    Pos
	Value float32
}

func (*FloatLit) exprNode()  {}
func (l *FloatLit) Pos() Pos { return l.At }
func (l *FloatLit) String() string {
	s := strconv.FormatFloat(float64(l.Value), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// InitList is a brace initializer { a, {b, c}, ... }.
type InitList struct {
	At    Pos
	Elems []Expr
}

func (*InitList) exprNode()  {}
func (l *InitList) Pos() Pos { return l.At }
func (l *InitList) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// VarRef is a read of a named variable.
//
//	return x;
//	       ^  VarRef{Name: "x"}
type VarRef struct {
	At   Pos
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) Pos() Pos       { return v.At }
func (v *VarRef) String() string { return v.Name }

// BinaryExpr represents an arithmetic or comparison operation: Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryExpr struct {
	At    Pos
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode()  {}
func (b *BinaryExpr) Pos() Pos { return b.At }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, tokenSpelling[b.Op], b.Right)
}

// LogicalExpr represents Left && Right or Left || Right.
// It is separate from BinaryExpr so code generation can short-circuit it.
type LogicalExpr struct {
	At    Pos
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*LogicalExpr) exprNode()  {}
func (l *LogicalExpr) Pos() Pos { return l.At }
func (l *LogicalExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", l.Left, tokenSpelling[l.Op], l.Right)
}

// UnaryExpr represents Op X for Op in + - !.
type UnaryExpr struct {
	At Pos
	Op TokenType
	X  Expr
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) Pos() Pos       { return u.At }
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s%s)", tokenSpelling[u.Op], u.X) }

// CallExpr represents name(args).
type CallExpr struct {
	At   Pos
	Name string
	Args []Expr
}

func (*CallExpr) exprNode()  {}
func (c *CallExpr) Pos() Pos { return c.At }
func (c *CallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// IndexExpr represents Name[i][j]...
type IndexExpr struct {
	At      Pos
	Name    string
	Indices []Expr
}

func (*IndexExpr) exprNode()  {}
func (e *IndexExpr) Pos() Pos { return e.At }
func (e *IndexExpr) String() string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	for _, ix := range e.Indices {
		fmt.Fprintf(&sb, "[%s]", ix)
	}
	return sb.String()
}

//  Statement nodes

// Stmt is implemented by every node that appears in a statement position,
// including top-level declarations.
type Stmt interface {
	stmtNode()
	Pos() Pos
	String() string
}

// Program is a whole compilation unit: global VarDecls and FuncDecls in
// source order.
type Program struct {
	Items []Stmt
}

func (p *Program) String() string {
	parts := make([]string, len(p.Items))
	for i, it := range p.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, "\n")
}

// VarDecl declares one scalar or array, possibly const.
//
//	const int n = 4, a[2] = {1, 2};
//
// produces two VarDecls. Init is nil, an Expr, or an *InitList.
type VarDecl struct {
	At     Pos
	Name   string
	Type   Type
	Init   Expr
	Const  bool
	Global bool
}

func (*VarDecl) stmtNode()  {}
func (d *VarDecl) Pos() Pos { return d.At }
func (d *VarDecl) String() string {
	prefix := "VarDecl"
	if d.Const {
		prefix = "ConstDecl"
	}
	dims := strings.TrimPrefix(d.Type.String(), d.Type.Basic.String())
	if d.Init == nil {
		return fmt.Sprintf("%s(%s %s%s)", prefix, d.Type.Basic, d.Name, dims)
	}
	return fmt.Sprintf("%s(%s %s%s = %s)", prefix, d.Type.Basic, d.Name, dims, d.Init)
}

// Param is one formal parameter of a FuncDecl.
type Param struct {
	At   Pos
	Name string
	Type Type
}

func (p *Param) String() string { return fmt.Sprintf("%s %s", p.Type, p.Name) }

// FuncDecl represents ret name(params) { body }.
type FuncDecl struct {
	At     Pos
	Name   string
	Ret    BasicType
	Params []*Param
	Body   *Block
}

func (*FuncDecl) stmtNode()  {}
func (f *FuncDecl) Pos() Pos { return f.At }
func (f *FuncDecl) Sig() *FuncSig {
	sig := &FuncSig{Ret: f.Ret}
	for _, p := range f.Params {
		sig.Params = append(sig.Params, p.Type)
	}
	return sig
}
func (f *FuncDecl) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("FuncDecl(%s %s(%s), body=%s)", f.Ret, f.Name, strings.Join(parts, ", "), f.Body)
}

// Block represents { item; ... }.
type Block struct {
	At    Pos
	Stmts []Stmt
}

func (*Block) stmtNode()  {}
func (b *Block) Pos() Pos { return b.At }
func (b *Block) String() string {
	return fmt.Sprintf("Block(len=%d)", len(b.Stmts))
}

// AssignStmt represents Target = Value; Target is a *VarRef or *IndexExpr.
type AssignStmt struct {
	At     Pos
	Target Expr
	Value  Expr
}

func (*AssignStmt) stmtNode()  {}
func (a *AssignStmt) Pos() Pos { return a.At }
func (a *AssignStmt) String() string {
	return fmt.Sprintf("Assign(%s = %s)", a.Target, a.Value)
}

// ExprStmt is an expression evaluated for its side effects. X is nil for
// the empty statement ";".
type ExprStmt struct {
	At Pos
	X  Expr
}

func (*ExprStmt) stmtNode()  {}
func (e *ExprStmt) Pos() Pos { return e.At }
func (e *ExprStmt) String() string {
	if e.X == nil {
		return "ExprStmt()"
	}
	return fmt.Sprintf("ExprStmt(%s)", e.X)
}

// IfStmt represents if (Cond) Then [else Else].
type IfStmt struct {
	At   Pos
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
}

func (*IfStmt) stmtNode()  {}
func (i *IfStmt) Pos() Pos { return i.At }
func (i *IfStmt) String() string {
	if i.Else != nil {
		return fmt.Sprintf("If(%s then %s else %s)", i.Cond, i.Then, i.Else)
	}
	return fmt.Sprintf("If(%s then %s)", i.Cond, i.Then)
}

// WhileStmt represents while (Cond) Body.
type WhileStmt struct {
	At   Pos
	Cond Expr
	Body Stmt
}

func (*WhileStmt) stmtNode()  {}
func (w *WhileStmt) Pos() Pos { return w.At }
func (w *WhileStmt) String() string {
	return fmt.Sprintf("While(%s do %s)", w.Cond, w.Body)
}

// ReturnStmt represents return [Value];
type ReturnStmt struct {
	At    Pos
	Value Expr // nil for a bare return
}

func (*ReturnStmt) stmtNode()  {}
func (r *ReturnStmt) Pos() Pos { return r.At }
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "Return()"
	}
	return fmt.Sprintf("Return(%s)", r.Value)
}

// BreakStmt represents break;
type BreakStmt struct{ At Pos }

func (*BreakStmt) stmtNode()      {}
func (s *BreakStmt) Pos() Pos     { return s.At }
func (*BreakStmt) String() string { return "Break" }

// ContinueStmt represents continue;
type ContinueStmt struct{ At Pos }

func (*ContinueStmt) stmtNode()      {}
func (s *ContinueStmt) Pos() Pos     { return s.At }
func (*ContinueStmt) String() string { return "Continue" }
