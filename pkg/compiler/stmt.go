package compiler

import (
	"fmt"

	"cactc/pkg/ir"
)

func (cg *CodeGen) genStmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genStmt(s Stmt) error {
	// Code after return/break/continue still gets checked; it lands in a
	// block with no predecessors.
	if cg.b.Terminated() {
		cg.b.SetInsertPoint(cg.b.NewBlock("dead"))
	}

	switch n := s.(type) {
	case *VarDecl:
		return cg.genLocal(n)

	case *Block:
		cg.syms.EnterScope()
		defer cg.syms.ExitScope()
		return cg.genStmts(n.Stmts)

	case *AssignStmt:
		return cg.genAssign(n)

	case *ExprStmt:
		if n.X == nil {
			return nil
		}
		_, err := cg.genExpr(n.X)
		return err

	case *IfStmt:
		return cg.genIf(n)

	case *WhileStmt:
		return cg.genWhile(n)

	case *BreakStmt:
		if len(cg.loops) == 0 {
			return semErr(BreakContinueOutsideLoop, n.At, "break statement not within a loop")
		}
		cg.b.Br(cg.loops[len(cg.loops)-1].end)
		return nil

	case *ContinueStmt:
		if len(cg.loops) == 0 {
			return semErr(BreakContinueOutsideLoop, n.At, "continue statement not within a loop")
		}
		cg.b.Br(cg.loops[len(cg.loops)-1].cond)
		return nil

	case *ReturnStmt:
		return cg.genReturn(n)
	}
	return fmt.Errorf("%s: unexpected statement %T", s.Pos(), s)
}

func (cg *CodeGen) genLocal(d *VarDecl) error {
	sym := &Symbol{Name: d.Name, Type: d.Type, Class: StorageLocal, Const: d.Const, Pos: d.At}
	basic := d.Type.Basic

	if !d.Type.IsArray() {
		if d.Const {
			v, err := cg.literal(d.Init, basic)
			if err != nil {
				return err
			}
			sym.Value = v
			return cg.syms.Define(sym)
		}
		slot := cg.b.Alloca(cg.irType(basic))
		if d.Init != nil {
			v, err := cg.genScalar(d.Init)
			if err != nil {
				return err
			}
			conv, err := cg.convert(v, basic, d.Init.Pos(), TypeMismatch, fmt.Sprintf("initializer of %q", d.Name))
			if err != nil {
				return err
			}
			cg.b.Store(conv, slot)
		}
		sym.Addr = slot
		return cg.syms.Define(sym)
	}

	content := cg.storageType(d.Type)
	slot := cg.b.Alloca(content)
	sym.Addr = slot
	if list, ok := d.Init.(*InitList); ok {
		flat, err := flattenInit(list, d.Type)
		if err != nil {
			return err
		}
		cg.b.MemsetZero(slot, content.Size())
		elem := cg.irType(basic)
		for i, e := range flat {
			if e == nil {
				continue
			}
			v, err := cg.genScalar(e)
			if err != nil {
				return err
			}
			conv, err := cg.convert(v, basic, e.Pos(), TypeMismatch, fmt.Sprintf("initializer of %q", d.Name))
			if err != nil {
				return err
			}
			if ir.IsZero(conv) {
				continue
			}
			var addr ir.Value = slot
			if i > 0 {
				addr = cg.b.GEP(elem, slot, cg.b.Int(int32(i)))
			}
			cg.b.Store(conv, addr)
		}
	}
	return cg.syms.Define(sym)
}

func (cg *CodeGen) genAssign(a *AssignStmt) error {
	var (
		name    string
		indices []Expr
	)
	switch t := a.Target.(type) {
	case *VarRef:
		name = t.Name
	case *IndexExpr:
		name, indices = t.Name, t.Indices
	default:
		return fmt.Errorf("%s: invalid assignment target %s", a.At, a.Target)
	}
	sym, err := cg.lookupVar(name, a.At)
	if err != nil {
		return err
	}
	if sym.Const {
		return semErr(ConstAssignment, a.At, "cannot assign to constant %q", name)
	}
	addr, rest, err := cg.elementAddr(sym, indices, a.At)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		if len(indices) > 0 {
			return semErr(InvalidArrayIndex, a.At, "cannot assign to %s: %d indices, %q needs %d", a.Target, len(indices), name, len(sym.Type.Dims))
		}
		return semErr(TypeMismatch, a.At, "cannot assign to array %s", a.Target)
	}
	v, err := cg.genScalar(a.Value)
	if err != nil {
		return err
	}
	conv, err := cg.convert(v, sym.Type.Basic, a.Value.Pos(), TypeMismatch, fmt.Sprintf("assignment to %s", a.Target))
	if err != nil {
		return err
	}
	cg.b.Store(conv, addr)
	return nil
}

//	if (c) A else B
//
//	        cond
//	       /    \
//	  if.then  if.else
//	       \    /
//	       if.end
func (cg *CodeGen) genIf(n *IfStmt) error {
	then := cg.b.NewBlock("if.then")
	var els *ir.Block
	if n.Else != nil {
		els = cg.b.NewBlock("if.else")
	}
	merge := cg.b.NewBlock("if.end")

	onFalse := merge
	if els != nil {
		onFalse = els
	}
	if err := cg.genCond(n.Cond, then, onFalse); err != nil {
		return err
	}

	cg.b.SetInsertPoint(then)
	if err := cg.genStmt(n.Then); err != nil {
		return err
	}
	if !cg.b.Terminated() {
		cg.b.Br(merge)
	}

	if els != nil {
		cg.b.SetInsertPoint(els)
		if err := cg.genStmt(n.Else); err != nil {
			return err
		}
		if !cg.b.Terminated() {
			cg.b.Br(merge)
		}
	}

	cg.b.SetInsertPoint(merge)
	return nil
}

func (cg *CodeGen) genWhile(n *WhileStmt) error {
	cond := cg.b.NewBlock("while.cond")
	body := cg.b.NewBlock("while.body")
	end := cg.b.NewBlock("while.end")

	cg.b.Br(cond)
	cg.b.SetInsertPoint(cond)
	if err := cg.genCond(n.Cond, body, end); err != nil {
		return err
	}

	cg.b.SetInsertPoint(body)
	cg.loops = append(cg.loops, loopTargets{cond: cond, end: end})
	err := cg.genStmt(n.Body)
	cg.loops = cg.loops[:len(cg.loops)-1]
	if err != nil {
		return err
	}
	if !cg.b.Terminated() {
		cg.b.Br(cond)
	}

	cg.b.SetInsertPoint(end)
	return nil
}

func (cg *CodeGen) genReturn(n *ReturnStmt) error {
	if n.Value == nil {
		if cg.ret != Void {
			return semErr(ReturnTypeMismatch, n.At, "missing return value in function returning %s", cg.ret)
		}
		cg.b.Ret(nil)
		return nil
	}
	if cg.ret == Void {
		return semErr(ReturnTypeMismatch, n.Value.Pos(), "void function returns a value")
	}
	v, err := cg.genExpr(n.Value)
	if err != nil {
		return err
	}
	conv, err := cg.convert(v, cg.ret, n.Value.Pos(), ReturnTypeMismatch, "return value")
	if err != nil {
		return err
	}
	cg.b.Ret(conv)
	return nil
}
