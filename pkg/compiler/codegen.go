package compiler

import (
	"fmt"

	"cactc/pkg/ir"
)

// CodeGen checks the AST and lowers it to IR in a single walk: scope
// resolution, type checking and emission happen node by node.
type CodeGen struct {
	b    *ir.Builder
	syms *SymbolTable

	// loops holds the (continue, break) targets of the enclosing loops,
	// innermost last.
	loops []loopTargets
	ret   BasicType // return type of the function being generated
}

type loopTargets struct {
	cond *ir.Block
	end  *ir.Block
}

// value is the checked result of an expression. v is nil for void calls.
type value struct {
	v ir.Value
	t BasicType
}

// runtimeFuncs are the I/O routines of the CACT runtime library. They are
// visible in every program and declared in the module only when called.
var runtimeFuncs = []struct {
	name string
	sig  FuncSig
}{
	{"print_int", FuncSig{Ret: Void, Params: []Type{Scalar(Int)}}},
	{"print_float", FuncSig{Ret: Void, Params: []Type{Scalar(Float)}}},
	{"print_char", FuncSig{Ret: Void, Params: []Type{Scalar(Int)}}},
	{"get_int", FuncSig{Ret: Int}},
	{"get_char", FuncSig{Ret: Int}},
	{"get_float", FuncSig{Ret: Float}},
}

// Generate checks prog and builds its IR module. Declarations are added to
// syms, whose global scope stays populated after the call. The first
// diagnostic stops generation.
func Generate(prog *Program, syms *SymbolTable, opts Options) (*ir.Module, error) {
	name := opts.Filename
	if name == "" {
		name = "<input>"
	}
	cg := &CodeGen{b: ir.NewBuilder(name, name), syms: syms}
	for _, rt := range runtimeFuncs {
		sig := rt.sig
		if err := syms.Define(&Symbol{Name: rt.name, Class: StorageFunc, Sig: &sig, Builtin: true}); err != nil {
			return nil, err
		}
	}

	for _, item := range prog.Items {
		var err error
		switch n := item.(type) {
		case *VarDecl:
			err = cg.genGlobal(n)
		case *FuncDecl:
			err = cg.genFunc(n)
		default:
			err = fmt.Errorf("%s: unexpected top-level %T", item.Pos(), item)
		}
		if err != nil {
			return nil, err
		}
	}
	return cg.b.Module(), nil
}

// irType maps a basic type to its IR scalar.
func (cg *CodeGen) irType(b BasicType) *ir.Type {
	switch b {
	case Int:
		return cg.b.Types.I32
	case Float:
		return cg.b.Types.Float
	case Bool:
		return cg.b.Types.I1
	}
	return cg.b.Types.Void
}

// storageType is the IR type of a variable's storage; decayed arrays are
// plain pointers.
func (cg *CodeGen) storageType(t Type) *ir.Type {
	switch {
	case t.Decayed:
		return cg.b.Types.Ptr
	case t.IsArray():
		return cg.b.Types.Nested(cg.irType(t.Basic), t.Dims)
	}
	return cg.irType(t.Basic)
}

// literal converts a folded initializer to an IR constant of type want.
func (cg *CodeGen) literal(e Expr, want BasicType) (ir.Value, error) {
	switch l := e.(type) {
	case *IntLit:
		if want == Float {
			return cg.b.Float(float32(l.Value)), nil
		}
		return cg.b.Int(l.Value), nil
	case *FloatLit:
		return cg.b.Float(l.Value), nil
	}
	return nil, fmt.Errorf("%s: initializer %s was not folded to a constant", e.Pos(), e)
}

func (cg *CodeGen) genGlobal(d *VarDecl) error {
	sym := &Symbol{Name: d.Name, Type: d.Type, Class: StorageGlobal, Const: d.Const, Pos: d.At}
	if d.Const && !d.Type.IsArray() {
		v, err := cg.literal(d.Init, d.Type.Basic)
		if err != nil {
			return err
		}
		sym.Value = v
		return cg.syms.Define(sym)
	}
	if err := cg.syms.Define(sym); err != nil {
		return err
	}

	content := cg.storageType(d.Type)
	var init ir.Value
	switch in := d.Init.(type) {
	case nil:
	case *InitList:
		flat := make([]ir.Value, len(in.Elems))
		for i, e := range in.Elems {
			v, err := cg.literal(e, d.Type.Basic)
			if err != nil {
				return err
			}
			flat[i] = v
		}
		init = cg.b.ArrayConst(content, flat)
	default:
		v, err := cg.literal(in, d.Type.Basic)
		if err != nil {
			return err
		}
		init = v
	}
	sym.Addr = cg.b.AddGlobal(d.Name, content, init, d.Const)
	return nil
}

func (cg *CodeGen) genFunc(fn *FuncDecl) error {
	sym := &Symbol{Name: fn.Name, Class: StorageFunc, Sig: fn.Sig(), Pos: fn.At}
	if err := cg.syms.Define(sym); err != nil {
		return err
	}
	params := make([]*ir.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = cg.storageType(p.Type)
	}
	f := cg.b.StartFunction(fn.Name, cg.irType(fn.Ret), params)
	sym.Fn = f
	cg.ret = fn.Ret
	cg.loops = nil

	cg.syms.EnterScope()
	defer cg.syms.ExitScope()

	for i, p := range fn.Params {
		psym := &Symbol{Name: p.Name, Type: p.Type, Class: StorageParam, Pos: p.At}
		if p.Type.IsArray() {
			psym.Addr = f.Params[i]
		} else {
			slot := cg.b.Alloca(params[i])
			cg.b.Store(f.Params[i], slot)
			psym.Addr = slot
		}
		if err := cg.syms.Define(psym); err != nil {
			return err
		}
	}

	if err := cg.genStmts(fn.Body.Stmts); err != nil {
		return err
	}
	if !cg.b.Terminated() {
		cg.b.Ret(cg.zeroOf(fn.Ret))
	}
	cg.b.EndFunction()
	return nil
}

// zeroOf is the value returned when control falls off the end of a
// function.
func (cg *CodeGen) zeroOf(b BasicType) ir.Value {
	switch b {
	case Int:
		return cg.b.Int(0)
	case Float:
		return cg.b.Float(0)
	}
	return nil
}

// function returns the IR callee for sym, declaring runtime routines on
// first use.
func (cg *CodeGen) function(sym *Symbol) *ir.Function {
	if sym.Fn == nil && sym.Builtin {
		params := make([]*ir.Type, len(sym.Sig.Params))
		for i, p := range sym.Sig.Params {
			params[i] = cg.storageType(p)
		}
		sym.Fn = cg.b.Declare(sym.Name, cg.irType(sym.Sig.Ret), params)
	}
	return sym.Fn
}

func (cg *CodeGen) lookup(name string, pos Pos) (*Symbol, error) {
	sym, ok := cg.syms.Lookup(name)
	if !ok {
		return nil, semErr(UndeclaredIdentifier, pos, "undeclared identifier %q", name)
	}
	return sym, nil
}

// lookupVar resolves a name that must denote a variable.
func (cg *CodeGen) lookupVar(name string, pos Pos) (*Symbol, error) {
	sym, err := cg.lookup(name, pos)
	if err != nil {
		return nil, err
	}
	if sym.Class == StorageFunc {
		return nil, semErr(TypeMismatch, pos, "function %q used as a variable", name)
	}
	return sym, nil
}
