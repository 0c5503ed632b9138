package ir

import (
	"fmt"
	"strings"
)

const memsetName = "llvm.memset.p0.i32"

// Block is a basic block. It is sealed once Term is set.
type Block struct {
	ID     int
	Label  string
	Instrs []Instr
	Term   Term
}

func (b *Block) Sealed() bool { return b.Term != nil }

// Function is a definition, or a declaration when External is set.
type Function struct {
	Name     string
	Ret      *Type
	Sig      *Type
	Params   []*Register
	Blocks   []*Block // creation order; Blocks[0] is the entry block
	External bool

	allocas []Instr
	ptr     *Type
}

func (f *Function) Type() *Type   { return f.ptr }
func (f *Function) Ident() string { return "@" + f.Name }

// Entry returns the entry block, or nil for a declaration.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

func (f *Function) String() string {
	var sb strings.Builder
	f.write(&sb)
	return sb.String()
}

func (f *Function) write(sb *strings.Builder) {
	if f.External {
		parts := make([]string, len(f.Sig.Params))
		for i, p := range f.Sig.Params {
			parts[i] = p.String()
		}
		fmt.Fprintf(sb, "declare %s @%s(%s)\n", f.Ret, f.Name, strings.Join(parts, ", "))
		return
	}
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = typed(p)
	}
	fmt.Fprintf(sb, "define %s @%s(%s) {\n", f.Ret, f.Name, strings.Join(parts, ", "))
	for i, b := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(sb, "%s:\n", b.Label)
		if i == 0 {
			for _, a := range f.allocas {
				fmt.Fprintf(sb, "  %s\n", a)
			}
		}
		for _, in := range b.Instrs {
			fmt.Fprintf(sb, "  %s\n", in)
		}
		if b.Term != nil {
			fmt.Fprintf(sb, "  %s\n", b.Term)
		}
	}
	sb.WriteString("}\n")
}

// Module is one translation unit.
type Module struct {
	Name       string
	SourceFile string
	Globals    []*Global
	Funcs      []*Function // definitions and declarations in creation order

	usesMemset bool
}

// Func looks up a function by name.
func (m *Module) Func(name string) *Function {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// String serializes the module: header, globals, declarations, then
// definitions.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", m.Name)
	fmt.Fprintf(&sb, "source_filename = %q\n", m.SourceFile)

	if len(m.Globals) > 0 {
		sb.WriteString("\n")
		for _, g := range m.Globals {
			fmt.Fprintf(&sb, "%s\n", g)
		}
	}

	var decls, defs []*Function
	for _, f := range m.Funcs {
		if f.External {
			decls = append(decls, f)
		} else {
			defs = append(defs, f)
		}
	}
	if len(decls) > 0 || m.usesMemset {
		sb.WriteString("\n")
		for _, f := range decls {
			f.write(&sb)
		}
		if m.usesMemset {
			fmt.Fprintf(&sb, "declare void @%s(ptr, i8, i32, i1)\n", memsetName)
		}
	}
	for _, f := range defs {
		sb.WriteString("\n")
		f.write(&sb)
	}
	return sb.String()
}
