package compiler

import (
	"fmt"
	"sort"
	"strings"

	"cactc/pkg/ir"
)

type StorageClass int

const (
	StorageGlobal StorageClass = iota
	StorageLocal
	StorageParam
	StorageFunc
)

func (c StorageClass) String() string {
	switch c {
	case StorageGlobal:
		return "global"
	case StorageLocal:
		return "local"
	case StorageParam:
		return "param"
	case StorageFunc:
		return "func"
	}
	return fmt.Sprintf("StorageClass(%d)", int(c))
}

// Symbol is one declared name.
type Symbol struct {
	Name  string
	Type  Type
	Class StorageClass
	Const bool
	Pos   Pos

	// Value is the folded literal of a const scalar; such symbols have no
	// storage.
	Value ir.Value
	// Addr is the storage address: an alloca slot, a global, or the pointer
	// parameter of a decayed array.
	Addr ir.Value

	Sig     *FuncSig
	Fn      *ir.Function
	Builtin bool // runtime library function, declared on first call
}

func (s *Symbol) String() string {
	switch s.Class {
	case StorageFunc:
		return fmt.Sprintf("%s: func %s", s.Name, s.Sig)
	}
	q := ""
	if s.Const {
		q = "const "
	}
	return fmt.Sprintf("%s: %s %s%s", s.Name, s.Class, q, s.Type)
}

// SymbolTable is a stack of scopes; index 0 holds globals and functions.
type SymbolTable struct {
	scopes []map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: []map[string]*Symbol{make(map[string]*Symbol)}}
}

func (s *SymbolTable) EnterScope() {
	s.scopes = append(s.scopes, make(map[string]*Symbol))
}

func (s *SymbolTable) ExitScope() {
	if len(s.scopes) == 1 {
		panic("ExitScope would drop the global scope")
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Depth is the number of open scopes, including the global one.
func (s *SymbolTable) Depth() int { return len(s.scopes) }

// Define inserts sym into the innermost scope. A name may be declared only
// once per scope level.
func (s *SymbolTable) Define(sym *Symbol) error {
	top := s.scopes[len(s.scopes)-1]
	if prev, ok := top[sym.Name]; ok {
		return semErr(Redeclaration, sym.Pos, "%q already declared in this scope (at %s)", sym.Name, prev.Pos)
	}
	top[sym.Name] = sym
	return nil
}

// Lookup resolves name innermost scope first.
func (s *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if sym, ok := s.scopes[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// String dumps the global scope sorted by name.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	sb.WriteString("--- Symbol Table ---\n")
	global := s.scopes[0]
	names := make([]string, 0, len(global))
	for name := range global {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := global[name]
		if sym.Builtin && sym.Fn == nil {
			continue
		}
		fmt.Fprintf(&sb, "%s\n", sym)
	}
	return sb.String()
}
