package compiler

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestSymbolTable(t *testing.T) {
	t.Run("DefineAndLookup", func(t *testing.T) {
		s := NewSymbolTable()
		be.Err(t, s.Define(&Symbol{Name: "g", Type: Scalar(Int), Class: StorageGlobal}), nil)

		sym, ok := s.Lookup("g")
		be.True(t, ok)
		be.Equal(t, sym.Class, StorageGlobal)

		_, ok = s.Lookup("missing")
		be.True(t, !ok)
	})

	t.Run("Redeclaration", func(t *testing.T) {
		s := NewSymbolTable()
		be.Err(t, s.Define(&Symbol{Name: "x", Pos: Pos{1, 5}}), nil)
		err := s.Define(&Symbol{Name: "x", Pos: Pos{2, 5}})
		be.Equal(t, KindOf(err), Redeclaration)
		be.True(t, strings.Contains(err.Error(), "2:5"))
		be.True(t, strings.Contains(err.Error(), "(at 1:5)"))
	})

	t.Run("Shadowing", func(t *testing.T) {
		s := NewSymbolTable()
		outer := &Symbol{Name: "x", Class: StorageGlobal}
		inner := &Symbol{Name: "x", Class: StorageLocal}
		be.Err(t, s.Define(outer), nil)

		s.EnterScope()
		be.Equal(t, s.Depth(), 2)
		be.Err(t, s.Define(inner), nil)
		got, _ := s.Lookup("x")
		be.True(t, got == inner)

		s.ExitScope()
		got, _ = s.Lookup("x")
		be.True(t, got == outer)
		be.Equal(t, s.Depth(), 1)
	})

	t.Run("ScopesAreIndependent", func(t *testing.T) {
		s := NewSymbolTable()
		s.EnterScope()
		be.Err(t, s.Define(&Symbol{Name: "i"}), nil)
		s.ExitScope()
		s.EnterScope()
		be.Err(t, s.Define(&Symbol{Name: "i"}), nil)
		s.ExitScope()
	})

	t.Run("GlobalScopeCannotBeDropped", func(t *testing.T) {
		s := NewSymbolTable()
		defer func() {
			be.True(t, recover() != nil)
		}()
		s.ExitScope()
	})
}

func TestSymbolTableDump(t *testing.T) {
	res, err := Translate(`
const int N = 3;
float buf[N][2];
int main() {
	print_int(N);
	return 0;
}
`, Options{})
	be.Err(t, err, nil)

	want := strings.Join([]string{
		"--- Symbol Table ---",
		"N: global const int",
		"buf: global float[3][2]",
		"main: func int()",
		"print_int: func void(int)",
		"",
	}, "\n")
	be.Equal(t, res.Symbols.String(), want)
}
