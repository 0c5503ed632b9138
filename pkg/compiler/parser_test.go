package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func parseSource(t *testing.T, src string) (*Program, error) {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	return Parse(tokens)
}

// mainBody parses src and returns the statements of its last function.
func mainBody(t *testing.T, src string) []Stmt {
	t.Helper()
	prog, err := parseSource(t, src)
	be.Err(t, err, nil)
	fn, ok := prog.Items[len(prog.Items)-1].(*FuncDecl)
	be.True(t, ok)
	return fn.Body.Stmts
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"Multiplication binds tighter", "1 + 2 * 3 - 4", "((1 + (2 * 3)) - 4)"},
		{"Left associative", "a - b - c", "((a - b) - c)"},
		{"Parentheses", "(a + b) * c", "((a + b) * c)"},
		{"And binds tighter than or", "a || b && c", "(a || (b && c))"},
		{"Relational above equality", "a < b == c > d", "((a < b) == (c > d))"},
		{"Unary chain", "-!a", "(-(!a))"},
		{"Unary before binary", "-a * +b", "((-a) * (+b))"},
		{"Call and index", "f(x, y[1][j + 1]) % 2", "(f(x, y[1][(j + 1)]) % 2)"},
		{"Float literal", "1.5 + 2.", "(1.5 + 2.0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := mainBody(t, "int main() { return "+tt.expr+"; }")
			be.Equal(t, len(body), 1)
			ret, ok := body[0].(*ReturnStmt)
			be.True(t, ok)
			be.Equal(t, ret.Value.String(), tt.want)
		})
	}
}

func TestParseOperatorPosition(t *testing.T) {
	body := mainBody(t, "int main() {\n  return a +\n    b;\n}")
	bin := body[0].(*ReturnStmt).Value.(*BinaryExpr)
	be.Equal(t, bin.Pos(), Pos{Line: 2, Col: 12})
	be.Equal(t, bin.Right.Pos(), Pos{Line: 3, Col: 5})
}

func TestParseDeclarations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "Const folding",
			src:  "const int N = 2 * 3; int a[N][N - 4];",
			want: []string{"ConstDecl(int N = 6)", "VarDecl(int a[6][2])"},
		},
		{
			name: "Multiple definitions",
			src:  "int a = 1, b[2], c;",
			want: []string{"VarDecl(int a = 1)", "VarDecl(int b[2])", "VarDecl(int c)"},
		},
		{
			name: "Global initializer is flattened",
			src:  "int g[2][2] = {{1}, 2, 3};",
			want: []string{"VarDecl(int g[2][2] = {1, 0, 2, 3})"},
		},
		{
			name: "Float constant from int division",
			src:  "const float F = 1 / 2;",
			want: []string{"ConstDecl(float F = 0.0)"},
		},
		{
			name: "Int widened in float array",
			src:  "const float v[3] = {1, 2.5};",
			want: []string{"ConstDecl(float v[3] = {1.0, 2.5, 0.0})"},
		},
		{
			name: "Const array element",
			src:  "const int K[3] = {1, 2, 3}; const int M = K[2] * 2;",
			want: []string{"ConstDecl(int K[3] = {1, 2, 3})", "ConstDecl(int M = 6)"},
		},
		{
			name: "Logical and relational constants",
			src:  "const int T = 1 < 2 && !0; const int U = 3 == 4 || 0;",
			want: []string{"ConstDecl(int T = 1)", "ConstDecl(int U = 0)"},
		},
		{
			name: "Constant logic skips the decided operand",
			src:  "const int Z = 0 && 1 / 0; const int O = 2 || 1 % 0; const int R = 1 && 0.5;",
			want: []string{"ConstDecl(int Z = 0)", "ConstDecl(int O = 1)", "ConstDecl(int R = 1)"},
		},
		{
			name: "Int32 wraparound",
			src:  "const int W = 2147483647 + 1;",
			want: []string{"ConstDecl(int W = -2147483648)"},
		},
		{
			name: "Function with array parameter",
			src:  "int f(int a[][3], float x) { return 0; }",
			want: []string{"FuncDecl(int f(int[][3] a, float x), body=Block(len=1))"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parseSource(t, tt.src)
			be.Err(t, err, nil)
			be.Equal(t, len(prog.Items), len(tt.want))
			for i, item := range prog.Items {
				be.Equal(t, item.String(), tt.want[i])
			}
		})
	}
}

func TestParseLocalInitializersStayUnfolded(t *testing.T) {
	body := mainBody(t, "int main() { int x = 1 + 2; int a[2] = {x, 3}; return x; }")
	be.Equal(t, body[0].String(), "VarDecl(int x = (1 + 2))")
	be.Equal(t, body[1].String(), "VarDecl(int a[2] = {x, 3})")
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want string
	}{
		{"Dangling else", "if (a) if (b) x = 1; else x = 2;", "If(a then If(b then Assign(x = 1) else Assign(x = 2)))"},
		{"While", "while (i < n) i = i + 1;", "While((i < n) do Assign(i = (i + 1)))"},
		{"Empty statement", ";", "ExprStmt()"},
		{"Call statement", "f(1);", "ExprStmt(f(1))"},
		{"Indexed assignment", "a[i][0] = 2;", "Assign(a[i][0] = 2)"},
		{"Bare return", "return;", "Return()"},
		{"Block", "{ x = 1; ; }", "Block(len=2)"},
		{"Break", "break;", "Break"},
		{"Continue", "continue;", "Continue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := mainBody(t, "void main() { "+tt.stmt+" }")
			be.Equal(t, len(body), 1)
			be.Equal(t, body[0].String(), tt.want)
		})
	}
}

func TestParseIntMinLiteral(t *testing.T) {
	body := mainBody(t, "int main() { return -2147483648 + 2147483647; }")
	be.Equal(t, body[0].(*ReturnStmt).Value.String(), "((--2147483648) + 2147483647)")

	for _, src := range []string{
		"int main() { return 2147483648; }",
		"int main() { return -(2147483648); }",
		"int main() { return 1 - 2147483648; }",
	} {
		_, err := parseSource(t, src)
		var lexErr *LexicalError
		be.True(t, errors.As(err, &lexErr))
		be.True(t, strings.Contains(err.Error(), `integer literal "2147483648" out of range`))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		want       string
		incomplete bool
	}{
		{
			name: "Missing semicolon",
			src:  "int main() { return 0 }",
			want: "1:23: syntax error: unexpected '}', expected ';'",
		},
		{
			name:       "Unclosed body",
			src:        "int main() {\n  return 0;\n",
			want:       "3:1: syntax error: unexpected end of input, expected '}'",
			incomplete: true,
		},
		{
			name:       "Unclosed call",
			src:        "int main() { return f(1,",
			want:       "syntax error: unexpected end of input, expected expression",
			incomplete: true,
		},
		{
			name: "Void variable",
			src:  "void x;",
			want: "1:7: syntax error: unexpected ';', expected '('",
		},
		{
			name: "Const without initializer",
			src:  "const int x;",
			want: "1:12: syntax error: unexpected ';', expected '='",
		},
		{
			name: "Statement at top level",
			src:  "x = 1;",
			want: "1:1: syntax error: unexpected identifier \"x\", expected one of 'const', 'int', 'float', 'void'",
		},
		{
			name: "Bad call separator",
			src:  "int main() { return f(1 2); }",
			want: "1:25: syntax error: unexpected integer literal \"2\", expected one of ',', ')'",
		},
		{
			name: "Declaration as if body",
			src:  "int main() { if (1) int x; return 0; }",
			want: "syntax error: unexpected 'int', expected expression",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(t, tt.src)
			var se *SyntaxError
			be.True(t, errors.As(err, &se))
			be.True(t, strings.HasSuffix(err.Error(), tt.want))
			be.Equal(t, IsIncomplete(err), tt.incomplete)
			be.Equal(t, se.AtEOF(), tt.incomplete)
		})
	}
}

func TestParseSemanticErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind SemanticKind
	}{
		{"Duplicate function", "int f() { return 0; } void f() {}", Redeclaration},
		{"Nested function", "int main() { int g() { return 1; } }", Redeclaration},
		{"Zero dimension", "int a[0];", InvalidArrayIndex},
		{"Negative dimension", "int a[1 - 2];", InvalidArrayIndex},
		{"Float dimension", "int a[1.5];", TypeMismatch},
		{"Variable dimension", "int n = 2; int a[n];", NonConstantInConstContext},
		{"Local shadows constant", "const int N = 1; int main() { int N = 5; const int M = N; return M; }", NonConstantInConstContext},
		{"Parameter shadows constant", "const int N = 2; int f(int N) { const int M = N; return M; }", NonConstantInConstContext},
		{"Const index out of range", "const int K[2] = {1, 2}; const int M = K[2];", InvalidArrayIndex},
		{"Float into int constant", "const int x = 1.5;", TypeMismatch},
		{"Float remainder", "const float r = 5.0 % 2;", TypeMismatch},
		{"Division by zero", "const int z = 4 % (2 - 2);", NonConstantInConstContext},
		{"Scalar with brace list", "int x = {1};", TypeMismatch},
		{"Array with scalar", "int a[2] = 1;", TypeMismatch},
		{"Braces around scalar", "int g[2][2] = {1, {2}};", TypeMismatch},
		{"Too many elements", "int g[2][2] = {{1, 2, 3}};", TypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(t, tt.src)
			be.True(t, err != nil)
			be.Equal(t, KindOf(err), tt.kind)
		})
	}
}

func TestFlattenInit(t *testing.T) {
	tests := []struct {
		name string
		dims []int
		init string
		want string
	}{
		{"Flat", []int{2, 3}, "{1, 2, 3, 4}", "1 2 3 4 _ _"},
		{"Rows", []int{2, 3}, "{{1}, {4, 5}}", "1 _ _ 4 5 _"},
		{"Mixed", []int{3, 2}, "{1, 2, {3}, 4}", "1 2 3 _ 4 _"},
		{"Empty", []int{2}, "{}", "_ _"},
		{"Deep", []int{2, 2, 2}, "{{1, 2, {3}}, {4}}", "1 2 3 _ 4 _ _ _"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := mainBody(t, "int main() { int a[9][9] = "+tt.init+"; }")
			list := body[0].(*VarDecl).Init.(*InitList)
			flat, err := flattenInit(list, Type{Basic: Int, Dims: tt.dims})
			be.Err(t, err, nil)
			got := ""
			for i, e := range flat {
				if i > 0 {
					got += " "
				}
				if e == nil {
					got += "_"
				} else {
					got += e.String()
				}
			}
			be.Equal(t, got, tt.want)
		})
	}
}
