package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Line: 1, Col: 1},
			},
		},
		{
			name:  "Punctuation",
			input: "{}()[];,",
			expected: []Token{
				{Type: LBRACE, Lexeme: "{", Line: 1, Col: 1},
				{Type: RBRACE, Lexeme: "}", Line: 1, Col: 2},
				{Type: LPAREN, Lexeme: "(", Line: 1, Col: 3},
				{Type: RPAREN, Lexeme: ")", Line: 1, Col: 4},
				{Type: LBRACKET, Lexeme: "[", Line: 1, Col: 5},
				{Type: RBRACKET, Lexeme: "]", Line: 1, Col: 6},
				{Type: SEMICOLON, Lexeme: ";", Line: 1, Col: 7},
				{Type: COMMA, Lexeme: ",", Line: 1, Col: 8},
				{Type: EOF, Lexeme: "", Line: 1, Col: 9},
			},
		},
		{
			name:  "Operators",
			input: "+ - * / % = == != < > <= >= && || !",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1, Col: 1},
				{Type: MINUS, Lexeme: "-", Line: 1, Col: 3},
				{Type: STAR, Lexeme: "*", Line: 1, Col: 5},
				{Type: SLASH, Lexeme: "/", Line: 1, Col: 7},
				{Type: PERCENT, Lexeme: "%", Line: 1, Col: 9},
				{Type: ASSIGN, Lexeme: "=", Line: 1, Col: 11},
				{Type: EQUALS, Lexeme: "==", Line: 1, Col: 13},
				{Type: NOT_EQ, Lexeme: "!=", Line: 1, Col: 16},
				{Type: LESS, Lexeme: "<", Line: 1, Col: 19},
				{Type: GREATER, Lexeme: ">", Line: 1, Col: 21},
				{Type: LESS_EQ, Lexeme: "<=", Line: 1, Col: 23},
				{Type: GREATER_EQ, Lexeme: ">=", Line: 1, Col: 26},
				{Type: AND_LOGICAL, Lexeme: "&&", Line: 1, Col: 29},
				{Type: OR_LOGICAL, Lexeme: "||", Line: 1, Col: 32},
				{Type: NOT, Lexeme: "!", Line: 1, Col: 35},
				{Type: EOF, Lexeme: "", Line: 1, Col: 36},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "const int float void if else while break continue return _x1 iff",
			expected: []Token{
				{Type: CONST, Lexeme: "const", Line: 1, Col: 1},
				{Type: INT, Lexeme: "int", Line: 1, Col: 7},
				{Type: FLOAT, Lexeme: "float", Line: 1, Col: 11},
				{Type: VOID, Lexeme: "void", Line: 1, Col: 17},
				{Type: IF, Lexeme: "if", Line: 1, Col: 22},
				{Type: ELSE, Lexeme: "else", Line: 1, Col: 25},
				{Type: WHILE, Lexeme: "while", Line: 1, Col: 30},
				{Type: BREAK, Lexeme: "break", Line: 1, Col: 36},
				{Type: CONTINUE, Lexeme: "continue", Line: 1, Col: 42},
				{Type: RETURN, Lexeme: "return", Line: 1, Col: 51},
				{Type: IDENTIFIER, Lexeme: "_x1", Line: 1, Col: 58},
				{Type: IDENTIFIER, Lexeme: "iff", Line: 1, Col: 62},
				{Type: EOF, Lexeme: "", Line: 1, Col: 65},
			},
		},
		{
			name:  "Integers",
			input: "123 0 0x1A 0Xff 017",
			expected: []Token{
				{Type: INT_LIT, Lexeme: "123", Line: 1, Col: 1},
				{Type: INT_LIT, Lexeme: "0", Line: 1, Col: 5},
				{Type: INT_LIT, Lexeme: "0x1A", Line: 1, Col: 7},
				{Type: INT_LIT, Lexeme: "0Xff", Line: 1, Col: 12},
				{Type: INT_LIT, Lexeme: "017", Line: 1, Col: 17},
				{Type: EOF, Lexeme: "", Line: 1, Col: 20},
			},
		},
		{
			name:    "Suffix On Integer",
			input:   "3f",
			wantErr: true,
		},
		{
			name:  "Float Forms",
			input: "1.5 .5 2. 1e3 2.5E-2f",
			expected: []Token{
				{Type: FLOAT_LIT, Lexeme: "1.5", Line: 1, Col: 1},
				{Type: FLOAT_LIT, Lexeme: ".5", Line: 1, Col: 5},
				{Type: FLOAT_LIT, Lexeme: "2.", Line: 1, Col: 8},
				{Type: FLOAT_LIT, Lexeme: "1e3", Line: 1, Col: 11},
				{Type: FLOAT_LIT, Lexeme: "2.5E-2", Line: 1, Col: 15},
				{Type: EOF, Lexeme: "", Line: 1, Col: 22},
			},
		},
		{
			name:  "Comments",
			input: "x // comment\n y /* block\n */ z",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "y", Line: 2, Col: 2},
				{Type: IDENTIFIER, Lexeme: "z", Line: 3, Col: 5},
				{Type: EOF, Lexeme: "", Line: 3, Col: 6},
			},
		},
		{
			name:    "Unterminated Block Comment",
			input:   "/* start",
			wantErr: true,
		},
		{
			name:    "Unexpected Character",
			input:   "@",
			wantErr: true,
		},
		{
			name:    "Single Ampersand",
			input:   "a & b",
			wantErr: true,
		},
		{
			name:    "Single Pipe",
			input:   "a | b",
			wantErr: true,
		},
		{
			name:    "Bad Octal",
			input:   "08",
			wantErr: true,
		},
		{
			name:    "Empty Hex",
			input:   "0x",
			wantErr: true,
		},
		{
			name:    "Identifier Glued To Number",
			input:   "12ab",
			wantErr: true,
		},
		{
			name:    "Empty Exponent",
			input:   "1e+",
			wantErr: true,
		},
		{
			name:    "Integer Out Of Range",
			input:   "4294967296",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if tt.wantErr {
				var le *LexicalError
				be.True(t, errors.As(err, &le))
				return
			}
			be.Err(t, err, nil)
			be.Equal(t, tokens, tt.expected)
		})
	}
}

func TestLexErrorPosition(t *testing.T) {
	_, err := Lex("int main() {\n  int x = 1 # 2;\n}")
	var le *LexicalError
	be.True(t, errors.As(err, &le))
	be.Equal(t, le.Pos, Pos{Line: 2, Col: 13})
	be.Equal(t, le.Error(), "2:13: lexical error: unexpected character '#'")
}

func TestLexLargestLiteral(t *testing.T) {
	tokens, err := Lex("2147483648 0x80000000")
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 3)
	be.Equal(t, tokens[0].Type, INT_LIT)
	be.Equal(t, tokens[1].Lexeme, "0x80000000")

	for _, src := range []string{"2147483649", "4294967295", "0xFFFFFFFF", "037777777777"} {
		_, err := Lex(src)
		var lexErr *LexicalError
		be.True(t, errors.As(err, &lexErr))
		be.True(t, strings.Contains(err.Error(), "out of range"))
	}
}

func TestLexIdentifiersAreASCII(t *testing.T) {
	tokens, err := Lex("_x9 Abc_1")
	be.Err(t, err, nil)
	be.Equal(t, tokens[0].Lexeme, "_x9")
	be.Equal(t, tokens[1].Lexeme, "Abc_1")

	tests := []struct {
		src  string
		want string
	}{
		{"int café = 1;", "1:8: lexical error: unexpected character 'é'"},
		{"int éa;", "1:5: lexical error: unexpected character 'é'"},
		{"int x = ١;", "1:9: lexical error: unexpected character '١'"},
		{"int x = 1٢;", "1:10: lexical error: unexpected character '٢'"},
	}
	for _, tt := range tests {
		_, err := Lex(tt.src)
		be.True(t, err != nil)
		be.Equal(t, err.Error(), tt.want)
	}
}

func TestTokenDescribe(t *testing.T) {
	be.Equal(t, SEMICOLON.Describe(), "';'")
	be.Equal(t, EOF.Describe(), "end of input")
	be.Equal(t, IDENTIFIER.Describe(), "identifier")
	be.Equal(t, Token{Type: IDENTIFIER, Lexeme: "foo"}.describe(), `identifier "foo"`)
	be.Equal(t, Token{Type: INT_LIT, Lexeme: "42"}.describe(), `integer literal "42"`)
}
