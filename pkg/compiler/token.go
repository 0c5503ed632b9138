package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	INT_LIT    // decimal, octal or hex integer literal
	FLOAT_LIT  // floating literal, optional f/F suffix

	// Keywords
	CONST    // "const"
	INT      // "int"
	FLOAT    // "float"
	VOID     // "void"
	IF       // "if"
	ELSE     // "else"
	WHILE    // "while"
	BREAK    // "break"
	CONTINUE // "continue"
	RETURN   // "return"

	// Paired delimiters
	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,

	// Arithmetic operators
	PLUS        // +
	MINUS       // -
	STAR        // *
	SLASH       // /
	PERCENT     // %
	AND_LOGICAL // &&
	OR_LOGICAL  // ||
	NOT         // !

	// Assignment / comparison
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	EOF:         "EOF",
	IDENTIFIER:  "IDENTIFIER",
	INT_LIT:     "INT_LIT",
	FLOAT_LIT:   "FLOAT_LIT",
	CONST:       "CONST",
	INT:         "INT",
	FLOAT:       "FLOAT",
	VOID:        "VOID",
	IF:          "IF",
	ELSE:        "ELSE",
	WHILE:       "WHILE",
	BREAK:       "BREAK",
	CONTINUE:    "CONTINUE",
	RETURN:      "RETURN",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	LBRACKET:    "LBRACKET",
	RBRACKET:    "RBRACKET",
	SEMICOLON:   "SEMICOLON",
	COMMA:       "COMMA",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	PERCENT:     "PERCENT",
	AND_LOGICAL: "AND_LOGICAL",
	OR_LOGICAL:  "OR_LOGICAL",
	NOT:         "NOT",
	ASSIGN:      "ASSIGN",
	EQUALS:      "EQUALS",
	NOT_EQ:      "NOT_EQ",
	LESS:        "LESS",
	GREATER:     "GREATER",
	LESS_EQ:     "LESS_EQ",
	GREATER_EQ:  "GREATER_EQ",
}

// tokenSpelling is how a fixed token is quoted in syntax errors.
var tokenSpelling = map[TokenType]string{
	CONST: "const", INT: "int", FLOAT: "float", VOID: "void",
	IF: "if", ELSE: "else", WHILE: "while", BREAK: "break",
	CONTINUE: "continue", RETURN: "return",
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")",
	LBRACKET: "[", RBRACKET: "]", SEMICOLON: ";", COMMA: ",",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AND_LOGICAL: "&&", OR_LOGICAL: "||", NOT: "!",
	ASSIGN: "=", EQUALS: "==", NOT_EQ: "!=", LESS: "<", GREATER: ">",
	LESS_EQ: "<=", GREATER_EQ: ">=",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Describe returns the user-facing name of the token type, e.g. "';'" or
// "identifier".
func (tt TokenType) Describe() string {
	if s, ok := tokenSpelling[tt]; ok {
		return "'" + s + "'"
	}
	switch tt {
	case EOF:
		return "end of input"
	case IDENTIFIER:
		return "identifier"
	case INT_LIT:
		return "integer literal"
	case FLOAT_LIT:
		return "float literal"
	}
	return tt.String()
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Col    int    // 1-based column of the first rune
}

// Pos returns the source position of the token.
func (t Token) Pos() Pos { return Pos{Line: t.Line, Col: t.Col} }

// describe quotes the token as it appeared in the source.
func (t Token) describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENTIFIER, INT_LIT, FLOAT_LIT:
		return fmt.Sprintf("%s %q", t.Type.Describe(), t.Lexeme)
	}
	return t.Type.Describe()
}

func (t Token) String() string {
	return fmt.Sprintf("%-11s %-14q  %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
