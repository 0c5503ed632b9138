package compiler

import (
	"fmt"
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"const":    CONST,
	"int":      INT,
	"float":    FLOAT,
	"void":     VOID,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) here() Pos { return Pos{Line: l.line, Col: l.col} }

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
// The opening "/*" must already have been consumed.
func (l *Lexer) skipBlockComment(open Pos) error {
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance() // *
			l.advance() // /
			return nil
		}
		l.advance()
	}
	return &LexicalError{Pos: open, Msg: "unterminated block comment"}
}

// Identifiers are ASCII only: [A-Za-z_][A-Za-z0-9_]*. They are emitted
// unquoted as IR names.
func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) }

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	at := l.here()
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: at.Line, Col: at.Col}
}

func (l *Lexer) digits() int {
	n := 0
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
		n++
	}
	return n
}

// scanNumber collects an integer or floating literal. The first rune (a digit,
// or '.' followed by a digit) must still be at l.peek(). The f/F suffix of a
// float literal is consumed but not kept in the lexeme.
func (l *Lexer) scanNumber() (Token, error) {
	at := l.here()
	start := l.pos
	malformed := func() (Token, error) {
		for l.pos < len(l.src) && (isIdentPart(l.peek()) || l.peek() == '.') {
			l.advance()
		}
		return Token{}, &LexicalError{Pos: at, Msg: fmt.Sprintf("malformed numeric literal %q", string(l.src[start:l.pos]))}
	}

	if l.peek() == '0' && (l.peek2() == 'x' || l.peek2() == 'X') {
		l.advance() // 0
		l.advance() // x
		n := 0
		for l.pos < len(l.src) && isHexDigit(l.peek()) {
			l.advance()
			n++
		}
		if n == 0 || isIdentPart(l.peek()) || l.peek() == '.' {
			return malformed()
		}
		return l.intToken(at, string(l.src[start:l.pos]))
	}

	intDigits := l.digits()
	isFloat := false
	if l.peek() == '.' {
		isFloat = true
		l.advance()
		if l.digits() == 0 && intDigits == 0 {
			return malformed()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if l.digits() == 0 {
			return malformed()
		}
	}

	lexeme := string(l.src[start:l.pos])
	if isFloat {
		if l.peek() == 'f' || l.peek() == 'F' {
			l.advance()
		}
		if isIdentPart(l.peek()) || l.peek() == '.' {
			return malformed()
		}
		if _, err := strconv.ParseFloat(lexeme, 32); err != nil {
			return Token{}, &LexicalError{Pos: at, Msg: fmt.Sprintf("float literal %q out of range", lexeme)}
		}
		return Token{Type: FLOAT_LIT, Lexeme: lexeme, Line: at.Line, Col: at.Col}, nil
	}

	if isIdentPart(l.peek()) {
		return malformed()
	}
	if len(lexeme) > 1 && lexeme[0] == '0' {
		for _, r := range lexeme[1:] {
			if r > '7' {
				return Token{}, &LexicalError{Pos: at, Msg: fmt.Sprintf("invalid digit %q in octal literal %q", r, lexeme)}
			}
		}
	}
	return l.intToken(at, lexeme)
}

// intToken range-checks an integer lexeme. 2147483648 passes here so that
// -2147483648 can be written; the parser rejects it anywhere else.
func (l *Lexer) intToken(at Pos, lexeme string) (Token, error) {
	if v, err := strconv.ParseUint(lexeme, 0, 32); err != nil || v > 1<<31 {
		return Token{}, &LexicalError{Pos: at, Msg: fmt.Sprintf("integer literal %q out of range", lexeme)}
	}
	return Token{Type: INT_LIT, Lexeme: lexeme, Line: at.Line, Col: at.Col}, nil
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Lexeme: "", Line: l.line, Col: l.col}, nil
		}
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if l.peek() == '/' && l.peek2() == '*' {
			open := l.here()
			l.advance()
			l.advance()
			if err := l.skipBlockComment(open); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	ch := l.peek()
	at := l.here()

	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}
	if isDigit(ch) || (ch == '.' && isDigit(l.peek2())) {
		return l.scanNumber()
	}

	tok := func(tt TokenType, lexeme string) (Token, error) {
		return Token{Type: tt, Lexeme: lexeme, Line: at.Line, Col: at.Col}, nil
	}
	// two returns the long form when the next rune is want.
	two := func(want rune, long TokenType, longLex string, short TokenType, shortLex string) (Token, error) {
		if l.peek() == want {
			l.advance()
			return tok(long, longLex)
		}
		return tok(short, shortLex)
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '{':
		return tok(LBRACE, "{")
	case '}':
		return tok(RBRACE, "}")
	case '(':
		return tok(LPAREN, "(")
	case ')':
		return tok(RPAREN, ")")
	case '[':
		return tok(LBRACKET, "[")
	case ']':
		return tok(RBRACKET, "]")
	case ';':
		return tok(SEMICOLON, ";")
	case ',':
		return tok(COMMA, ",")
	case '+':
		return tok(PLUS, "+")
	case '-':
		return tok(MINUS, "-")
	case '*':
		return tok(STAR, "*")
	case '/':
		return tok(SLASH, "/")
	case '%':
		return tok(PERCENT, "%")
	case '!':
		return two('=', NOT_EQ, "!=", NOT, "!")
	case '<':
		return two('=', LESS_EQ, "<=", LESS, "<")
	case '>':
		return two('=', GREATER_EQ, ">=", GREATER, ">")
	case '=':
		return two('=', EQUALS, "==", ASSIGN, "=")
	case '&':
		if l.peek() == '&' {
			l.advance()
			return tok(AND_LOGICAL, "&&")
		}
	case '|':
		if l.peek() == '|' {
			l.advance()
			return tok(OR_LOGICAL, "||")
		}
	}
	return Token{}, &LexicalError{Pos: at, Msg: fmt.Sprintf("unexpected character %q", ch)}
}

// Lex converts source text into a flat slice of tokens terminated by EOF.
// It stops at the first lexical error.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
