package compiler

import (
	"fmt"
	"strconv"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program  = { decl | funcDef } EOF
//	decl     = [ "const" ] bType def { "," def } ";"
//	def      = IDENTIFIER { "[" constExp "]" } [ "=" initVal ]
//	initVal  = expression | "{" [ initVal { "," initVal } [ "," ] ] "}"
//	funcDef  = ( "void" | bType ) IDENTIFIER "(" [ param { "," param } ] ")" block
//	param    = bType IDENTIFIER [ "[" "]" { "[" constExp "]" } ]
//	block    = "{" { decl | statement } "}"
//	statement = lval "=" expression ";" | [ expression ] ";" | block
//	         | "if" "(" expression ")" statement [ "else" statement ]
//	         | "while" "(" expression ")" statement
//	         | "break" ";" | "continue" ";" | "return" [ expression ] ";"
//	lval     = IDENTIFIER { "[" expression "]" }
//
// Binary operators are parsed by precedence climbing (see binaryPrec);
// unary + - ! bind tighter than any binary operator.
//
// Constant expressions (dimensions, const and global initializers) are
// folded while parsing, against a scoped view of the constants declared so
// far.
type Parser struct {
	tokens []Token
	pos    int
	consts *constEnv
	funcs  map[string]Pos
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, consts: newConstEnv(), funcs: make(map[string]Pos)}
}

// syntaxError reports tok as unexpected; expected lists what would have been
// accepted.
func (p *Parser) syntaxError(tok Token, expected ...string) error {
	return &SyntaxError{
		Pos:      tok.Pos(),
		Found:    tok.describe(),
		Expected: expected,
		eof:      tok.Type == EOF,
	}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

// peekAt returns the token at the given offset from the current position.
// Reading past the end yields the final EOF token.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Type: EOF, Line: 1, Col: 1}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.syntaxError(tok, tt.Describe())
	}
	return p.advance(), nil
}

// binaryPrec gives the binding power of each binary operator; all levels
// are left-associative.
var binaryPrec = map[TokenType]int{
	OR_LOGICAL:  1,
	AND_LOGICAL: 2,
	EQUALS:      3,
	NOT_EQ:      3,
	LESS:        4,
	GREATER:     4,
	LESS_EQ:     4,
	GREATER_EQ:  4,
	PLUS:        5,
	MINUS:       5,
	STAR:        6,
	SLASH:       6,
	PERCENT:     6,
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		prec, ok := binaryPrec[op.Type]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		if op.Type == AND_LOGICAL || op.Type == OR_LOGICAL {
			left = &LogicalExpr{At: op.Pos(), Op: op.Type, Left: left, Right: right}
		} else {
			left = &BinaryExpr{At: op.Pos(), Op: op.Type, Left: left, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case PLUS, MINUS, NOT:
		p.advance()
		var (
			x   Expr
			err error
		)
		if next := p.peek(); tok.Type == MINUS && next.Type == INT_LIT {
			p.advance()
			x, err = intLit(next, true)
		} else {
			x, err = p.parseUnary()
		}
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{At: tok.Pos(), Op: tok.Type, X: x}, nil
	}
	return p.parsePrimary()
}

// intLit converts an integer literal token. 2147483648 is only
// representable as the operand of unary minus.
func intLit(tok Token, negated bool) (*IntLit, error) {
	v, err := strconv.ParseUint(tok.Lexeme, 0, 32)
	if err != nil || v > 1<<31 || (v == 1<<31 && !negated) {
		return nil, &LexicalError{Pos: tok.Pos(), Msg: fmt.Sprintf("integer literal %q out of range", tok.Lexeme)}
	}
	return &IntLit{At: tok.Pos(), Value: int32(uint32(v))}, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INT_LIT:
		p.advance()
		return intLit(tok, false)

	case FLOAT_LIT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 32)
		if err != nil {
			return nil, &LexicalError{Pos: tok.Pos(), Msg: fmt.Sprintf("float literal %q out of range", tok.Lexeme)}
		}
		return &FloatLit{At: tok.Pos(), Value: float32(v)}, nil

	case IDENTIFIER:
		p.advance()
		switch p.peek().Type {
		case LPAREN:
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &CallExpr{At: tok.Pos(), Name: tok.Lexeme, Args: args}, nil
		case LBRACKET:
			idx := &IndexExpr{At: tok.Pos(), Name: tok.Lexeme}
			for p.peek().Type == LBRACKET {
				p.advance()
				e, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(RBRACKET); err != nil {
					return nil, err
				}
				idx.Indices = append(idx.Indices, e)
			}
			return idx, nil
		}
		return &VarRef{At: tok.Pos(), Name: tok.Lexeme}, nil

	case LPAREN:
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, p.syntaxError(tok, "expression")
}

// parseCallArgs parses "(" [ expression { "," expression } ] ")".
func (p *Parser) parseCallArgs() ([]Expr, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var args []Expr
	if p.peek().Type == RPAREN {
		p.advance()
		return args, nil
	}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		tok := p.advance()
		switch tok.Type {
		case COMMA:
			continue
		case RPAREN:
			return args, nil
		}
		return nil, p.syntaxError(tok, "','", "')'")
	}
}

func (p *Parser) parseInitList() (*InitList, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	list := &InitList{At: open.Pos()}
	for p.peek().Type != RBRACE {
		var e Expr
		if p.peek().Type == LBRACE {
			e, err = p.parseInitList()
		} else {
			e, err = p.parseExpression()
		}
		if err != nil {
			return nil, err
		}
		list.Elems = append(list.Elems, e)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return list, nil
}

// parseBasicType consumes "int" or "float".
func (p *Parser) parseBasicType() (BasicType, error) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		return Int, nil
	case FLOAT:
		p.advance()
		return Float, nil
	}
	return Void, p.syntaxError(tok, "'int'", "'float'")
}

// parseDimension parses and folds one "[" constExp "]".
func (p *Parser) parseDimension() (int, error) {
	if _, err := p.expect(LBRACKET); err != nil {
		return 0, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return 0, err
	}
	lit, err := p.constExpr(e, Int, "array dimension")
	if err != nil {
		return 0, err
	}
	n := lit.(*IntLit).Value
	if n <= 0 {
		return 0, semErr(InvalidArrayIndex, e.Pos(), "array dimension must be positive, got %d", n)
	}
	return int(n), nil
}

// parseDecl parses one declaration statement, which may declare several
// names.
func (p *Parser) parseDecl(global bool) ([]Stmt, error) {
	isConst := false
	if p.peek().Type == CONST {
		p.advance()
		isConst = true
	}
	basic, err := p.parseBasicType()
	if err != nil {
		return nil, err
	}
	var out []Stmt
	for {
		d, err := p.parseDef(basic, isConst, global)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseDef(basic BasicType, isConst, global bool) (*VarDecl, error) {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	d := &VarDecl{At: name.Pos(), Name: name.Lexeme, Type: Type{Basic: basic}, Const: isConst, Global: global}
	for p.peek().Type == LBRACKET {
		n, err := p.parseDimension()
		if err != nil {
			return nil, err
		}
		d.Type.Dims = append(d.Type.Dims, n)
	}

	switch {
	case p.peek().Type == ASSIGN:
		p.advance()
		if p.peek().Type == LBRACE {
			d.Init, err = p.parseInitList()
		} else {
			d.Init, err = p.parseExpression()
		}
		if err != nil {
			return nil, err
		}
	case isConst:
		return nil, p.syntaxError(p.peek(), "'='")
	}

	if err := p.foldDecl(d); err != nil {
		return nil, err
	}
	return d, nil
}

// foldDecl checks the initializer shape and, for const and global
// declarations, replaces it with its folded form. The name is bound only
// after its initializer has been processed.
func (p *Parser) foldDecl(d *VarDecl) error {
	what := fmt.Sprintf("initializer of %q", d.Name)
	needConst := d.Const || d.Global

	switch init := d.Init.(type) {
	case nil:
	case *InitList:
		if !d.Type.IsArray() {
			return semErr(TypeMismatch, init.At, "scalar %q initialized with a brace list", d.Name)
		}
		if needConst {
			flat, err := flattenInit(init, d.Type)
			if err != nil {
				return err
			}
			folded := &InitList{At: init.At, Elems: make([]Expr, len(flat))}
			for i, e := range flat {
				if e == nil {
					folded.Elems[i] = zeroLit(d.Type.Basic, init.At)
					continue
				}
				if folded.Elems[i], err = p.constExpr(e, d.Type.Basic, what); err != nil {
					return err
				}
			}
			d.Init = folded
		}
	default:
		if d.Type.IsArray() {
			return semErr(TypeMismatch, init.Pos(), "array %q initialized with a scalar", d.Name)
		}
		if needConst {
			lit, err := p.constExpr(init, d.Type.Basic, what)
			if err != nil {
				return err
			}
			d.Init = lit
		}
	}

	v := &constValue{typ: d.Type, known: d.Const}
	if d.Const {
		if list, ok := d.Init.(*InitList); ok {
			v.elems = list.Elems
		} else {
			v.scalar = d.Init
		}
	}
	p.consts.bind(d.Name, v)
	return nil
}

func (p *Parser) parseParam() (*Param, error) {
	basic, err := p.parseBasicType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	prm := &Param{At: name.Pos(), Name: name.Lexeme, Type: Type{Basic: basic}}
	if p.peek().Type == LBRACKET {
		p.advance()
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		prm.Type.Dims = []int{0}
		prm.Type.Decayed = true
		for p.peek().Type == LBRACKET {
			n, err := p.parseDimension()
			if err != nil {
				return nil, err
			}
			prm.Type.Dims = append(prm.Type.Dims, n)
		}
	}
	p.consts.bind(prm.Name, &constValue{typ: prm.Type})
	return prm, nil
}

func (p *Parser) parseFuncDecl() (*FuncDecl, error) {
	retTok := p.advance()
	fn := &FuncDecl{Ret: Void}
	switch retTok.Type {
	case INT:
		fn.Ret = Int
	case FLOAT:
		fn.Ret = Float
	}
	name := p.advance()
	fn.At, fn.Name = name.Pos(), name.Lexeme
	if prev, dup := p.funcs[fn.Name]; dup {
		return nil, semErr(Redeclaration, fn.At, "function %q already defined at %s", fn.Name, prev)
	}
	p.funcs[fn.Name] = fn.At
	p.consts.bind(fn.Name, &constValue{})

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	p.consts.push()
	defer p.consts.pop()
	if p.peek().Type != RPAREN {
		for {
			prm, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, prm)
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	// Parameters and the outermost body block share one scope.
	body, err := p.parseBlock(false)
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

// isFuncHead reports whether the upcoming tokens start a function definition.
func (p *Parser) isFuncHead() bool {
	switch p.peek().Type {
	case INT, FLOAT, VOID:
		return p.peekAt(1).Type == IDENTIFIER && p.peekAt(2).Type == LPAREN
	}
	return false
}

func (p *Parser) parseBlock(newScope bool) (*Block, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	if newScope {
		p.consts.push()
		defer p.consts.pop()
	}
	b := &Block{At: open.Pos()}
	for {
		tok := p.peek()
		switch tok.Type {
		case RBRACE:
			p.advance()
			return b, nil
		case EOF:
			return nil, p.syntaxError(tok, "'}'")
		}
		items, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, items...)
	}
}

func (p *Parser) parseBlockItem() ([]Stmt, error) {
	if p.isFuncHead() {
		name := p.peekAt(1)
		return nil, semErr(Redeclaration, name.Pos(), "function %q defined inside a block", name.Lexeme)
	}
	switch p.peek().Type {
	case CONST, INT, FLOAT:
		return p.parseDecl(false)
	}
	s, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return []Stmt{s}, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case LBRACE:
		return p.parseBlock(true)
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case BREAK, CONTINUE:
		p.advance()
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		if tok.Type == BREAK {
			return &BreakStmt{At: tok.Pos()}, nil
		}
		return &ContinueStmt{At: tok.Pos()}, nil
	case RETURN:
		return p.parseReturn()
	case SEMICOLON:
		p.advance()
		return &ExprStmt{At: tok.Pos()}, nil
	case VOID, EOF, RBRACE, ELSE:
		return nil, p.syntaxError(tok, "statement")
	}

	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == ASSIGN {
		switch e.(type) {
		case *VarRef, *IndexExpr:
		default:
			return nil, p.syntaxError(p.peek(), "';'")
		}
		p.advance()
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &AssignStmt{At: e.Pos(), Target: e, Value: v}, nil
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ExprStmt{At: e.Pos(), X: e}, nil
}

// parseParenCond parses "(" expression ")".
func (p *Parser) parseParenCond() (Expr, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	tok := p.advance()
	cond, err := p.parseParenCond()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	s := &IfStmt{At: tok.Pos(), Cond: cond, Then: then}
	if p.peek().Type == ELSE {
		p.advance()
		if s.Else, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	tok := p.advance()
	cond, err := p.parseParenCond()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{At: tok.Pos(), Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	tok := p.advance()
	r := &ReturnStmt{At: tok.Pos()}
	if p.peek().Type != SEMICOLON {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		r.Value = v
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *Parser) parseTopLevel() ([]Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case INT, FLOAT, VOID, CONST:
		if p.isFuncHead() {
			fn, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			return []Stmt{fn}, nil
		}
		if tok.Type == VOID {
			next := p.peekAt(1)
			if next.Type != IDENTIFIER {
				return nil, p.syntaxError(next, "identifier")
			}
			return nil, p.syntaxError(p.peekAt(2), "'('")
		}
		return p.parseDecl(true)
	}
	return nil, p.syntaxError(tok, "'const'", "'int'", "'float'", "'void'")
}

// Parse converts the token slice into a Program. Only declarations and
// function definitions may appear at the top level.
func Parse(tokens []Token) (*Program, error) {
	p := NewParser(tokens)
	prog := &Program{}
	for p.peek().Type != EOF {
		items, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, items...)
	}
	return prog, nil
}
