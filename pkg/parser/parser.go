package parser

import (
	"strconv"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/util"
)

type Parser struct {
	tokens []token.Token
	pos    int
	cfg    *config.Config
}

func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	return &Parser{tokens: tokens, cfg: cfg}
}

// Parse builds the AST for a whole program:
//
//	program <id> ; <declarations> <subprograms> <compound> .
func (p *Parser) Parse() *ast.Node {
	progTok := p.expect(token.Program)
	name := p.ident()
	p.expect(token.Semi)

	decls := p.declarations()
	subprograms := p.subprogramDeclarations()
	body := p.compoundStatement()
	p.expect(token.Dot)
	p.expect(token.EOF)

	return ast.NewProgram(progTok, name, decls, subprograms, body)
}

func (p *Parser) peek() token.Token     { return p.tokens[p.pos] }
func (p *Parser) previous() token.Token { return p.tokens[p.pos-1] }

func (p *Parser) check(typ token.Type) bool { return p.peek().Type == typ }

func (p *Parser) checkNext(typ token.Type) bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.pos+1].Type == typ
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if tok.Type != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) match(typ token.Type) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(typ token.Type) token.Token {
	if p.check(typ) {
		return p.advance()
	}
	util.Error(p.peek(), "Expected '%s', got '%s'.", describe(typ), describe(p.peek().Type))
	return p.peek()
}

func describe(typ token.Type) string {
	switch typ {
	case token.EOF:
		return "end of file"
	case token.Ident:
		return "identifier"
	case token.IntLit:
		return "integer literal"
	case token.RealLit:
		return "real literal"
	case token.StringLit:
		return "string literal"
	}
	return token.TypeStrings[typ]
}

func (p *Parser) ident() ast.Ident {
	tok := p.expect(token.Ident)
	return ast.Ident{Name: tok.Value, Tok: tok}
}

// declarations → (`var` (identifier_list `:` type `;`)+)*
func (p *Parser) declarations() []*ast.Node {
	var decls []*ast.Node
	for p.match(token.Var) {
		varTok := p.previous()
		for p.check(token.Ident) {
			names := p.identifierList()
			p.expect(token.Colon)
			declType := p.typeSpec()
			p.expect(token.Semi)
			decls = append(decls, ast.NewVarDecl(varTok, names, declType))
		}
	}
	return decls
}

func (p *Parser) identifierList() []ast.Ident {
	names := []ast.Ident{p.ident()}
	for p.match(token.Comma) {
		names = append(names, p.ident())
	}
	return names
}

func (p *Parser) typeSpec() *ast.Node {
	if p.check(token.Array) {
		arrTok := p.advance()
		p.expect(token.LBracket)
		low := p.arrayBound()
		p.expect(token.DotDot)
		high := p.arrayBound()
		p.expect(token.RBracket)
		p.expect(token.Of)
		elem := p.standardType()
		return ast.NewArrayType(arrTok, low, high, elem)
	}
	return p.standardType()
}

func (p *Parser) arrayBound() int {
	neg := p.match(token.Minus)
	tok := p.expect(token.IntLit)
	value, _ := strconv.Atoi(tok.Value)
	if neg {
		value = -value
	}
	return value
}

func (p *Parser) standardType() *ast.Node {
	tok := p.advance()
	switch tok.Type {
	case token.Integer:
		return ast.NewStandardType(tok, symbols.Integer)
	case token.Real:
		return ast.NewStandardType(tok, symbols.Real)
	case token.Boolean:
		return ast.NewStandardType(tok, symbols.Boolean)
	}
	util.Error(tok, "Expected a type name, got '%s'.", describe(tok.Type))
	return nil
}

func (p *Parser) subprogramDeclarations() []*ast.Node {
	var subprograms []*ast.Node
	for p.check(token.Function) || p.check(token.Procedure) {
		subprograms = append(subprograms, p.subprogramDeclaration())
	}
	return subprograms
}

func (p *Parser) subprogramDeclaration() *ast.Node {
	head := p.subprogramHead()
	locals := p.declarations()
	body := p.compoundStatement()
	p.expect(token.Semi)
	return ast.NewSubprogramDecl(head.Tok, head, locals, body)
}

func (p *Parser) subprogramHead() *ast.Node {
	if p.match(token.Function) {
		tok := p.previous()
		name := p.ident()
		params := p.parameterList()
		p.expect(token.Colon)
		returnType := p.standardType()
		p.expect(token.Semi)
		return ast.NewFuncHead(tok, name, params, returnType)
	}
	tok := p.expect(token.Procedure)
	name := p.ident()
	params := p.parameterList()
	p.expect(token.Semi)
	return ast.NewProcHead(tok, name, params)
}

// parameterList → [ `(` param_group (`;` param_group)* `)` ]
func (p *Parser) parameterList() []*ast.Node {
	var params []*ast.Node
	if !p.match(token.LParen) {
		return params
	}
	if !p.check(token.RParen) {
		params = append(params, p.parameterGroup())
		for p.match(token.Semi) {
			params = append(params, p.parameterGroup())
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parameterGroup() *ast.Node {
	names := p.identifierList()
	tok := p.expect(token.Colon)
	declType := p.typeSpec()
	return ast.NewParamGroup(tok, names, declType)
}

func (p *Parser) compoundStatement() *ast.Node {
	beginTok := p.expect(token.Begin)
	var stmts []*ast.Node
	if !p.check(token.End) {
		stmts = append(stmts, p.statement())
		for p.match(token.Semi) {
			if p.check(token.End) {
				break
			}
			stmts = append(stmts, p.statement())
		}
	}
	p.expect(token.End)
	return ast.NewCompound(beginTok, stmts)
}

func (p *Parser) statement() *ast.Node {
	switch p.peek().Type {
	case token.Begin:
		return p.compoundStatement()
	case token.If:
		return p.ifStatement()
	case token.While:
		return p.whileStatement()
	case token.Return:
		return p.returnStatement()
	case token.Ident:
		if p.checkNext(token.LParen) {
			return p.procCallStatement()
		}
		if p.checkNext(token.Assign) || p.checkNext(token.LBracket) {
			return p.assignStatement()
		}
		// A bare identifier in statement position is a call with no
		// arguments.
		return p.procCallStatement()
	}
	util.Error(p.peek(), "Expected a statement, got '%s'.", describe(p.peek().Type))
	return nil
}

func (p *Parser) ifStatement() *ast.Node {
	ifTok := p.expect(token.If)
	cond := p.expression()
	p.expect(token.Then)
	then := p.statement()
	var els *ast.Node
	if p.match(token.Else) {
		els = p.statement()
	}
	return ast.NewIf(ifTok, cond, then, els)
}

func (p *Parser) whileStatement() *ast.Node {
	whileTok := p.expect(token.While)
	cond := p.expression()
	p.expect(token.Do)
	body := p.statement()
	return ast.NewWhile(whileTok, cond, body)
}

// returnStatement → `return` [ expression ]
func (p *Parser) returnStatement() *ast.Node {
	retTok := p.expect(token.Return)
	var value *ast.Node
	switch p.peek().Type {
	case token.Semi, token.End, token.Else, token.Dot, token.EOF:
		// A bare return carries no value.
	default:
		value = p.expression()
	}
	return ast.NewReturn(retTok, value)
}

func (p *Parser) assignStatement() *ast.Node {
	target := p.variable()
	assignTok := p.expect(token.Assign)
	value := p.expression()
	return ast.NewAssign(assignTok, target, value)
}

func (p *Parser) procCallStatement() *ast.Node {
	name := p.ident()
	var args []*ast.Node
	if p.match(token.LParen) {
		args = p.expressionList()
		p.expect(token.RParen)
	}
	return ast.NewProcCall(name.Tok, name, args)
}

func (p *Parser) variable() *ast.Node {
	name := p.ident()
	var index *ast.Node
	if p.match(token.LBracket) {
		index = p.expression()
		p.expect(token.RBracket)
	}
	return ast.NewVariable(name.Tok, name, index)
}

func (p *Parser) expressionList() []*ast.Node {
	var args []*ast.Node
	if p.check(token.RParen) {
		return args
	}
	args = append(args, p.expression())
	for p.match(token.Comma) {
		args = append(args, p.expression())
	}
	return args
}

// expression → simple_expression [ relop simple_expression ]
func (p *Parser) expression() *ast.Node {
	left := p.simpleExpression()
	switch p.peek().Type {
	case token.Eq, token.Neq, token.Lt, token.Lte, token.Gt, token.Gte:
		opTok := p.advance()
		right := p.simpleExpression()
		return ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

// simple_expression → [ sign ] term ( (+ | - | or) term )*
func (p *Parser) simpleExpression() *ast.Node {
	var left *ast.Node
	if p.check(token.Minus) || p.check(token.Plus) {
		signTok := p.advance()
		operand := p.term()
		if signTok.Type == token.Minus {
			left = ast.NewUnaryOp(signTok, token.Minus, operand)
		} else {
			left = operand
		}
	} else {
		left = p.term()
	}
	for p.check(token.Plus) || p.check(token.Minus) || p.check(token.Or) {
		opTok := p.advance()
		right := p.term()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

// term → factor ( (* | / | div | and) factor )*
func (p *Parser) term() *ast.Node {
	left := p.factor()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Div) || p.check(token.And) {
		opTok := p.advance()
		right := p.factor()
		left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
	}
	return left
}

func (p *Parser) factor() *ast.Node {
	tok := p.peek()
	switch tok.Type {
	case token.IntLit:
		p.advance()
		value, _ := strconv.Atoi(tok.Value)
		return ast.NewIntLit(tok, value)
	case token.RealLit:
		p.advance()
		value, _ := strconv.ParseFloat(tok.Value, 64)
		return ast.NewRealLit(tok, value)
	case token.StringLit:
		p.advance()
		return ast.NewStrLit(tok, tok.Value)
	case token.True:
		p.advance()
		return ast.NewBoolLit(tok, true)
	case token.False:
		p.advance()
		return ast.NewBoolLit(tok, false)
	case token.Not:
		p.advance()
		return ast.NewUnaryOp(tok, token.Not, p.factor())
	case token.LParen:
		p.advance()
		expr := p.expression()
		p.expect(token.RParen)
		return expr
	case token.Ident:
		name := p.ident()
		if p.match(token.LParen) {
			args := p.expressionList()
			p.expect(token.RParen)
			return ast.NewFuncCall(name.Tok, name, args)
		}
		if p.match(token.LBracket) {
			index := p.expression()
			p.expect(token.RBracket)
			return ast.NewVariable(name.Tok, name, index)
		}
		return ast.NewIdExpr(name.Tok, name)
	}
	util.Error(tok, "Expected an expression, got '%s'.", describe(tok.Type))
	return nil
}
