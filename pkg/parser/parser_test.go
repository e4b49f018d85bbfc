package parser

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/lexer"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
)

func parse(t *testing.T, src string) *ast.Node {
	t.Helper()
	cfg := config.NewConfig()
	tokens := lexer.NewLexer([]rune(src), 0, cfg).Tokenize()
	return NewParser(tokens, cfg).Parse()
}

func TestProgramShape(t *testing.T) {
	root := parse(t, `
program demo;
var x, y: integer;
var r: real;

procedure p;
begin
end;

begin
    x := 1
end.`)

	prog := root.Data.(ast.ProgramNode)
	be.Equal(t, prog.Name.Name, "demo")
	be.Equal(t, len(prog.Decls), 2)
	be.Equal(t, len(prog.Subprograms), 1)

	first := prog.Decls[0].Data.(ast.VarDeclNode)
	be.Equal(t, len(first.Names), 2)
	be.Equal(t, first.Names[0].Name, "x")

	body := prog.Body.Data.(ast.CompoundNode)
	be.Equal(t, len(body.Stmts), 1)
	be.Equal(t, body.Stmts[0].Type, ast.Assign)
}

func TestArrayTypeWithNegativeBounds(t *testing.T) {
	root := parse(t, `
program demo;
var a: array[-3..3] of real;
begin
end.`)
	prog := root.Data.(ast.ProgramNode)
	at := prog.Decls[0].Data.(ast.VarDeclNode).DeclType.Data.(ast.ArrayTypeNode)
	be.Equal(t, at.Low, -3)
	be.Equal(t, at.High, 3)
	be.Equal(t, at.Elem.Data.(ast.StandardTypeNode).Category, symbols.Real)
}

func TestFunctionHead(t *testing.T) {
	root := parse(t, `
program demo;
function f(a, b: integer; c: real): boolean;
begin
    return true
end;
begin
end.`)
	prog := root.Data.(ast.ProgramNode)
	head := prog.Subprograms[0].Data.(ast.SubprogramDeclNode).Head
	kind, name, params := ast.HeadInfo(head)
	be.Equal(t, kind, symbols.Function)
	be.Equal(t, name.Name, "f")
	be.Equal(t, params, []symbols.TypeCategory{symbols.Integer, symbols.Integer, symbols.Real})
}

// Operator precedence: * binds tighter than +, which binds tighter
// than relational operators.
func TestExpressionPrecedence(t *testing.T) {
	root := parse(t, `
program demo;
var b: boolean;
begin
    b := 1 + 2 * 3 < 10
end.`)
	prog := root.Data.(ast.ProgramNode)
	assign := prog.Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.AssignNode)

	rel := assign.Value.Data.(ast.BinaryOpNode)
	be.Equal(t, rel.Op, token.Lt)
	sum := rel.Left.Data.(ast.BinaryOpNode)
	be.Equal(t, sum.Op, token.Plus)
	product := sum.Right.Data.(ast.BinaryOpNode)
	be.Equal(t, product.Op, token.Star)
}

func TestStatementDisambiguation(t *testing.T) {
	root := parse(t, `
program demo;
var a: array[1..3] of integer;
var x: integer;
begin
    x := 1;
    a[2] := x;
    run;
    run(x)
end.`)
	stmts := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts
	be.Equal(t, len(stmts), 4)
	be.Equal(t, stmts[0].Type, ast.Assign)
	be.Equal(t, stmts[1].Type, ast.Assign)
	be.Equal(t, stmts[2].Type, ast.ProcCall)
	be.Equal(t, stmts[3].Type, ast.ProcCall)

	indexed := stmts[1].Data.(ast.AssignNode).Target.Data.(ast.VariableNode)
	be.True(t, indexed.Index != nil)

	bare := stmts[2].Data.(ast.ProcCallNode)
	be.Equal(t, len(bare.Args), 0)
}

func TestIfElseAssociation(t *testing.T) {
	root := parse(t, `
program demo;
var x: integer;
begin
    if true then
        if false then
            x := 1
        else
            x := 2
end.`)
	outer := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.IfNode)
	// The else binds to the nearest if.
	be.True(t, outer.Else == nil)
	inner := outer.Then.Data.(ast.IfNode)
	be.True(t, inner.Else != nil)
}

// `return` may stand alone; the expression only follows when the next
// token can start one.
func TestBareReturn(t *testing.T) {
	root := parse(t, `
program demo;
var x: integer;

procedure p;
begin
    return;
    x := 1
end;

procedure q;
begin
    if true then
        return
    else
        x := 2
end;

begin
end.`)
	subs := root.Data.(ast.ProgramNode).Subprograms

	pBody := subs[0].Data.(ast.SubprogramDeclNode).Body.Data.(ast.CompoundNode)
	be.Equal(t, len(pBody.Stmts), 2)
	ret := pBody.Stmts[0].Data.(ast.ReturnNode)
	be.True(t, ret.Value == nil)

	qBody := subs[1].Data.(ast.SubprogramDeclNode).Body.Data.(ast.CompoundNode)
	branch := qBody.Stmts[0].Data.(ast.IfNode)
	be.True(t, branch.Then.Data.(ast.ReturnNode).Value == nil)
	be.True(t, branch.Else != nil)
}

func TestReturnWithValue(t *testing.T) {
	root := parse(t, `
program demo;
function f: integer;
begin
    return 1 + 2
end;
begin
end.`)
	body := root.Data.(ast.ProgramNode).Subprograms[0].Data.(ast.SubprogramDeclNode).Body
	ret := body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.ReturnNode)
	be.True(t, ret.Value != nil)
	be.Equal(t, ret.Value.Data.(ast.BinaryOpNode).Op, token.Plus)
}

func TestUnaryMinus(t *testing.T) {
	root := parse(t, `
program demo;
var x: integer;
begin
    x := -x + 1
end.`)
	assign := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.AssignNode)
	sum := assign.Value.Data.(ast.BinaryOpNode)
	be.Equal(t, sum.Op, token.Plus)
	neg := sum.Left.Data.(ast.UnaryOpNode)
	be.Equal(t, neg.Op, token.Minus)
}

func TestFuncCallVersusIndexing(t *testing.T) {
	root := parse(t, `
program demo;
var x: integer;
var a: array[1..3] of integer;
begin
    x := f(1) + a[2] + y
end.`)
	assign := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.AssignNode)
	outer := assign.Value.Data.(ast.BinaryOpNode)
	be.Equal(t, outer.Right.Type, ast.IdExpr)
	inner := outer.Left.Data.(ast.BinaryOpNode)
	be.Equal(t, inner.Left.Type, ast.FuncCall)
	be.Equal(t, inner.Right.Type, ast.Variable)
}
