package semantic

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/lexer"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/parser"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
)

func analyze(t *testing.T, src string) (*ast.Node, *symbols.Table, []error) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.SetAllWarnings(false)
	tokens := lexer.NewLexer([]rune(src), 0, cfg).Tokenize()
	root := parser.NewParser(tokens, cfg).Parse()
	syms, errs := NewAnalyzer(cfg).Analyze(root)
	return root, syms, errs
}

func analyzeOK(t *testing.T, src string) (*ast.Node, *symbols.Table) {
	t.Helper()
	root, syms, errs := analyze(t, src)
	for _, err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	return root, syms
}

func hasError(errs []error, fragment string) bool {
	for _, err := range errs {
		if strings.Contains(err.Error(), fragment) {
			return true
		}
	}
	return false
}

func TestGlobalOffsetsInDeclarationOrder(t *testing.T) {
	_, syms := analyzeOK(t, `
program demo;
var x, y: integer;
var a: array[1..5] of integer;
var z: real;
begin
end.`)

	wantOffsets := map[string]int{"x": 0, "y": 1, "a": 2, "z": 3}
	for name, want := range wantOffsets {
		entry, global, found := syms.Lookup(name)
		be.True(t, found)
		be.True(t, global)
		be.Equal(t, entry.Offset, want)
	}
}

func TestVariableAnnotations(t *testing.T) {
	root, _ := analyzeOK(t, `
program demo;
var x: integer;
begin
    x := 1
end.`)
	assign := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.AssignNode)
	be.Equal(t, assign.Target.Typ, symbols.Integer)
	be.Equal(t, assign.Target.Scope, symbols.Global)
	be.Equal(t, assign.Target.Offset, 0)
	be.Equal(t, assign.Target.Kind, symbols.Variable)
}

func TestParameterOffsets(t *testing.T) {
	root, _ := analyzeOK(t, `
program demo;
procedure p(a, b: integer; c: real);
begin
    a := 1;
    c := 2.0
end;
begin
end.`)
	sub := root.Data.(ast.ProgramNode).Subprograms[0].Data.(ast.SubprogramDeclNode)
	stmts := sub.Body.Data.(ast.CompoundNode).Stmts

	first := stmts[0].Data.(ast.AssignNode).Target
	be.Equal(t, first.Kind, symbols.Parameter)
	be.Equal(t, first.Offset, 0)

	third := stmts[1].Data.(ast.AssignNode).Target
	be.Equal(t, third.Kind, symbols.Parameter)
	be.Equal(t, third.Offset, 2)
}

func TestSubprogramMangling(t *testing.T) {
	root, syms := analyzeOK(t, `
program demo;
var x: integer;
var r: real;

function pick(a: integer): integer;
begin
    return a
end;

function pick(a: real): real;
begin
    return a
end;

begin
    x := pick(1);
    r := pick(1.5)
end.`)

	_, _, found := syms.Lookup("f_pick_i")
	be.True(t, found)
	_, _, found = syms.Lookup("f_pick_r")
	be.True(t, found)

	stmts := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts
	intCall := stmts[0].Data.(ast.AssignNode).Value
	be.Equal(t, intCall.Entry.MangledName, "f_pick_i")
	be.Equal(t, intCall.Typ, symbols.Integer)
	realCall := stmts[1].Data.(ast.AssignNode).Value
	be.Equal(t, realCall.Entry.MangledName, "f_pick_r")
	be.Equal(t, realCall.Typ, symbols.Real)
}

func TestZeroArgFunctionReference(t *testing.T) {
	root, _ := analyzeOK(t, `
program demo;
var x: integer;

function five: integer;
begin
    return 5
end;

begin
    x := five
end.`)
	value := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.AssignNode).Value
	be.Equal(t, value.Type, ast.IdExpr)
	be.Equal(t, value.Kind, symbols.Function)
	be.Equal(t, value.Typ, symbols.Integer)
}

func TestIndexedVariableType(t *testing.T) {
	root, _ := analyzeOK(t, `
program demo;
var a: array[1..3] of real;
begin
    a[1] := 2.5
end.`)
	target := root.Data.(ast.ProgramNode).Body.Data.(ast.CompoundNode).Stmts[0].Data.(ast.AssignNode).Target
	be.Equal(t, target.Typ, symbols.Real)
	be.Equal(t, target.Entry.ArrayDetails.LowBound, 1)
}

func TestUndeclaredIdentifier(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
begin
    x := 1
end.`)
	be.True(t, hasError(errs, "Undeclared identifier 'x'"))
}

func TestTypeMismatch(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var x: integer;
begin
    x := 1.5
end.`)
	be.True(t, hasError(errs, "Cannot assign real to integer"))
}

func TestIntegerWidensToReal(t *testing.T) {
	analyzeOK(t, `
program demo;
var r: real;
begin
    r := 3
end.`)
}

func TestConditionMustBeBoolean(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var x: integer;
begin
    if x + 1 then
        x := 2
end.`)
	be.True(t, hasError(errs, "must be boolean"))
}

func TestDivNeedsIntegers(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var x: integer;
begin
    x := 1.5 div 2
end.`)
	be.True(t, hasError(errs, "'div' needs integer operands"))
}

func TestReturnOutsideSubprogram(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
begin
    return 1
end.`)
	be.True(t, hasError(errs, "only allowed inside a subprogram"))
}

func TestBareReturnInProcedure(t *testing.T) {
	analyzeOK(t, `
program demo;
procedure p;
begin
    return
end;
begin
    p
end.`)
}

func TestProcedureCannotReturnValue(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
procedure p;
begin
    return 1
end;
begin
    p
end.`)
	be.True(t, hasError(errs, "procedure cannot return a value"))
}

func TestFunctionMustReturnValue(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var x: integer;

function f: integer;
begin
    return
end;

begin
    x := f
end.`)
	be.True(t, hasError(errs, "function must return a value"))
}

func TestNoMatchingOverload(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var x: integer;

function f(a: integer): integer;
begin
    return a
end;

begin
    x := f(1.5)
end.`)
	be.True(t, hasError(errs, "No function 'f' matches"))
}

func TestDuplicateDeclaration(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var x: integer;
var x: real;
begin
end.`)
	be.True(t, hasError(errs, "already declared"))
}

func TestArrayMustBeIndexed(t *testing.T) {
	_, _, errs := analyze(t, `
program demo;
var a: array[1..3] of integer;
var x: integer;
begin
    x := a
end.`)
	be.True(t, hasError(errs, "must be indexed"))
}
