// Package semantic resolves names, assigns frame offsets, and checks
// the type rules of the language. It builds the scope tree that the
// code generator later replays, and it annotates identifier and
// expression nodes in place with their resolved type, scope, and
// offset.
package semantic

import (
	"fmt"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/util"
)

type Analyzer struct {
	syms       *symbols.Table
	cfg        *config.Config
	errors     []error
	currentSub *symbols.Entry
	nextOffset int
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{syms: symbols.NewTable(), cfg: cfg}
}

// Analyze walks the whole program. The returned table holds the
// recorded scope tree; it is only meaningful when the error list is
// empty.
func (a *Analyzer) Analyze(root *ast.Node) (*symbols.Table, []error) {
	prog := root.Data.(ast.ProgramNode)

	for _, decl := range prog.Decls {
		a.declareVariables(decl, symbols.Global)
	}

	// Heads first, so subprogram bodies can call forward and recurse.
	for _, sub := range prog.Subprograms {
		a.declareSubprogramHead(sub)
	}
	for _, sub := range prog.Subprograms {
		a.analyzeSubprogram(sub)
	}

	a.statement(prog.Body)
	return a.syms, a.errors
}

func (a *Analyzer) errorf(tok token.Token, format string, args ...interface{}) {
	pos := fmt.Sprintf("%d:%d: ", tok.Line, tok.Column)
	a.errors = append(a.errors, fmt.Errorf(pos+format, args...))
}

// declareVariables adds every identifier of one `var` group to the
// current scope. Offsets follow declaration order, arrays included.
func (a *Analyzer) declareVariables(decl *ast.Node, scope symbols.ScopeKind) {
	d := decl.Data.(ast.VarDeclNode)
	cat, ad := ast.TypeCategoryOf(d.DeclType)
	for _, name := range d.Names {
		if _, exists := a.syms.LookupCurrent(name.Name); exists {
			a.errorf(name.Tok, "'%s' is already declared in this scope.", name.Name)
			continue
		}
		if _, outer, found := a.syms.Lookup(name.Name); found && (outer || scope == symbols.Local) {
			util.Warn(a.cfg, config.WarnShadow, name.Tok, "declaration of '%s' shadows an outer symbol", name.Name)
		}
		a.syms.AddSymbol(&symbols.Entry{
			Name: name.Name, Kind: symbols.Variable, Type: cat,
			Offset: a.nextOffset, ArrayDetails: ad,
			Line: name.Tok.Line, Column: name.Tok.Column,
		})
		a.nextOffset++
	}
}

func (a *Analyzer) declareSubprogramHead(sub *ast.Node) {
	head := sub.Data.(ast.SubprogramDeclNode).Head
	kind, name, params := ast.HeadInfo(head)
	mangled := symbols.MangledName(kind, name.Name, params)

	if _, exists := a.syms.LookupCurrent(mangled); exists {
		a.errorf(name.Tok, "'%s' is already declared with this signature.", name.Name)
		return
	}

	entry := &symbols.Entry{
		Name: mangled, Kind: kind, MangledName: mangled,
		NumParameters: len(params),
		Line:          name.Tok.Line, Column: name.Tok.Column,
	}
	if d, ok := head.Data.(ast.FuncHeadNode); ok {
		entry.ReturnType, _ = ast.TypeCategoryOf(d.ReturnType)
		entry.Type = entry.ReturnType
	}
	a.syms.AddSymbol(entry)
	head.Entry = entry
}

func (a *Analyzer) analyzeSubprogram(sub *ast.Node) {
	d := sub.Data.(ast.SubprogramDeclNode)
	prevSub, prevOffset := a.currentSub, a.nextOffset
	a.currentSub = d.Head.Entry
	a.nextOffset = 0

	a.syms.EnterScope()
	a.declareParameters(d.Head)
	for _, decl := range d.Locals {
		a.declareVariables(decl, symbols.Local)
	}
	a.statement(d.Body)
	a.syms.ExitScope()

	a.currentSub, a.nextOffset = prevSub, prevOffset
}

func (a *Analyzer) declareParameters(head *ast.Node) {
	var groups []*ast.Node
	switch d := head.Data.(type) {
	case ast.FuncHeadNode:
		groups = d.Params
	case ast.ProcHeadNode:
		groups = d.Params
	}
	offset := 0
	for _, group := range groups {
		g := group.Data.(ast.ParamGroupNode)
		cat, ad := ast.TypeCategoryOf(g.DeclType)
		for _, name := range g.Names {
			if _, exists := a.syms.LookupCurrent(name.Name); exists {
				a.errorf(name.Tok, "Duplicate parameter '%s'.", name.Name)
			}
			a.syms.AddSymbol(&symbols.Entry{
				Name: name.Name, Kind: symbols.Parameter, Type: cat,
				Offset: offset, ArrayDetails: ad,
				Line: name.Tok.Line, Column: name.Tok.Column,
			})
			offset++
		}
	}
}

func (a *Analyzer) statement(stmt *ast.Node) {
	if stmt == nil {
		return
	}
	switch d := stmt.Data.(type) {
	case ast.CompoundNode:
		a.compound(d)
	case ast.AssignNode:
		a.assign(stmt, d)
	case ast.IfNode:
		cond := a.expression(d.Cond)
		if cond != symbols.Boolean && cond != symbols.Unknown {
			a.errorf(d.Cond.Tok, "Condition of 'if' must be boolean, got %s.", cond)
		}
		a.statement(d.Then)
		a.statement(d.Else)
	case ast.WhileNode:
		cond := a.expression(d.Cond)
		if cond != symbols.Boolean && cond != symbols.Unknown {
			a.errorf(d.Cond.Tok, "Condition of 'while' must be boolean, got %s.", cond)
		}
		a.statement(d.Body)
	case ast.ProcCallNode:
		a.procCall(stmt, d)
	case ast.ReturnNode:
		a.returnStatement(stmt, d)
	}
}

func (a *Analyzer) compound(d ast.CompoundNode) {
	returned := false
	for _, stmt := range d.Stmts {
		if returned {
			util.Warn(a.cfg, config.WarnUnreachableCode, stmt.Tok, "statement is unreachable after 'return'")
			returned = false
		}
		a.statement(stmt)
		if stmt.Type == ast.Return {
			returned = true
		}
	}
}

func (a *Analyzer) assign(stmt *ast.Node, d ast.AssignNode) {
	targetType := a.variableRef(d.Target)
	valueType := a.expression(d.Value)
	if !assignable(targetType, valueType) {
		a.errorf(stmt.Tok, "Cannot assign %s to %s.", valueType, targetType)
	}
}

func (a *Analyzer) returnStatement(stmt *ast.Node, d ast.ReturnNode) {
	if a.currentSub == nil {
		a.errorf(stmt.Tok, "'return' is only allowed inside a subprogram body.")
		a.expression(d.Value)
		return
	}
	if a.currentSub.Kind == symbols.Procedure {
		if d.Value != nil {
			a.errorf(stmt.Tok, "A procedure cannot return a value.")
			a.expression(d.Value)
		}
		stmt.Entry = a.currentSub
		return
	}
	if d.Value == nil {
		a.errorf(stmt.Tok, "A function must return a value.")
		return
	}
	valueType := a.expression(d.Value)
	if !assignable(a.currentSub.ReturnType, valueType) {
		a.errorf(stmt.Tok, "Cannot return %s from a function of type %s.", valueType, a.currentSub.ReturnType)
	}
	stmt.Entry = a.currentSub
}

// assignable reports whether a value of type src may be stored into a
// slot of type dst. Integers widen to reals; nothing else converts.
func assignable(dst, src symbols.TypeCategory) bool {
	if dst == symbols.Unknown || src == symbols.Unknown {
		return true
	}
	if dst == src {
		return true
	}
	return dst == symbols.Real && src == symbols.Integer
}

func isBuiltin(name string) bool {
	switch name {
	case "write", "writeln", "read", "readln":
		return true
	}
	return false
}

func (a *Analyzer) procCall(stmt *ast.Node, d ast.ProcCallNode) {
	if isBuiltin(d.Name.Name) {
		a.builtinCall(stmt, d)
		return
	}
	argTypes := make([]symbols.TypeCategory, len(d.Args))
	for i, arg := range d.Args {
		argTypes[i] = a.expression(arg)
	}
	mangled := symbols.MangledName(symbols.Procedure, d.Name.Name, argTypes)
	entry, _, found := a.syms.Lookup(mangled)
	if !found {
		a.errorf(stmt.Tok, "No procedure '%s' matches these argument types.", d.Name.Name)
		return
	}
	stmt.Entry = entry
}

func (a *Analyzer) builtinCall(stmt *ast.Node, d ast.ProcCallNode) {
	switch d.Name.Name {
	case "read", "readln":
		for _, arg := range d.Args {
			if arg.Type != ast.IdExpr && arg.Type != ast.Variable {
				a.errorf(arg.Tok, "Argument of '%s' must be a variable.", d.Name.Name)
				continue
			}
			a.expression(arg)
		}
		util.Warn(a.cfg, config.WarnStubIO, stmt.Tok, "'%s' is not implemented by the target machine and emits no code", d.Name.Name)
	default:
		for _, arg := range d.Args {
			a.expression(arg)
		}
	}
}

// expression type-checks an expression subtree and returns its type.
// Unknown is returned after an error so one mistake does not cascade.
func (a *Analyzer) expression(expr *ast.Node) symbols.TypeCategory {
	if expr == nil {
		return symbols.Unknown
	}
	switch d := expr.Data.(type) {
	case ast.IntLitNode, ast.RealLitNode, ast.BoolLitNode:
		return expr.Typ
	case ast.StrLitNode:
		return symbols.Unknown
	case ast.VariableNode:
		return a.variableRef(expr)
	case ast.IdExprNode:
		return a.idExpr(expr, d)
	case ast.UnaryOpNode:
		return a.unaryOp(expr, d)
	case ast.BinaryOpNode:
		return a.binaryOp(expr, d)
	case ast.FuncCallNode:
		return a.funcCall(expr, d)
	}
	return symbols.Unknown
}

// variableRef resolves a scalar or indexed variable reference and
// annotates the node. For indexed references the node's type is the
// element type of the array.
func (a *Analyzer) variableRef(node *ast.Node) symbols.TypeCategory {
	d := node.Data.(ast.VariableNode)
	entry, global, found := a.syms.Lookup(d.Name.Name)
	if !found {
		a.errorf(node.Tok, "Undeclared identifier '%s'.", d.Name.Name)
		return symbols.Unknown
	}
	a.annotate(node, entry, global)

	if d.Index != nil {
		if entry.Type != symbols.Array {
			a.errorf(node.Tok, "'%s' is not an array.", d.Name.Name)
			return symbols.Unknown
		}
		indexType := a.expression(d.Index)
		if indexType != symbols.Integer && indexType != symbols.Unknown {
			a.errorf(d.Index.Tok, "Array index must be integer, got %s.", indexType)
		}
		node.Typ = entry.ArrayDetails.ElementType
		return node.Typ
	}

	if entry.Type == symbols.Array {
		a.errorf(node.Tok, "Array '%s' must be indexed here.", d.Name.Name)
		return symbols.Unknown
	}
	node.Typ = entry.Type
	return entry.Type
}

// idExpr resolves a bare identifier in expression position. A plain
// variable or parameter wins; otherwise the name may be a call of a
// zero-argument function.
func (a *Analyzer) idExpr(node *ast.Node, d ast.IdExprNode) symbols.TypeCategory {
	if entry, global, found := a.syms.Lookup(d.Name.Name); found {
		if entry.Type == symbols.Array {
			a.errorf(node.Tok, "Array '%s' must be indexed here.", d.Name.Name)
			return symbols.Unknown
		}
		a.annotate(node, entry, global)
		node.Typ = entry.Type
		return entry.Type
	}
	mangled := symbols.MangledName(symbols.Function, d.Name.Name, nil)
	if entry, global, found := a.syms.Lookup(mangled); found {
		a.annotate(node, entry, global)
		node.Typ = entry.ReturnType
		return entry.ReturnType
	}
	a.errorf(node.Tok, "Undeclared identifier '%s'.", d.Name.Name)
	return symbols.Unknown
}

func (a *Analyzer) annotate(node *ast.Node, entry *symbols.Entry, global bool) {
	node.Entry = entry
	node.Kind = entry.Kind
	node.Offset = entry.Offset
	if global {
		node.Scope = symbols.Global
	} else {
		node.Scope = symbols.Local
	}
}

func (a *Analyzer) unaryOp(node *ast.Node, d ast.UnaryOpNode) symbols.TypeCategory {
	operand := a.expression(d.Expr)
	switch d.Op {
	case token.Minus:
		if operand != symbols.Integer && operand != symbols.Real && operand != symbols.Unknown {
			a.errorf(node.Tok, "Unary '-' needs a numeric operand, got %s.", operand)
			return symbols.Unknown
		}
	case token.Not:
		if operand != symbols.Boolean && operand != symbols.Unknown {
			a.errorf(node.Tok, "'not' needs a boolean operand, got %s.", operand)
			return symbols.Unknown
		}
	}
	node.Typ = operand
	return operand
}

func (a *Analyzer) binaryOp(node *ast.Node, d ast.BinaryOpNode) symbols.TypeCategory {
	left := a.expression(d.Left)
	right := a.expression(d.Right)
	if left == symbols.Unknown || right == symbols.Unknown {
		return symbols.Unknown
	}

	numeric := func() bool {
		if !isNumeric(left) || !isNumeric(right) {
			a.errorf(node.Tok, "Operator '%s' needs numeric operands, got %s and %s.",
				token.TypeStrings[d.Op], left, right)
			return false
		}
		return true
	}

	var result symbols.TypeCategory
	switch d.Op {
	case token.Plus, token.Minus, token.Star:
		if !numeric() {
			return symbols.Unknown
		}
		result = symbols.Integer
		if left == symbols.Real || right == symbols.Real {
			result = symbols.Real
		}
	case token.Slash:
		if !numeric() {
			return symbols.Unknown
		}
		// Pascal '/' always divides in real arithmetic.
		result = symbols.Real
	case token.Div:
		if left != symbols.Integer || right != symbols.Integer {
			a.errorf(node.Tok, "'div' needs integer operands, got %s and %s.", left, right)
			return symbols.Unknown
		}
		result = symbols.Integer
	case token.And, token.Or:
		if left != symbols.Boolean || right != symbols.Boolean {
			a.errorf(node.Tok, "'%s' needs boolean operands, got %s and %s.",
				token.TypeStrings[d.Op], left, right)
			return symbols.Unknown
		}
		result = symbols.Boolean
	case token.Eq, token.Neq, token.Lt, token.Lte, token.Gt, token.Gte:
		comparable := left == right || (isNumeric(left) && isNumeric(right))
		if !comparable {
			a.errorf(node.Tok, "Cannot compare %s with %s.", left, right)
			return symbols.Unknown
		}
		result = symbols.Boolean
	default:
		a.errorf(node.Tok, "Unknown operator '%s'.", token.TypeStrings[d.Op])
		return symbols.Unknown
	}
	node.Typ = result
	return result
}

func isNumeric(cat symbols.TypeCategory) bool {
	return cat == symbols.Integer || cat == symbols.Real
}

func (a *Analyzer) funcCall(node *ast.Node, d ast.FuncCallNode) symbols.TypeCategory {
	argTypes := make([]symbols.TypeCategory, len(d.Args))
	for i, arg := range d.Args {
		argTypes[i] = a.expression(arg)
	}
	mangled := symbols.MangledName(symbols.Function, d.Name.Name, argTypes)
	entry, _, found := a.syms.Lookup(mangled)
	if !found {
		a.errorf(node.Tok, "No function '%s' matches these argument types.", d.Name.Name)
		return symbols.Unknown
	}
	node.Entry = entry
	node.Typ = entry.ReturnType
	return entry.ReturnType
}
