// Package ast defines the types used to represent the Abstract Syntax Tree.
package ast

import (
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
)

// NodeType defines the kind of a node in the AST.
type NodeType int

const (
	// Expressions
	IntLit NodeType = iota
	RealLit
	BoolLit
	StrLit
	Variable
	IdExpr
	UnaryOp
	BinaryOp
	FuncCall

	// Statements
	Compound
	Assign
	If
	While
	ProcCall
	Return

	// Declarations and program structure
	Program
	VarDecl
	SubprogramDecl
	FuncHead
	ProcHead
	ParamGroup

	// Type denoters
	StandardType
	ArrayType
)

// Ident is a bare identifier occurrence with its source position.
type Ident struct {
	Name string
	Tok  token.Token
}

// Node represents a node in the Abstract Syntax Tree. The annotation
// fields below Data are filled in by the semantic pass and read by the
// code generator.
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}

	// Typ is the resolved type category of an expression node.
	Typ symbols.TypeCategory
	// Scope and Offset locate a variable reference's storage slot.
	Scope  symbols.ScopeKind
	Offset int
	// Kind is the resolved symbol kind of an IdExpr reference.
	Kind symbols.Kind
	// Entry is the resolved callee of a call node.
	Entry *symbols.Entry
}

// --- Node Data Structs ---

type ProgramNode struct {
	Name        Ident
	Decls       []*Node // VarDecl groups
	Subprograms []*Node // SubprogramDecl
	Body        *Node   // Compound
}
type VarDeclNode struct {
	Names    []Ident
	DeclType *Node
}
type SubprogramDeclNode struct {
	Head   *Node // FuncHead or ProcHead
	Locals []*Node
	Body   *Node
}
type FuncHeadNode struct {
	Name       Ident
	Params     []*Node // ParamGroup
	ReturnType *Node   // StandardType
}
type ProcHeadNode struct {
	Name   Ident
	Params []*Node
}
type ParamGroupNode struct {
	Names    []Ident
	DeclType *Node
}
type StandardTypeNode struct{ Category symbols.TypeCategory }
type ArrayTypeNode struct {
	Low, High int
	Elem      *Node // StandardType
}

type CompoundNode struct{ Stmts []*Node }
type AssignNode struct {
	Target *Node // Variable
	Value  *Node
}
type IfNode struct{ Cond, Then, Else *Node }
type WhileNode struct{ Cond, Body *Node }
type ProcCallNode struct {
	Name Ident
	Args []*Node
}
type ReturnNode struct{ Value *Node }

type IntLitNode struct{ Value int }
type RealLitNode struct{ Value float64 }
type BoolLitNode struct{ Value bool }
type StrLitNode struct{ Value string }
type VariableNode struct {
	Name  Ident
	Index *Node // nil for scalar references
}
type IdExprNode struct{ Name Ident }
type UnaryOpNode struct {
	Op   token.Type
	Expr *Node
}
type BinaryOpNode struct {
	Op          token.Type
	Left, Right *Node
}
type FuncCallNode struct {
	Name Ident
	Args []*Node
}

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}) *Node {
	return &Node{Type: nodeType, Tok: tok, Data: data}
}

func NewProgram(tok token.Token, name Ident, decls, subprograms []*Node, body *Node) *Node {
	return newNode(tok, Program, ProgramNode{Name: name, Decls: decls, Subprograms: subprograms, Body: body})
}
func NewVarDecl(tok token.Token, names []Ident, declType *Node) *Node {
	return newNode(tok, VarDecl, VarDeclNode{Names: names, DeclType: declType})
}
func NewSubprogramDecl(tok token.Token, head *Node, locals []*Node, body *Node) *Node {
	return newNode(tok, SubprogramDecl, SubprogramDeclNode{Head: head, Locals: locals, Body: body})
}
func NewFuncHead(tok token.Token, name Ident, params []*Node, returnType *Node) *Node {
	return newNode(tok, FuncHead, FuncHeadNode{Name: name, Params: params, ReturnType: returnType})
}
func NewProcHead(tok token.Token, name Ident, params []*Node) *Node {
	return newNode(tok, ProcHead, ProcHeadNode{Name: name, Params: params})
}
func NewParamGroup(tok token.Token, names []Ident, declType *Node) *Node {
	return newNode(tok, ParamGroup, ParamGroupNode{Names: names, DeclType: declType})
}
func NewStandardType(tok token.Token, category symbols.TypeCategory) *Node {
	return newNode(tok, StandardType, StandardTypeNode{Category: category})
}
func NewArrayType(tok token.Token, low, high int, elem *Node) *Node {
	return newNode(tok, ArrayType, ArrayTypeNode{Low: low, High: high, Elem: elem})
}
func NewCompound(tok token.Token, stmts []*Node) *Node {
	return newNode(tok, Compound, CompoundNode{Stmts: stmts})
}
func NewAssign(tok token.Token, target, value *Node) *Node {
	return newNode(tok, Assign, AssignNode{Target: target, Value: value})
}
func NewIf(tok token.Token, cond, then, els *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, Then: then, Else: els})
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body})
}
func NewProcCall(tok token.Token, name Ident, args []*Node) *Node {
	return newNode(tok, ProcCall, ProcCallNode{Name: name, Args: args})
}
func NewReturn(tok token.Token, value *Node) *Node {
	return newNode(tok, Return, ReturnNode{Value: value})
}
func NewIntLit(tok token.Token, value int) *Node {
	n := newNode(tok, IntLit, IntLitNode{Value: value})
	n.Typ = symbols.Integer
	return n
}
func NewRealLit(tok token.Token, value float64) *Node {
	n := newNode(tok, RealLit, RealLitNode{Value: value})
	n.Typ = symbols.Real
	return n
}
func NewBoolLit(tok token.Token, value bool) *Node {
	n := newNode(tok, BoolLit, BoolLitNode{Value: value})
	n.Typ = symbols.Boolean
	return n
}
func NewStrLit(tok token.Token, value string) *Node {
	return newNode(tok, StrLit, StrLitNode{Value: value})
}
func NewVariable(tok token.Token, name Ident, index *Node) *Node {
	return newNode(tok, Variable, VariableNode{Name: name, Index: index})
}
func NewIdExpr(tok token.Token, name Ident) *Node {
	return newNode(tok, IdExpr, IdExprNode{Name: name})
}
func NewUnaryOp(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(tok, UnaryOp, UnaryOpNode{Op: op, Expr: expr})
}
func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right})
}
func NewFuncCall(tok token.Token, name Ident, args []*Node) *Node {
	return newNode(tok, FuncCall, FuncCallNode{Name: name, Args: args})
}

// TypeCategoryOf converts a type denoter node into the symbol table's
// type category, together with array details when the denoter is an
// array type.
func TypeCategoryOf(typeNode *Node) (symbols.TypeCategory, symbols.ArrayDetails) {
	var ad symbols.ArrayDetails
	if typeNode == nil {
		return symbols.Unknown, ad
	}
	switch d := typeNode.Data.(type) {
	case StandardTypeNode:
		return d.Category, ad
	case ArrayTypeNode:
		if d.Elem != nil {
			ad.ElementType = d.Elem.Data.(StandardTypeNode).Category
		}
		ad.LowBound = d.Low
		ad.HighBound = d.High
		ad.Initialized = true
		return symbols.Array, ad
	}
	return symbols.Unknown, ad
}

// HeadInfo extracts the pieces of a subprogram head needed to build its
// mangled key: kind, name, and the declared parameter type list in
// declaration order (one element per parameter identifier).
func HeadInfo(head *Node) (kind symbols.Kind, name Ident, params []symbols.TypeCategory) {
	switch d := head.Data.(type) {
	case FuncHeadNode:
		kind, name = symbols.Function, d.Name
		params = paramTypes(d.Params)
	case ProcHeadNode:
		kind, name = symbols.Procedure, d.Name
		params = paramTypes(d.Params)
	}
	return kind, name, params
}

func paramTypes(groups []*Node) []symbols.TypeCategory {
	var types []symbols.TypeCategory
	for _, group := range groups {
		d := group.Data.(ParamGroupNode)
		cat, _ := TypeCategoryOf(d.DeclType)
		for range d.Names {
			types = append(types, cat)
		}
	}
	return types
}
