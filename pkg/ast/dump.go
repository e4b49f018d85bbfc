package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
)

// Dump writes an indented representation of the tree for debugging.
func Dump(w io.Writer, node *Node) { dump(w, node, 0) }

func dump(w io.Writer, node *Node, depth int) {
	if node == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch d := node.Data.(type) {
	case ProgramNode:
		fmt.Fprintf(w, "%sprogram %s\n", indent, d.Name.Name)
		for _, decl := range d.Decls {
			dump(w, decl, depth+1)
		}
		for _, sub := range d.Subprograms {
			dump(w, sub, depth+1)
		}
		dump(w, d.Body, depth+1)
	case VarDeclNode:
		fmt.Fprintf(w, "%svar %s: %s\n", indent, identNames(d.Names), typeString(d.DeclType))
	case SubprogramDeclNode:
		dump(w, d.Head, depth)
		for _, decl := range d.Locals {
			dump(w, decl, depth+1)
		}
		dump(w, d.Body, depth+1)
	case FuncHeadNode:
		fmt.Fprintf(w, "%sfunction %s(%s): %s\n", indent, d.Name.Name, paramString(d.Params), typeString(d.ReturnType))
	case ProcHeadNode:
		fmt.Fprintf(w, "%sprocedure %s(%s)\n", indent, d.Name.Name, paramString(d.Params))
	case CompoundNode:
		fmt.Fprintf(w, "%sbegin\n", indent)
		for _, stmt := range d.Stmts {
			dump(w, stmt, depth+1)
		}
	case AssignNode:
		fmt.Fprintf(w, "%sassign\n", indent)
		dump(w, d.Target, depth+1)
		dump(w, d.Value, depth+1)
	case IfNode:
		fmt.Fprintf(w, "%sif\n", indent)
		dump(w, d.Cond, depth+1)
		dump(w, d.Then, depth+1)
		if d.Else != nil {
			fmt.Fprintf(w, "%selse\n", indent)
			dump(w, d.Else, depth+1)
		}
	case WhileNode:
		fmt.Fprintf(w, "%swhile\n", indent)
		dump(w, d.Cond, depth+1)
		dump(w, d.Body, depth+1)
	case ProcCallNode:
		fmt.Fprintf(w, "%scall %s\n", indent, d.Name.Name)
		for _, arg := range d.Args {
			dump(w, arg, depth+1)
		}
	case ReturnNode:
		fmt.Fprintf(w, "%sreturn\n", indent)
		dump(w, d.Value, depth+1)
	case IntLitNode:
		fmt.Fprintf(w, "%sint %d\n", indent, d.Value)
	case RealLitNode:
		fmt.Fprintf(w, "%sreal %g\n", indent, d.Value)
	case BoolLitNode:
		fmt.Fprintf(w, "%sbool %v\n", indent, d.Value)
	case StrLitNode:
		fmt.Fprintf(w, "%sstring %q\n", indent, d.Value)
	case VariableNode:
		fmt.Fprintf(w, "%svariable %s\n", indent, d.Name.Name)
		if d.Index != nil {
			dump(w, d.Index, depth+1)
		}
	case IdExprNode:
		fmt.Fprintf(w, "%sident %s\n", indent, d.Name.Name)
	case UnaryOpNode:
		fmt.Fprintf(w, "%sunary %s\n", indent, token.TypeStrings[d.Op])
		dump(w, d.Expr, depth+1)
	case BinaryOpNode:
		fmt.Fprintf(w, "%sbinary %s\n", indent, token.TypeStrings[d.Op])
		dump(w, d.Left, depth+1)
		dump(w, d.Right, depth+1)
	case FuncCallNode:
		fmt.Fprintf(w, "%scall %s\n", indent, d.Name.Name)
		for _, arg := range d.Args {
			dump(w, arg, depth+1)
		}
	}
}

func identNames(ids []Ident) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return strings.Join(names, ", ")
}

func paramString(groups []*Node) string {
	parts := make([]string, len(groups))
	for i, group := range groups {
		d := group.Data.(ParamGroupNode)
		parts[i] = identNames(d.Names) + ": " + typeString(d.DeclType)
	}
	return strings.Join(parts, "; ")
}

func typeString(typeNode *Node) string {
	if typeNode == nil {
		return "?"
	}
	switch d := typeNode.Data.(type) {
	case StandardTypeNode:
		return d.Category.String()
	case ArrayTypeNode:
		return fmt.Sprintf("array [%d..%d] of %s", d.Low, d.High, typeString(d.Elem))
	}
	return "?"
}
