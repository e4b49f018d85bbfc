package codegen

import (
	"fmt"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/token"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/vm"
)

func (g *Generator) expression(expr *ast.Node) error {
	switch d := expr.Data.(type) {
	case ast.IntLitNode:
		g.prog.EmitArg(vm.OpPushI, vm.Int{Value: d.Value})
	case ast.RealLitNode:
		g.prog.EmitArg(vm.OpPushF, vm.Float{Value: d.Value})
	case ast.BoolLitNode:
		value := 0
		if d.Value {
			value = 1
		}
		g.prog.EmitArg(vm.OpPushI, vm.Int{Value: value})
	case ast.StrLitNode:
		g.prog.EmitArg(vm.OpPushS, vm.Str{Value: d.Value})
	case ast.VariableNode:
		return g.variableRead(expr, d)
	case ast.IdExprNode:
		return g.idExpr(expr, d)
	case ast.FuncCallNode:
		return g.funcCall(expr, d)
	case ast.UnaryOpNode:
		return g.unaryOp(d)
	case ast.BinaryOpNode:
		return g.binaryOp(d)
	}
	return nil
}

func (g *Generator) pushFrameCell(scope symbols.ScopeKind, offset int) {
	if scope == symbols.Local {
		g.prog.EmitArg(vm.OpPushL, vm.Int{Value: offset})
	} else {
		g.prog.EmitArg(vm.OpPushG, vm.Int{Value: offset})
	}
}

// variableRead loads a scalar or array element. Parameters always come
// from below the frame base; a compile-time-constant index uses the
// direct load form, anything else computes the offset on the stack.
func (g *Generator) variableRead(node *ast.Node, d ast.VariableNode) error {
	entry, _, found := g.syms.Lookup(d.Name.Name)
	if !found {
		return fmt.Errorf("%w: %s", ErrUnresolvedSymbol, d.Name.Name)
	}
	if entry.Kind == symbols.Parameter {
		g.prog.EmitArg(vm.OpPushL, vm.Int{Value: -(entry.Offset + 1)})
		return nil
	}
	if d.Index == nil {
		g.pushFrameCell(node.Scope, entry.Offset)
		return nil
	}

	if !entry.ArrayDetails.Initialized {
		return fmt.Errorf("%w: %s has no array bounds", ErrUnresolvedSymbol, d.Name.Name)
	}
	low := entry.ArrayDetails.LowBound
	g.pushFrameCell(node.Scope, entry.Offset)
	if lit, ok := d.Index.Data.(ast.IntLitNode); ok {
		g.prog.EmitArg(vm.OpLoad, vm.Int{Value: lit.Value - low})
		return nil
	}
	if err := g.expression(d.Index); err != nil {
		return err
	}
	g.prog.EmitArg(vm.OpPushI, vm.Int{Value: low})
	g.prog.Emit(vm.OpSub)
	g.prog.Emit(vm.OpLoadN)
	return nil
}

// idExpr loads a bare identifier. When the analyzer resolved it to a
// function, the reference is a zero-argument call.
func (g *Generator) idExpr(node *ast.Node, d ast.IdExprNode) error {
	if node.Kind == symbols.Function {
		if node.Entry == nil {
			return fmt.Errorf("%w: %s", ErrUnresolvedCall, d.Name.Name)
		}
		g.prog.EmitArg(vm.OpPushN, vm.Int{Value: 1})
		g.prog.EmitArg(vm.OpPushA, vm.Label{Name: node.Entry.MangledName})
		g.prog.Emit(vm.OpCall)
		return nil
	}

	entry, _, found := g.syms.Lookup(d.Name.Name)
	if !found {
		return fmt.Errorf("%w: %s", ErrUnresolvedSymbol, d.Name.Name)
	}
	if entry.Kind == symbols.Parameter {
		g.prog.EmitArg(vm.OpPushL, vm.Int{Value: -(entry.Offset + 1)})
		return nil
	}
	g.pushFrameCell(node.Scope, entry.Offset)
	return nil
}

// funcCall follows the calling convention: reserve the return slot,
// push arguments rightmost first, call, then discard the argument
// cells so only the return value remains.
func (g *Generator) funcCall(node *ast.Node, d ast.FuncCallNode) error {
	entry := node.Entry
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrUnresolvedCall, d.Name.Name)
	}
	g.prog.EmitArg(vm.OpPushN, vm.Int{Value: 1})
	for i := len(d.Args) - 1; i >= 0; i-- {
		if err := g.expression(d.Args[i]); err != nil {
			return err
		}
	}
	g.prog.EmitArg(vm.OpPushA, vm.Label{Name: entry.MangledName})
	g.prog.Emit(vm.OpCall)
	if entry.NumParameters > 0 {
		g.prog.EmitArg(vm.OpPop, vm.Int{Value: entry.NumParameters})
	}
	return nil
}

func (g *Generator) unaryOp(d ast.UnaryOpNode) error {
	if err := g.expression(d.Expr); err != nil {
		return err
	}
	switch d.Op {
	case token.Minus:
		if d.Expr.Typ == symbols.Real {
			g.prog.EmitArg(vm.OpPushF, vm.Float{Value: 0})
			g.prog.Emit(vm.OpSwap)
			g.prog.Emit(vm.OpFSub)
		} else {
			g.prog.EmitArg(vm.OpPushI, vm.Int{Value: 0})
			g.prog.Emit(vm.OpSwap)
			g.prog.Emit(vm.OpSub)
		}
	case token.Not:
		g.prog.Emit(vm.OpNot)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperator, token.TypeStrings[d.Op])
	}
	return nil
}

// binaryOp evaluates left then right, coercing integer operands to
// real when the operation is carried out in real arithmetic. Pascal's
// '/' always divides in real arithmetic regardless of operand types.
func (g *Generator) binaryOp(d ast.BinaryOpNode) error {
	isReal := d.Left.Typ == symbols.Real || d.Right.Typ == symbols.Real || d.Op == token.Slash
	if d.Op == token.And || d.Op == token.Or {
		isReal = false
	}

	if err := g.expression(d.Left); err != nil {
		return err
	}
	if isReal && d.Left.Typ == symbols.Integer {
		g.prog.Emit(vm.OpItoF)
	}
	if err := g.expression(d.Right); err != nil {
		return err
	}
	if isReal && d.Right.Typ == symbols.Integer {
		g.prog.Emit(vm.OpItoF)
	}

	pick := func(intOp, realOp vm.Op) vm.Op {
		if isReal {
			return realOp
		}
		return intOp
	}

	switch d.Op {
	case token.Plus:
		g.prog.Emit(pick(vm.OpAdd, vm.OpFAdd))
	case token.Minus:
		g.prog.Emit(pick(vm.OpSub, vm.OpFSub))
	case token.Star:
		g.prog.Emit(pick(vm.OpMul, vm.OpFMul))
	case token.Slash:
		g.prog.Emit(vm.OpFDiv)
	case token.Div:
		g.prog.Emit(vm.OpDiv)
	case token.Eq:
		g.prog.Emit(vm.OpEqual)
	case token.Neq:
		g.prog.Emit(vm.OpEqual)
		g.prog.Emit(vm.OpNot)
	case token.Lt:
		g.prog.Emit(pick(vm.OpInf, vm.OpFInf))
	case token.Lte:
		g.prog.Emit(pick(vm.OpInfEq, vm.OpFInfEq))
	case token.Gt:
		g.prog.Emit(pick(vm.OpSup, vm.OpFSup))
	case token.Gte:
		g.prog.Emit(pick(vm.OpSupEq, vm.OpFSupEq))
	case token.And:
		// Boolean values are 0/1 on this machine; conjunction is a
		// multiply.
		g.prog.Emit(vm.OpMul)
	case token.Or:
		g.prog.Emit(vm.OpAdd)
		g.prog.EmitArg(vm.OpPushI, vm.Int{Value: 0})
		g.prog.Emit(vm.OpSup)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperator, token.TypeStrings[d.Op])
	}
	return nil
}
