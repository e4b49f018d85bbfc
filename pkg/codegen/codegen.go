// Package codegen lowers the analyzed AST to the stack machine's
// instruction stream. It is a single synchronous pass over the tree:
// declarations reserve storage, subprograms become skippable labeled
// blocks, and expressions evaluate left to right onto the stack.
//
// The pass replays the scope tree recorded by the semantic analyzer,
// entering scopes in the same order, so name lookups resolve against
// the same entries the analyzer created.
package codegen

import (
	"errors"
	"fmt"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/ast"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/symbols"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/vm"
)

var (
	ErrUnresolvedSymbol = errors.New("codegen: unresolved symbol")
	ErrUnresolvedCall   = errors.New("codegen: unresolved call target")
	ErrNoReturnContext  = errors.New("codegen: return outside subprogram")
	ErrArraySize        = errors.New("codegen: array size must be positive")
	ErrUnknownOperator  = errors.New("codegen: unknown operator")
)

// mainEntryLabel marks where execution continues after the subprogram
// blocks.
const mainEntryLabel = "main_entry"

type Generator struct {
	syms        *symbols.Table
	prog        *vm.Program
	labelCount  int
	paramOffset int
	currentSub  *symbols.Entry
}

func New(syms *symbols.Table) *Generator {
	return &Generator{syms: syms}
}

// Generate lowers a whole program. The symbol table is rewound first
// so scope re-entry lines up with the order recorded during analysis.
func (g *Generator) Generate(root *ast.Node) (*vm.Program, error) {
	g.syms.Rewind()
	g.prog = &vm.Program{}
	g.labelCount = 0
	g.currentSub = nil

	prog := root.Data.(ast.ProgramNode)

	g.prog.Emit(vm.OpStart)
	if len(prog.Subprograms) > 0 {
		g.prog.EmitArg(vm.OpJump, vm.Label{Name: mainEntryLabel})
	}
	for _, sub := range prog.Subprograms {
		if err := g.subprogram(sub); err != nil {
			return nil, err
		}
	}
	g.prog.Mark(mainEntryLabel)
	if err := g.globalDeclarations(prog.Decls); err != nil {
		return nil, err
	}
	if err := g.statement(prog.Body); err != nil {
		return nil, err
	}
	g.prog.Emit(vm.OpStop)
	return g.prog, nil
}

func (g *Generator) newLabel(prefix string) string {
	label := fmt.Sprintf("L_%s_%d", prefix, g.labelCount)
	g.labelCount++
	return label
}

// globalDeclarations reserves the global frame with one bulk pushn
// covering every non-array identifier, then allocates each array and
// stores its handle.
func (g *Generator) globalDeclarations(decls []*ast.Node) error {
	varCount := 0
	for _, decl := range decls {
		d := decl.Data.(ast.VarDeclNode)
		if isArrayType(d.DeclType) {
			continue
		}
		varCount += len(d.Names)
	}
	if varCount > 0 {
		g.prog.EmitArg(vm.OpPushN, vm.Int{Value: varCount})
	}
	for _, decl := range decls {
		if err := g.arrayAllocations(decl); err != nil {
			return err
		}
	}
	return nil
}

// localDeclarations reserves frame cells per declaration group, then
// allocates that group's arrays.
func (g *Generator) localDeclarations(decls []*ast.Node) error {
	for _, decl := range decls {
		d := decl.Data.(ast.VarDeclNode)
		if !isArrayType(d.DeclType) {
			g.prog.EmitArg(vm.OpPushN, vm.Int{Value: len(d.Names)})
		}
		if err := g.arrayAllocations(decl); err != nil {
			return err
		}
	}
	return nil
}

func isArrayType(typeNode *ast.Node) bool {
	_, ok := typeNode.Data.(ast.ArrayTypeNode)
	return ok
}

func (g *Generator) arrayAllocations(decl *ast.Node) error {
	d := decl.Data.(ast.VarDeclNode)
	at, ok := d.DeclType.Data.(ast.ArrayTypeNode)
	if !ok {
		return nil
	}
	size := at.High - at.Low + 1
	if size <= 0 {
		return fmt.Errorf("%w: [%d..%d]", ErrArraySize, at.Low, at.High)
	}
	storeOp := vm.OpStoreL
	if g.syms.IsGlobalScope() {
		storeOp = vm.OpStoreG
	}
	for _, name := range d.Names {
		entry, _, found := g.syms.Lookup(name.Name)
		if !found {
			return fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name.Name)
		}
		g.prog.EmitArg(vm.OpAlloc, vm.Int{Value: size})
		g.prog.EmitArg(storeOp, vm.Int{Value: entry.Offset})
	}
	return nil
}

// subprogram emits one skippable labeled block. Straight-line code
// jumps over it; callers enter at the mangled-name label.
func (g *Generator) subprogram(sub *ast.Node) error {
	d := sub.Data.(ast.SubprogramDeclNode)
	kind, name, params := ast.HeadInfo(d.Head)
	mangled := symbols.MangledName(kind, name.Name, params)

	entry, _, found := g.syms.Lookup(mangled)
	if !found {
		return fmt.Errorf("%w: %s", ErrUnresolvedSymbol, mangled)
	}
	prevSub := g.currentSub
	g.currentSub = entry

	endLabel := mangled + "_end"
	g.prog.EmitArg(vm.OpJump, vm.Label{Name: endLabel})
	g.prog.Mark(mangled)

	g.syms.EnterScope()
	g.paramOffset = 0
	g.declareParameters(d.Head)
	if err := g.localDeclarations(d.Locals); err != nil {
		return err
	}
	if err := g.statement(d.Body); err != nil {
		return err
	}
	if kind == symbols.Procedure {
		g.prog.Emit(vm.OpReturn)
	}
	g.prog.Mark(endLabel)
	g.syms.ExitScope()

	g.currentSub = prevSub
	return nil
}

// declareParameters re-creates the parameter entries inside the
// freshly entered scope, assigning offsets in declaration order. The
// table replaces the analyzer's same-name entries in place.
func (g *Generator) declareParameters(head *ast.Node) {
	var groups []*ast.Node
	switch d := head.Data.(type) {
	case ast.FuncHeadNode:
		groups = d.Params
	case ast.ProcHeadNode:
		groups = d.Params
	}
	for _, group := range groups {
		d := group.Data.(ast.ParamGroupNode)
		cat, ad := ast.TypeCategoryOf(d.DeclType)
		for _, name := range d.Names {
			g.syms.AddSymbol(&symbols.Entry{
				Name: name.Name, Kind: symbols.Parameter, Type: cat,
				Offset: g.paramOffset, ArrayDetails: ad,
				Line: name.Tok.Line, Column: name.Tok.Column,
			})
			g.paramOffset++
		}
	}
}

func (g *Generator) statement(stmt *ast.Node) error {
	if stmt == nil {
		return nil
	}
	switch d := stmt.Data.(type) {
	case ast.CompoundNode:
		for _, s := range d.Stmts {
			if err := g.statement(s); err != nil {
				return err
			}
		}
		return nil
	case ast.AssignNode:
		return g.assign(d)
	case ast.IfNode:
		return g.ifStatement(d)
	case ast.WhileNode:
		return g.whileStatement(d)
	case ast.ProcCallNode:
		return g.procCall(stmt, d)
	case ast.ReturnNode:
		return g.returnStatement(d)
	}
	return nil
}

func (g *Generator) assign(d ast.AssignNode) error {
	target := d.Target.Data.(ast.VariableNode)

	if target.Index != nil {
		entry, _, found := g.syms.Lookup(target.Name.Name)
		if !found {
			return fmt.Errorf("%w: %s", ErrUnresolvedSymbol, target.Name.Name)
		}
		low := entry.ArrayDetails.LowBound
		g.pushFrameCell(d.Target.Scope, entry.Offset)

		if lit, ok := target.Index.Data.(ast.IntLitNode); ok {
			if err := g.expression(d.Value); err != nil {
				return err
			}
			g.prog.EmitArg(vm.OpStore, vm.Int{Value: lit.Value - low})
			return nil
		}
		if err := g.expression(target.Index); err != nil {
			return err
		}
		g.prog.EmitArg(vm.OpPushI, vm.Int{Value: low})
		g.prog.Emit(vm.OpSub)
		if err := g.expression(d.Value); err != nil {
			return err
		}
		g.prog.Emit(vm.OpStoreN)
		return nil
	}

	if err := g.expression(d.Value); err != nil {
		return err
	}
	if d.Target.Typ == symbols.Real && d.Value.Typ == symbols.Integer {
		g.prog.Emit(vm.OpItoF)
	}
	entry, _, found := g.syms.Lookup(target.Name.Name)
	if !found {
		return fmt.Errorf("%w: %s", ErrUnresolvedSymbol, target.Name.Name)
	}
	if entry.Kind == symbols.Parameter {
		g.prog.EmitArg(vm.OpStoreL, vm.Int{Value: -(entry.Offset + 1)})
		return nil
	}
	if d.Target.Scope == symbols.Local {
		g.prog.EmitArg(vm.OpStoreL, vm.Int{Value: entry.Offset})
	} else {
		g.prog.EmitArg(vm.OpStoreG, vm.Int{Value: entry.Offset})
	}
	return nil
}

func (g *Generator) ifStatement(d ast.IfNode) error {
	elseLabel := g.newLabel("ELSE")
	endIfLabel := g.newLabel("END_IF")
	if err := g.expression(d.Cond); err != nil {
		return err
	}
	g.prog.EmitArg(vm.OpJz, vm.Label{Name: elseLabel})
	if err := g.statement(d.Then); err != nil {
		return err
	}
	if d.Else != nil {
		g.prog.EmitArg(vm.OpJump, vm.Label{Name: endIfLabel})
	}
	g.prog.Mark(elseLabel)
	if d.Else != nil {
		if err := g.statement(d.Else); err != nil {
			return err
		}
	}
	g.prog.Mark(endIfLabel)
	return nil
}

func (g *Generator) whileStatement(d ast.WhileNode) error {
	startLabel := g.newLabel("WHILE_START")
	endLabel := g.newLabel("WHILE_END")
	g.prog.Mark(startLabel)
	if err := g.expression(d.Cond); err != nil {
		return err
	}
	g.prog.EmitArg(vm.OpJz, vm.Label{Name: endLabel})
	if err := g.statement(d.Body); err != nil {
		return err
	}
	g.prog.EmitArg(vm.OpJump, vm.Label{Name: startLabel})
	g.prog.Mark(endLabel)
	return nil
}

func (g *Generator) procCall(stmt *ast.Node, d ast.ProcCallNode) error {
	switch d.Name.Name {
	case "write", "writeln":
		return g.writeCall(d)
	case "read", "readln":
		// The target machine has no input instructions; these calls
		// compile to nothing.
		return nil
	}

	entry := stmt.Entry
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrUnresolvedCall, d.Name.Name)
	}
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

// writeCall lowers write/writeln argument by argument. The write
// instruction is picked by static type: strings, integers and
// booleans, or reals.
func (g *Generator) writeCall(d ast.ProcCallNode) error {
	for _, arg := range d.Args {
		if err := g.expression(arg); err != nil {
			return err
		}
		switch {
		case arg.Type == ast.StrLit:
			g.prog.Emit(vm.OpWriteS)
		case arg.Typ == symbols.Integer || arg.Typ == symbols.Boolean:
			g.prog.Emit(vm.OpWriteI)
		case arg.Typ == symbols.Real:
			g.prog.Emit(vm.OpWriteF)
		}
	}
	if d.Name.Name == "writeln" {
		g.prog.EmitArg(vm.OpPushS, vm.Str{Value: "\n"})
		g.prog.Emit(vm.OpWriteS)
	}
	return nil
}

// returnStatement stores the value into the caller-reserved slot below
// the arguments, then returns.
func (g *Generator) returnStatement(d ast.ReturnNode) error {
	if d.Value != nil {
		if g.currentSub == nil {
			return ErrNoReturnContext
		}
		if err := g.expression(d.Value); err != nil {
			return err
		}
		if g.currentSub.ReturnType == symbols.Real && d.Value.Typ == symbols.Integer {
			g.prog.Emit(vm.OpItoF)
		}
		g.prog.EmitArg(vm.OpStoreL, vm.Int{Value: -(g.currentSub.NumParameters + 1)})
	}
	g.prog.Emit(vm.OpReturn)
	return nil
}
