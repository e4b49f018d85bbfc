// Package vm models the target stack machine's instruction set. The
// code generator builds a structured Program; rendering to the textual
// form the VM consumes is a separate step, so the addressing and
// calling-convention logic never does string assembly.
package vm

import (
	"strconv"
	"strings"
)

type Op int

const (
	// Program bounds
	OpStart Op = iota
	OpStop

	// Control flow
	OpJump
	OpJz
	OpPushA
	OpCall
	OpReturn

	// Stack and frame access
	OpPushI
	OpPushF
	OpPushS
	OpPushN
	OpPushG
	OpPushL
	OpStoreG
	OpStoreL
	OpPop
	OpSwap

	// Array storage
	OpAlloc
	OpLoad
	OpStore
	OpLoadN
	OpStoreN

	// Integer arithmetic and comparisons
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEqual
	OpNot
	OpInf
	OpInfEq
	OpSup
	OpSupEq

	// Real arithmetic and comparisons
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFInf
	OpFInfEq
	OpFSup
	OpFSupEq

	// Conversion and I/O
	OpItoF
	OpWriteS
	OpWriteI
	OpWriteF

	// LabelMark is a pseudo-instruction marking a jump target. It
	// renders as "name:" on its own line.
	OpLabelMark
)

var opNames = [...]string{
	OpStart: "start", OpStop: "stop",
	OpJump: "jump", OpJz: "jz", OpPushA: "pusha", OpCall: "call", OpReturn: "return",
	OpPushI: "pushi", OpPushF: "pushf", OpPushS: "pushs", OpPushN: "pushn",
	OpPushG: "pushg", OpPushL: "pushl", OpStoreG: "storeg", OpStoreL: "storel",
	OpPop: "pop", OpSwap: "swap",
	OpAlloc: "alloc", OpLoad: "load", OpStore: "store", OpLoadN: "loadn", OpStoreN: "storen",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpEqual: "equal", OpNot: "not",
	OpInf: "inf", OpInfEq: "infeq", OpSup: "sup", OpSupEq: "supeq",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv",
	OpFInf: "finf", OpFInfEq: "finfeq", OpFSup: "fsup", OpFSupEq: "fsupeq",
	OpItoF: "itof", OpWriteS: "writes", OpWriteI: "writei", OpWriteF: "writef",
	OpLabelMark: "label",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// Arg is an instruction operand.
type Arg interface {
	isArg()
	String() string
}

// Int carries counts, offsets, sizes, and integer literals.
type Int struct{ Value int }

// Float carries real literals.
type Float struct{ Value float64 }

// Str carries string literals; it renders with surrounding quotes.
type Str struct{ Value string }

// Label carries a code label name.
type Label struct{ Name string }

func (Int) isArg()   {}
func (Float) isArg() {}
func (Str) isArg()   {}
func (Label) isArg() {}

func (a Int) String() string { return strconv.Itoa(a.Value) }
func (a Float) String() string {
	s := strconv.FormatFloat(a.Value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
func (a Str) String() string   { return strconv.Quote(a.Value) }
func (a Label) String() string { return a.Name }

type Instruction struct {
	Op  Op
	Arg Arg
}

// Program is the ordered instruction stream produced by one generation
// run.
type Program struct {
	Instructions []Instruction
}

func (p *Program) Emit(op Op) {
	p.Instructions = append(p.Instructions, Instruction{Op: op})
}

func (p *Program) EmitArg(op Op, arg Arg) {
	p.Instructions = append(p.Instructions, Instruction{Op: op, Arg: arg})
}

// Mark records a label at the current position.
func (p *Program) Mark(label string) {
	p.EmitArg(OpLabelMark, Label{Name: label})
}

// Labels returns every label marked in the program, in order.
func (p *Program) Labels() []string {
	var labels []string
	for _, instr := range p.Instructions {
		if instr.Op == OpLabelMark {
			labels = append(labels, instr.Arg.(Label).Name)
		}
	}
	return labels
}

// String renders the program in the VM's textual form: one mnemonic
// per line indented by four spaces, label marks flush left as "name:".
func (p *Program) String() string {
	var sb strings.Builder
	for _, instr := range p.Instructions {
		if instr.Op == OpLabelMark {
			sb.WriteString(instr.Arg.(Label).Name)
			sb.WriteString(":\n")
			continue
		}
		sb.WriteString("    ")
		sb.WriteString(instr.Op.String())
		if instr.Arg != nil {
			sb.WriteString(" ")
			sb.WriteString(instr.Arg.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
