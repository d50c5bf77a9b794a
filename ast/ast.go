// Package ast holds every type that appears in a GDLK syntax tree, from the
// raw parsed form down to the flat executable form. There is no behavior
// here beyond formatting; the parser builds these values, the compiler
// transforms them, and the machine executes them.
package ast

import (
	"fmt"
	"strconv"
)

// LangValue is the type of every value in the language.
type LangValue = int32

// Source-text tags for registers and stacks.
const (
	StackRefTag            = "S"
	NullRegisterRef        = "RZR"
	InputLengthRegisterRef = "RLI"
	StackLengthRegisterTag = "RS"
	UserRegisterTag        = "RX"
)

// RegisterKind discriminates the closed set of register variants.
type RegisterKind uint8

const (
	// RegNull reads as zero and discards writes.
	RegNull RegisterKind = iota
	// RegInputLength is a read-only view of the remaining input count.
	RegInputLength
	// RegStackLength is a read-only view of one stack's current length.
	RegStackLength
	// RegUser is a general-purpose read-write register.
	RegUser
)

// RegisterRef identifies one register. Index is only meaningful for
// RegStackLength (stack id) and RegUser (register id). The struct is
// comparable so it can key the reference-statistics sets.
type RegisterRef struct {
	Kind  RegisterKind
	Index int
}

func NullRegister() RegisterRef        { return RegisterRef{Kind: RegNull} }
func InputLengthRegister() RegisterRef { return RegisterRef{Kind: RegInputLength} }
func StackLengthRegister(stackID int) RegisterRef {
	return RegisterRef{Kind: RegStackLength, Index: stackID}
}
func UserRegister(id int) RegisterRef { return RegisterRef{Kind: RegUser, Index: id} }

// Writable reports whether the register can be a destination. Only Null and
// User registers accept writes.
func (r RegisterRef) Writable() bool {
	return r.Kind == RegNull || r.Kind == RegUser
}

func (r RegisterRef) String() string {
	switch r.Kind {
	case RegNull:
		return NullRegisterRef
	case RegInputLength:
		return InputLengthRegisterRef
	case RegStackLength:
		return StackLengthRegisterTag + strconv.Itoa(r.Index)
	case RegUser:
		return UserRegisterTag + strconv.Itoa(r.Index)
	default:
		panic(fmt.Sprintf("unknown register kind %d", r.Kind))
	}
}

// StackRef identifies one of the hardware's stacks, e.g. "S0".
type StackRef struct {
	Index int
}

func (s StackRef) String() string {
	return StackRefTag + strconv.Itoa(s.Index)
}

// ValueSource is anything an instruction can read a value from: a constant
// literal or a register.
type ValueSource struct {
	// IsConst selects between the two variants.
	IsConst  bool
	Const    Node[LangValue]
	Register Node[RegisterRef]
}

func ConstSource(n Node[LangValue]) ValueSource {
	return ValueSource{IsConst: true, Const: n}
}

func RegisterSource(n Node[RegisterRef]) ValueSource {
	return ValueSource{Register: n}
}

func (v ValueSource) String() string {
	if v.IsConst {
		return strconv.FormatInt(int64(v.Const.Value), 10)
	}
	return v.Register.Value.String()
}

// Opcode is the closed set of GDLK instructions.
type Opcode uint8

const (
	OpRead Opcode = iota + 1
	OpWrite
	OpSet
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCmp
	OpPush
	OpPop
	OpJmp
	OpJez
	OpJnz
	OpJlz
	OpJgz
)

var opcodeNames = map[Opcode]string{
	OpRead:  "READ",
	OpWrite: "WRITE",
	OpSet:   "SET",
	OpAdd:   "ADD",
	OpSub:   "SUB",
	OpMul:   "MUL",
	OpDiv:   "DIV",
	OpCmp:   "CMP",
	OpPush:  "PUSH",
	OpPop:   "POP",
	OpJmp:   "JMP",
	OpJez:   "JEZ",
	OpJnz:   "JNZ",
	OpJlz:   "JLZ",
	OpJgz:   "JGZ",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// IsJump reports whether the opcode targets a label.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJmp, OpJez, OpJnz, OpJlz, OpJgz:
		return true
	}
	return false
}

// Instruction is one executable statement. Which operand fields are
// meaningful depends on Op:
//
//	READ                Dst
//	WRITE               Src
//	SET/ADD/SUB/MUL/DIV Dst, Src
//	CMP                 Dst, Src, Src2
//	PUSH                Src, Stack
//	POP                 Stack, Dst
//	JMP                 Label
//	JEZ/JNZ/JLZ/JGZ     Src, Label
type Instruction struct {
	Op    Opcode
	Dst   Node[RegisterRef]
	Src   Node[ValueSource]
	Src2  Node[ValueSource]
	Stack Node[StackRef]
	Label Node[string]
}

// String renders the instruction back into canonical source form, e.g.
// "SET RX0 5". Used by the CLI's program dump and debugger listing.
func (ins Instruction) String() string {
	switch ins.Op {
	case OpRead:
		return fmt.Sprintf("READ %s", ins.Dst.Value)
	case OpWrite:
		return fmt.Sprintf("WRITE %s", ins.Src.Value)
	case OpSet, OpAdd, OpSub, OpMul, OpDiv:
		return fmt.Sprintf("%s %s %s", ins.Op, ins.Dst.Value, ins.Src.Value)
	case OpCmp:
		return fmt.Sprintf("CMP %s %s %s", ins.Dst.Value, ins.Src.Value, ins.Src2.Value)
	case OpPush:
		return fmt.Sprintf("PUSH %s %s", ins.Src.Value, ins.Stack.Value)
	case OpPop:
		return fmt.Sprintf("POP %s %s", ins.Stack.Value, ins.Dst.Value)
	case OpJmp:
		return fmt.Sprintf("JMP %s", ins.Label.Value)
	case OpJez, OpJnz, OpJlz, OpJgz:
		return fmt.Sprintf("%s %s %s", ins.Op, ins.Src.Value, ins.Label.Value)
	default:
		panic(fmt.Sprintf("unknown opcode %d", ins.Op))
	}
}

// Statement is one parsed element: either a label declaration or an
// instruction. Exactly one of the two fields is set.
type Statement struct {
	Label *Node[string]
	Instr *Node[Instruction]
}

func LabelStatement(label Node[string]) Statement {
	return Statement{Label: &label}
}

func InstrStatement(instr Node[Instruction]) Statement {
	return Statement{Instr: &instr}
}

// SourceProgram is the parsed, untransformed program: an ordered sequence of
// spanned statements. Never mutated after the parser builds it.
type SourceProgram struct {
	Body []Node[Statement]
}

// ProgramStats tracks which registers and stacks a program references,
// whether or not those references turn out to be valid. Collected during
// validation, attached to the compiled program for host scoring.
type ProgramStats struct {
	ReferencedRegisters map[RegisterRef]struct{}
	ReferencedStacks    map[StackRef]struct{}
}

func NewProgramStats() ProgramStats {
	return ProgramStats{
		ReferencedRegisters: make(map[RegisterRef]struct{}),
		ReferencedStacks:    make(map[StackRef]struct{}),
	}
}

func (s ProgramStats) AddRegisterRef(r RegisterRef) {
	s.ReferencedRegisters[r] = struct{}{}
}

func (s ProgramStats) AddStackRef(r StackRef) {
	s.ReferencedStacks[r] = struct{}{}
}

// CompiledProgram is the flat executable form: labels are gone from the
// instruction stream and live in SymbolTable as absolute instruction
// indices. Immutable once built; machines share it read-only.
type CompiledProgram struct {
	Instructions []Node[Instruction]
	SymbolTable  map[string]int
	Stats        ProgramStats
}

// NumInstructions returns the count of executable instructions (comments,
// whitespace and labels excluded).
func (p *CompiledProgram) NumInstructions() int {
	return len(p.Instructions)
}

// NumUserRegistersReferenced counts the distinct RXx registers the program
// references (not necessarily accesses at runtime).
func (p *CompiledProgram) NumUserRegistersReferenced() int {
	n := 0
	for reg := range p.Stats.ReferencedRegisters {
		if reg.Kind == RegUser {
			n++
		}
	}
	return n
}

// NumStacksReferenced counts the distinct stacks the program references.
func (p *CompiledProgram) NumStacksReferenced() int {
	return len(p.Stats.ReferencedStacks)
}
