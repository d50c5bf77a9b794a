// Package machine executes compiled GDLK programs one instruction at a time.
// A machine is allocated from a compiled program plus a program spec (input
// and expected output) and stepped until termination. Execution is strictly
// deterministic and single-goroutine; a machine is not safe for concurrent
// use.
package machine

import (
	"fmt"

	"github.com/LucasPickering/gdlk-sub000/ast"
	"github.com/LucasPickering/gdlk-sub000/gdlkerrors"
	"github.com/LucasPickering/gdlk-sub000/log"
	"github.com/LucasPickering/gdlk-sub000/types"
)

// DefaultMaxCycles is the cycle ceiling used by Program.Allocate. High enough
// that legitimate programs on 256-element buffers never get near it.
const DefaultMaxCycles = 1_000_000

// FailureReason says why a terminated machine did not succeed.
type FailureReason uint8

const (
	// FailureNone means the machine is still running or succeeded.
	FailureNone FailureReason = iota
	// FailureRuntimeError means execution halted on a runtime error.
	FailureRuntimeError
	// FailureRemainingInput means the program ended with unread input.
	FailureRemainingInput
	// FailureIncorrectOutput means the output buffer does not match the
	// expected output.
	FailureIncorrectOutput
)

func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureRuntimeError:
		return "runtime error"
	case FailureRemainingInput:
		return "remaining input"
	case FailureIncorrectOutput:
		return "incorrect output"
	default:
		return fmt.Sprintf("FailureReason(%d)", uint8(r))
	}
}

// Machine is one execution of a program. All mutable run state lives here;
// the program itself is shared and read-only.
type Machine struct {
	hw             types.HardwareSpec
	source         string
	program        ast.CompiledProgram
	expectedOutput []ast.LangValue
	maxCycles      int

	pc         int
	input      []ast.LangValue
	output     []ast.LangValue
	registers  []ast.LangValue
	stacks     [][]ast.LangValue
	cycleCount int

	// Sticky. Once set, ExecuteNext becomes a no-op.
	err *gdlkerrors.WithSource
}

// New allocates a machine with fresh state: input copied from the spec,
// registers zeroed, stacks empty. maxCycles is the hard ceiling on executed
// instructions.
func New(
	hw types.HardwareSpec,
	source string,
	program ast.CompiledProgram,
	spec types.ProgramSpec,
	maxCycles int,
) *Machine {
	input := make([]ast.LangValue, len(spec.Input))
	copy(input, spec.Input)
	stacks := make([][]ast.LangValue, hw.NumStacks)
	for i := range stacks {
		stacks[i] = make([]ast.LangValue, 0, hw.MaxStackLength)
	}
	return &Machine{
		hw:             hw,
		source:         source,
		program:        program,
		expectedOutput: spec.ExpectedOutput,
		maxCycles:      maxCycles,
		input:          input,
		output:         make([]ast.LangValue, 0, len(spec.ExpectedOutput)),
		registers:      make([]ast.LangValue, hw.NumRegisters),
		stacks:         stacks,
	}
}

// getVal resolves a value source: a constant is itself, a register is read.
func (m *Machine) getVal(src ast.Node[ast.ValueSource]) ast.LangValue {
	if src.Value.IsConst {
		return src.Value.Const.Value
	}
	return m.getReg(src.Value.Register.Value)
}

// getReg reads a register. The reference was checked during validation, so
// an out-of-range index here is a compiler bug and panics.
func (m *Machine) getReg(reg ast.RegisterRef) ast.LangValue {
	switch reg.Kind {
	case ast.RegNull:
		return 0
	case ast.RegInputLength:
		// Buffer lengths are capped at 256, so the conversion is safe.
		return ast.LangValue(len(m.input))
	case ast.RegStackLength:
		return ast.LangValue(len(m.stacks[reg.Index]))
	case ast.RegUser:
		return m.registers[reg.Index]
	default:
		panic(fmt.Sprintf("unknown register kind %d", reg.Kind))
	}
}

// setReg writes a register. Writes to the null register are discarded;
// writes to read-only registers panic, since validation should have
// rejected them.
func (m *Machine) setReg(reg ast.Node[ast.RegisterRef], value ast.LangValue) {
	switch reg.Value.Kind {
	case ast.RegNull:
		// /dev/null behavior: discard
	case ast.RegUser:
		m.registers[reg.Value.Index] = value
	default:
		panic(fmt.Sprintf("unwritable register %s", reg.Value))
	}
}

// runtimeError stops the machine with a sticky error at the given span.
func (m *Machine) runtimeError(code gdlkerrors.RuntimeErrorCode, span ast.Span) error {
	m.err = gdlkerrors.NewWithSource(
		[]gdlkerrors.RuntimeError{{Code: code, Span: span}}, m.source,
	)
	return m.err
}

// ExecuteNext executes the next instruction.
//
// Returns (true, nil) if an instruction executed, (false, nil) if the machine
// had already terminated, and (false, err) if the instruction failed. The
// error is also stored on the machine; further calls are no-ops.
func (m *Machine) ExecuteNext() (bool, error) {
	if m.err != nil || m.pc >= len(m.program.Instructions) {
		return false, nil
	}
	node := m.program.Instructions[m.pc]

	// Infinite-loop guard. The instruction we were about to run gets the
	// blame, and does not count as a cycle.
	if m.cycleCount >= m.maxCycles {
		return false, m.runtimeError(gdlkerrors.ErrTooManyCycles, node.Span)
	}

	// Count the cycle up front so a failing instruction still counts.
	m.cycleCount++

	ins := node.Value
	span := node.Span
	jump := false
	switch ins.Op {
	case ast.OpRead:
		if len(m.input) == 0 {
			return false, m.runtimeError(gdlkerrors.ErrEmptyInput, span)
		}
		val := m.input[0]
		m.input = m.input[1:]
		m.setReg(ins.Dst, val)

	case ast.OpWrite:
		m.output = append(m.output, m.getVal(ins.Src))

	case ast.OpSet:
		m.setReg(ins.Dst, m.getVal(ins.Src))

	case ast.OpAdd:
		m.setReg(ins.Dst, m.getReg(ins.Dst.Value)+m.getVal(ins.Src))

	case ast.OpSub:
		m.setReg(ins.Dst, m.getReg(ins.Dst.Value)-m.getVal(ins.Src))

	case ast.OpMul:
		m.setReg(ins.Dst, m.getReg(ins.Dst.Value)*m.getVal(ins.Src))

	case ast.OpDiv:
		divisor := m.getVal(ins.Src)
		if divisor == 0 {
			return false, m.runtimeError(gdlkerrors.ErrDivideByZero, span)
		}
		// MinInt32 / -1 wraps back to MinInt32, consistent with the other
		// arithmetic ops
		m.setReg(ins.Dst, m.getReg(ins.Dst.Value)/divisor)

	case ast.OpCmp:
		a := m.getVal(ins.Src)
		b := m.getVal(ins.Src2)
		var cmp ast.LangValue
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
		m.setReg(ins.Dst, cmp)

	case ast.OpPush:
		stack := m.stacks[ins.Stack.Value.Index]
		if len(stack) >= m.hw.MaxStackLength {
			return false, m.runtimeError(gdlkerrors.ErrStackOverflow, ins.Stack.Span)
		}
		m.stacks[ins.Stack.Value.Index] = append(stack, m.getVal(ins.Src))

	case ast.OpPop:
		stack := m.stacks[ins.Stack.Value.Index]
		if len(stack) == 0 {
			return false, m.runtimeError(gdlkerrors.ErrEmptyStack, ins.Stack.Span)
		}
		val := stack[len(stack)-1]
		m.stacks[ins.Stack.Value.Index] = stack[:len(stack)-1]
		m.setReg(ins.Dst, val)

	case ast.OpJmp:
		jump = true
	case ast.OpJez:
		jump = m.getVal(ins.Src) == 0
	case ast.OpJnz:
		jump = m.getVal(ins.Src) != 0
	case ast.OpJlz:
		jump = m.getVal(ins.Src) < 0
	case ast.OpJgz:
		jump = m.getVal(ins.Src) > 0

	default:
		panic(fmt.Sprintf("unknown opcode %d", ins.Op))
	}

	if jump {
		target, ok := m.program.SymbolTable[ins.Label.Value]
		if !ok {
			// A missing label here is a compiler bug, not a user error.
			panic(fmt.Sprintf("unknown label: %s", ins.Label.Value))
		}
		m.pc = target
	} else {
		m.pc++
	}

	log.Trace(log.MachineModule, "executed instruction",
		"instr", ins.String(), "pc", m.pc, "cycle", m.cycleCount)
	return true, nil
}

// ExecuteAll steps the machine until it terminates. Returns Successful on
// clean termination, or the sticky runtime error.
func (m *Machine) ExecuteAll() (bool, error) {
	for !m.Terminated() {
		if _, err := m.ExecuteNext(); err != nil {
			return false, err
		}
	}
	if m.err != nil {
		return false, m.err
	}
	return m.Successful(), nil
}

// Terminated reports whether execution is over, either by running off the
// end of the program or by a runtime error.
func (m *Machine) Terminated() bool {
	return m.pc >= len(m.program.Instructions) || m.err != nil
}

// Successful reports whether the machine terminated with no failure.
func (m *Machine) Successful() bool {
	return m.Terminated() && m.FailureReason() == FailureNone
}

// FailureReason says why a terminated machine failed. Returns FailureNone
// while the machine is still running, and also when it succeeded.
func (m *Machine) FailureReason() FailureReason {
	switch {
	case !m.Terminated():
		return FailureNone
	case m.err != nil:
		return FailureRuntimeError
	case len(m.input) > 0:
		return FailureRemainingInput
	case !equalValues(m.output, m.expectedOutput):
		return FailureIncorrectOutput
	default:
		return FailureNone
	}
}

func equalValues(a, b []ast.LangValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SourceCode returns the source the running program was compiled from.
func (m *Machine) SourceCode() string { return m.source }

// Instructions returns the instruction sequence being executed.
func (m *Machine) Instructions() []ast.Node[ast.Instruction] {
	return m.program.Instructions
}

// ProgramCounter returns the index of the next instruction to execute.
func (m *Machine) ProgramCounter() int { return m.pc }

// CycleCount returns the number of instructions executed so far.
func (m *Machine) CycleCount() int { return m.cycleCount }

// Input returns the unread remainder of the input buffer.
func (m *Machine) Input() []ast.LangValue { return m.input }

// Output returns the output buffer written so far.
func (m *Machine) Output() []ast.LangValue { return m.output }

// Registers returns the current value of every register on this hardware,
// including the read-only views.
func (m *Machine) Registers() map[ast.RegisterRef]ast.LangValue {
	regs := make(map[ast.RegisterRef]ast.LangValue)
	for _, ref := range m.hw.AllRegisterRefs() {
		regs[ref] = m.getReg(ref)
	}
	return regs
}

// Stacks returns the current contents of every stack on this hardware.
// Element 0 is the bottom.
func (m *Machine) Stacks() map[ast.StackRef][]ast.LangValue {
	stacks := make(map[ast.StackRef][]ast.LangValue)
	for _, ref := range m.hw.AllStackRefs() {
		stacks[ref] = m.stacks[ref.Index]
	}
	return stacks
}

// Err returns the runtime error that halted the machine, or nil.
func (m *Machine) Err() *gdlkerrors.WithSource {
	return m.err
}
