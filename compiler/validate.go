package compiler

import (
	"github.com/LucasPickering/gdlk-sub000/ast"
	"github.com/LucasPickering/gdlk-sub000/gdlkerrors"
	"github.com/LucasPickering/gdlk-sub000/types"
)

// validator holds the state shared across the two validation passes: the
// hardware being compiled for, the label map built in pass 1, the running
// reference statistics, and the accumulated errors. Validation never stops
// at the first error; the caller gets every defect in one pass.
type validator struct {
	hw     types.HardwareSpec
	labels map[string]ast.Span
	stats  ast.ProgramStats
	errs   []gdlkerrors.CompileError
}

// validate performs all static checks on a parsed program. On success the
// program is returned untouched along with its reference statistics. On
// failure every accumulated error is returned; the statistics are discarded
// since they may describe a nonsense program.
func validate(
	program *ast.SourceProgram, hw types.HardwareSpec,
) (ast.ProgramStats, []gdlkerrors.CompileError) {
	v := &validator{
		hw:    hw,
		stats: ast.NewProgramStats(),
	}
	v.collectLabels(program.Body)
	for _, stmt := range program.Body {
		if stmt.Value.Instr != nil {
			v.instruction(stmt.Value.Instr.Value)
		}
	}
	return v.stats, v.errs
}

func (v *validator) errorAt(code gdlkerrors.CompileErrorCode, span ast.Span) {
	v.errs = append(v.errs, gdlkerrors.CompileError{Code: code, Span: span})
}

// collectLabels is pass 1: build the label -> declaration-span map and flag
// every redeclaration against the first occurrence.
func (v *validator) collectLabels(body []ast.Node[ast.Statement]) {
	v.labels = make(map[string]ast.Span)
	for _, stmt := range body {
		if stmt.Value.Label == nil {
			continue
		}
		name := stmt.Value.Label.Value
		span := stmt.Value.Label.Span
		if original, ok := v.labels[name]; ok {
			v.errs = append(v.errs, gdlkerrors.CompileError{
				Code:     gdlkerrors.ErrDuplicateLabel,
				Span:     span,
				Original: original,
			})
		} else {
			v.labels[name] = span
		}
	}
}

// instruction is pass 2 for one statement: check every operand against the
// hardware and the label map, recording references as we go.
func (v *validator) instruction(ins ast.Instruction) {
	switch ins.Op {
	case ast.OpRead:
		v.register(ins.Dst)
		v.writable(ins.Dst)
	case ast.OpWrite:
		v.valueSource(ins.Src)
	case ast.OpSet, ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		v.register(ins.Dst)
		v.writable(ins.Dst)
		v.valueSource(ins.Src)
	case ast.OpCmp:
		v.register(ins.Dst)
		v.writable(ins.Dst)
		v.valueSource(ins.Src)
		v.valueSource(ins.Src2)
	case ast.OpPush:
		v.valueSource(ins.Src)
		v.stack(ins.Stack)
	case ast.OpPop:
		v.stack(ins.Stack)
		v.register(ins.Dst)
		v.writable(ins.Dst)
	case ast.OpJmp:
		v.label(ins.Label)
	case ast.OpJez, ast.OpJnz, ast.OpJlz, ast.OpJgz:
		v.valueSource(ins.Src)
		v.label(ins.Label)
	}
}

// register checks that a register reference exists on this hardware.
// Null and RLI always do; RSx needs a real stack, RXx a real register.
// The reference is recorded in the stats whether or not it is valid.
func (v *validator) register(reg ast.Node[ast.RegisterRef]) {
	v.stats.AddRegisterRef(reg.Value)
	switch reg.Value.Kind {
	case ast.RegStackLength:
		if reg.Value.Index >= v.hw.NumStacks {
			v.errorAt(gdlkerrors.ErrInvalidRegisterRef, reg.Span)
		}
	case ast.RegUser:
		if reg.Value.Index >= v.hw.NumRegisters {
			v.errorAt(gdlkerrors.ErrInvalidRegisterRef, reg.Span)
		}
	}
}

// writable checks that a destination register accepts writes. Read-only
// views (RLI, RSx) cannot be written, even when they exist.
func (v *validator) writable(reg ast.Node[ast.RegisterRef]) {
	if !reg.Value.Writable() {
		v.errorAt(gdlkerrors.ErrUnwritableRegister, reg.Span)
	}
}

// valueSource checks a read operand. Constants are always fine; registers
// go through the usual existence check.
func (v *validator) valueSource(src ast.Node[ast.ValueSource]) {
	if !src.Value.IsConst {
		v.register(src.Value.Register)
	}
}

// stack checks a stack reference against the hardware's stack count.
func (v *validator) stack(stack ast.Node[ast.StackRef]) {
	v.stats.AddStackRef(stack.Value)
	if stack.Value.Index >= v.hw.NumStacks {
		v.errorAt(gdlkerrors.ErrInvalidStackRef, stack.Span)
	}
}

// label checks that a jump target was declared in pass 1.
func (v *validator) label(label ast.Node[string]) {
	if _, ok := v.labels[label.Value]; !ok {
		v.errorAt(gdlkerrors.ErrInvalidLabel, label.Span)
	}
}
