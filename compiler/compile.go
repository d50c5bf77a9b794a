// Package compiler turns GDLK source into an executable program. Compilation
// runs the full front end in order: parse, validate against a hardware spec,
// then delabel into the flat form the machine executes. Parsing stops at the
// first syntax error; validation collects every semantic error it can find.
package compiler

import (
	"github.com/LucasPickering/gdlk-sub000/ast"
	"github.com/LucasPickering/gdlk-sub000/gdlkerrors"
	"github.com/LucasPickering/gdlk-sub000/log"
	"github.com/LucasPickering/gdlk-sub000/machine"
	"github.com/LucasPickering/gdlk-sub000/parser"
	"github.com/LucasPickering/gdlk-sub000/types"
)

// Program is a successfully compiled GDLK program, bound to the hardware it
// was compiled for. It is immutable; any number of machines can be allocated
// from it.
type Program struct {
	hw       types.HardwareSpec
	source   string
	compiled ast.CompiledProgram
}

// Compile builds a program from source for the given hardware. On failure the
// returned error is a *gdlkerrors.WithSource carrying every compile error
// found, each positioned in the original source.
func Compile(source string, hw types.HardwareSpec) (*Program, error) {
	parsed, perr := parser.Parse(source)
	if perr != nil {
		return nil, gdlkerrors.NewWithSource([]gdlkerrors.CompileError{*perr}, source)
	}
	log.Debug(log.CompilerModule, "parsed program", "statements", len(parsed.Body))

	stats, verrs := validate(parsed, hw)
	if len(verrs) > 0 {
		return nil, gdlkerrors.NewWithSource(verrs, source)
	}

	compiled := delabel(parsed, stats)
	log.Debug(log.CompilerModule, "compiled program",
		"instructions", len(compiled.Instructions),
		"labels", len(compiled.SymbolTable))
	return &Program{hw: hw, source: source, compiled: compiled}, nil
}

// Allocate creates a fresh machine running this program against the given
// input/output pair, with the default cycle ceiling.
func (p *Program) Allocate(spec types.ProgramSpec) *machine.Machine {
	return p.AllocateWithLimit(spec, machine.DefaultMaxCycles)
}

// AllocateWithLimit is Allocate with an explicit cycle ceiling, for callers
// that want faster infinite-loop detection (or deliberately long runs).
func (p *Program) AllocateWithLimit(spec types.ProgramSpec, maxCycles int) *machine.Machine {
	return machine.New(p.hw, p.source, p.compiled, spec, maxCycles)
}

// Source returns the source text the program was compiled from.
func (p *Program) Source() string { return p.source }

// Instructions returns the delabeled instruction sequence.
func (p *Program) Instructions() []ast.Node[ast.Instruction] {
	return p.compiled.Instructions
}

// SymbolTable maps each label to the absolute instruction index it targets.
func (p *Program) SymbolTable() map[string]int {
	return p.compiled.SymbolTable
}

// NumInstructions counts executable instructions, labels excluded.
func (p *Program) NumInstructions() int {
	return p.compiled.NumInstructions()
}

// NumUserRegistersReferenced counts distinct RX registers the program names.
func (p *Program) NumUserRegistersReferenced() int {
	return p.compiled.NumUserRegistersReferenced()
}

// NumStacksReferenced counts the distinct stacks the program names.
func (p *Program) NumStacksReferenced() int {
	return p.compiled.NumStacksReferenced()
}
