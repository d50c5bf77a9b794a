// Package types holds the configuration values a GDLK program is compiled
// and executed under: the hardware profile and the per-task program spec.
// Both are plain data, validated once at construction and immutable after.
package types

import (
	"fmt"

	"github.com/LucasPickering/gdlk-sub000/ast"
)

// Hard limits on hardware profiles and task buffers. Out-of-range values
// fail construction; nothing is ever clamped.
const (
	MinNumRegisters   = 1
	MaxNumRegisters   = 16
	MaxNumStacks      = 16
	MaxStackLength    = 256
	MaxIOBufferLength = 256
)

// HardwareSpec defines the computing resources a program can use. It is
// consumed both at compile time (reference validation) and at allocation
// time (sizing machine state).
type HardwareSpec struct {
	// NumRegisters is the number of user registers (RX0..RXn-1).
	NumRegisters int `json:"num_registers" yaml:"num_registers"`
	// NumStacks is the number of stacks (S0..Sn-1).
	NumStacks int `json:"num_stacks" yaml:"num_stacks"`
	// MaxStackLength caps the length of every stack.
	MaxStackLength int `json:"max_stack_length" yaml:"max_stack_length"`
}

// NewHardwareSpec builds a validated hardware spec.
func NewHardwareSpec(numRegisters, numStacks, maxStackLength int) (HardwareSpec, error) {
	spec := HardwareSpec{
		NumRegisters:   numRegisters,
		NumStacks:      numStacks,
		MaxStackLength: maxStackLength,
	}
	if err := spec.Validate(); err != nil {
		return HardwareSpec{}, err
	}
	return spec, nil
}

// DefaultHardwareSpec is the minimal profile: one register, no stacks.
func DefaultHardwareSpec() HardwareSpec {
	return HardwareSpec{NumRegisters: 1, NumStacks: 0, MaxStackLength: 0}
}

// Validate checks every field against its permitted range.
func (s HardwareSpec) Validate() error {
	if s.NumRegisters < MinNumRegisters || s.NumRegisters > MaxNumRegisters {
		return fmt.Errorf(
			"num_registers must be in [%d, %d], got %d",
			MinNumRegisters, MaxNumRegisters, s.NumRegisters,
		)
	}
	if s.NumStacks < 0 || s.NumStacks > MaxNumStacks {
		return fmt.Errorf(
			"num_stacks must be in [0, %d], got %d", MaxNumStacks, s.NumStacks,
		)
	}
	if s.MaxStackLength < 0 || s.MaxStackLength > MaxStackLength {
		return fmt.Errorf(
			"max_stack_length must be in [0, %d], got %d",
			MaxStackLength, s.MaxStackLength,
		)
	}
	return nil
}

// AllRegisterRefs lists every register this hardware exposes, in display
// order: RLI, then the stack-length registers, then the user registers.
func (s HardwareSpec) AllRegisterRefs() []ast.RegisterRef {
	refs := make([]ast.RegisterRef, 0, 1+s.NumStacks+s.NumRegisters)
	refs = append(refs, ast.InputLengthRegister())
	for i := 0; i < s.NumStacks; i++ {
		refs = append(refs, ast.StackLengthRegister(i))
	}
	for i := 0; i < s.NumRegisters; i++ {
		refs = append(refs, ast.UserRegister(i))
	}
	return refs
}

// AllStackRefs lists every stack this hardware exposes.
func (s HardwareSpec) AllStackRefs() []ast.StackRef {
	refs := make([]ast.StackRef, s.NumStacks)
	for i := range refs {
		refs[i] = ast.StackRef{Index: i}
	}
	return refs
}

// ProgramSpec defines one task instance: the input a program consumes and
// the output it must produce to count as successful. Independent of any
// hardware spec; consumed only when a machine is allocated.
type ProgramSpec struct {
	// Input values; element 0 is read first.
	Input []ast.LangValue `json:"input" yaml:"input"`
	// ExpectedOutput is compared against the machine's output buffer once
	// the program terminates.
	ExpectedOutput []ast.LangValue `json:"expected_output" yaml:"expected_output"`
}

// NewProgramSpec builds a validated program spec.
func NewProgramSpec(input, expectedOutput []ast.LangValue) (ProgramSpec, error) {
	spec := ProgramSpec{Input: input, ExpectedOutput: expectedOutput}
	if err := spec.Validate(); err != nil {
		return ProgramSpec{}, err
	}
	return spec, nil
}

// DefaultProgramSpec is the empty task: no input, no expected output.
func DefaultProgramSpec() ProgramSpec {
	return ProgramSpec{}
}

// Validate checks the buffer length bounds.
func (s ProgramSpec) Validate() error {
	if len(s.Input) > MaxIOBufferLength {
		return fmt.Errorf(
			"input length must be <= %d, got %d",
			MaxIOBufferLength, len(s.Input),
		)
	}
	if len(s.ExpectedOutput) > MaxIOBufferLength {
		return fmt.Errorf(
			"expected_output length must be <= %d, got %d",
			MaxIOBufferLength, len(s.ExpectedOutput),
		)
	}
	return nil
}
