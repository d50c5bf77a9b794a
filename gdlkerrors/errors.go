// Package gdlkerrors defines the two user-facing error taxonomies of the
// GDLK toolchain. Compile errors cover everything caught before execution;
// runtime errors cover failures while executing a valid program. The two are
// never mixed in one collection. Internal invariant violations are not
// errors at all: the compiler and machine panic on those.
package gdlkerrors

import (
	"fmt"

	"github.com/LucasPickering/gdlk-sub000/ast"
)

// CompileErrorCode tags the compile-time error variants.
type CompileErrorCode uint8

const (
	// ErrSyntax means the source failed to parse. Only ever reported alone.
	ErrSyntax CompileErrorCode = iota + 1
	// ErrInvalidRegisterRef references a register the hardware doesn't have.
	ErrInvalidRegisterRef
	// ErrInvalidStackRef references a stack the hardware doesn't have.
	ErrInvalidStackRef
	// ErrUnwritableRegister uses a read-only register as a destination.
	ErrUnwritableRegister
	// ErrDuplicateLabel declares the same label twice.
	ErrDuplicateLabel
	// ErrInvalidLabel jumps to a label that was never declared.
	ErrInvalidLabel
)

// CompileError is one user-authoring mistake found before execution.
type CompileError struct {
	Code CompileErrorCode
	// Span of the offending source.
	Span ast.Span
	// Expected names the construct the parser wanted. Set for ErrSyntax.
	Expected string
	// Original is the first declaration's span. Set for ErrDuplicateLabel.
	Original ast.Span
}

// TypeLabel returns the error-kind prefix used in rendered messages.
func (e CompileError) TypeLabel() string {
	if e.Code == ErrSyntax {
		return "Syntax"
	}
	return "Validation"
}

// ErrSpan returns the source span this error points at.
func (e CompileError) ErrSpan() ast.Span { return e.Span }

// Message renders the human-readable body of the error. spannedSrc is the
// slice of source covered by the error's span.
func (e CompileError) Message(spannedSrc string) string {
	switch e.Code {
	case ErrSyntax:
		return fmt.Sprintf("Expected %s", e.Expected)
	case ErrInvalidRegisterRef:
		return fmt.Sprintf("Invalid reference to register `%s`", spannedSrc)
	case ErrInvalidStackRef:
		return fmt.Sprintf("Invalid reference to stack `%s`", spannedSrc)
	case ErrUnwritableRegister:
		return fmt.Sprintf("Cannot write to read-only register `%s`", spannedSrc)
	case ErrDuplicateLabel:
		return fmt.Sprintf(
			"Duplicate declaration of label `%s`, originally defined on line %d",
			spannedSrc, e.Original.StartLine,
		)
	case ErrInvalidLabel:
		return fmt.Sprintf("Invalid reference to label `%s`", spannedSrc)
	default:
		panic(fmt.Sprintf("unknown compile error code %d", e.Code))
	}
}

// RuntimeErrorCode tags the runtime error variants.
type RuntimeErrorCode uint8

const (
	// ErrDivideByZero is a DIV with a zero divisor.
	ErrDivideByZero RuntimeErrorCode = iota + 1
	// ErrEmptyInput is a READ while the input buffer is empty.
	ErrEmptyInput
	// ErrStackOverflow is a PUSH onto a stack at capacity.
	ErrStackOverflow
	// ErrEmptyStack is a POP from an empty stack.
	ErrEmptyStack
	// ErrTooManyCycles means the cycle ceiling was hit before this
	// instruction could run.
	ErrTooManyCycles
)

// RuntimeError is one failure during execution of a valid program. Exactly
// one is produced per failing run; the machine stores it sticky.
type RuntimeError struct {
	Code RuntimeErrorCode
	Span ast.Span
}

func (e RuntimeError) TypeLabel() string { return "Runtime" }

func (e RuntimeError) ErrSpan() ast.Span { return e.Span }

func (e RuntimeError) Message(spannedSrc string) string {
	switch e.Code {
	case ErrDivideByZero:
		return "Divide by zero"
	case ErrEmptyInput:
		return "Read attempted while input is empty"
	case ErrStackOverflow:
		return fmt.Sprintf("Overflow on stack `%s`", spannedSrc)
	case ErrEmptyStack:
		return fmt.Sprintf("Cannot pop from empty stack `%s`", spannedSrc)
	case ErrTooManyCycles:
		return fmt.Sprintf(
			"Maximum number of cycles reached, cannot execute instruction `%s`",
			spannedSrc,
		)
	default:
		panic(fmt.Sprintf("unknown runtime error code %d", e.Code))
	}
}
