package gdlkerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LucasPickering/gdlk-sub000/ast"
)

func TestCompileErrorRendering(t *testing.T) {
	source := "READ RX9"
	err := CompileError{
		Code: ErrInvalidRegisterRef,
		Span: ast.NewSpan(5, 3, 1, 6),
	}
	wrapped := Wrap(err, source)
	assert.Equal(t,
		"Validation error at 1:6: Invalid reference to register `RX9`",
		wrapped.Error())
}

func TestSyntaxErrorRendering(t *testing.T) {
	err := CompileError{
		Code:     ErrSyntax,
		Expected: "register reference",
		Span:     ast.Position(4, 1, 5),
	}
	wrapped := Wrap(err, "READ")
	assert.Equal(t, "Syntax", err.TypeLabel())
	assert.Equal(t,
		"Syntax error at 1:5: Expected register reference",
		wrapped.Error())
}

func TestDuplicateLabelRendering(t *testing.T) {
	source := "X:\nWRITE 1\nX:"
	err := CompileError{
		Code:     ErrDuplicateLabel,
		Span:     ast.NewSpan(11, 2, 3, 1),
		Original: ast.NewSpan(0, 2, 1, 1),
	}
	wrapped := Wrap(err, source)
	assert.Equal(t,
		"Validation error at 3:1: Duplicate declaration of label `X:`, originally defined on line 1",
		wrapped.Error())
}

func TestRuntimeErrorRendering(t *testing.T) {
	testCases := []struct {
		name     string
		code     RuntimeErrorCode
		source   string
		span     ast.Span
		expected string
	}{
		{
			"divide by zero",
			ErrDivideByZero,
			"DIV RX0 0",
			ast.NewSpan(0, 9, 1, 1),
			"Runtime error at 1:1: Divide by zero",
		},
		{
			"empty input",
			ErrEmptyInput,
			"READ RX0",
			ast.NewSpan(0, 8, 1, 1),
			"Runtime error at 1:1: Read attempted while input is empty",
		},
		{
			"stack overflow",
			ErrStackOverflow,
			"PUSH 1 S0",
			ast.NewSpan(7, 2, 1, 8),
			"Runtime error at 1:8: Overflow on stack `S0`",
		},
		{
			"empty stack",
			ErrEmptyStack,
			"POP S0 RX0",
			ast.NewSpan(4, 2, 1, 5),
			"Runtime error at 1:5: Cannot pop from empty stack `S0`",
		},
		{
			"too many cycles",
			ErrTooManyCycles,
			"JMP START",
			ast.NewSpan(0, 9, 1, 1),
			"Runtime error at 1:1: Maximum number of cycles reached, cannot execute instruction `JMP START`",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := RuntimeError{Code: tc.code, Span: tc.span}
			assert.Equal(t, "Runtime", err.TypeLabel())
			assert.Equal(t, tc.expected, Wrap(err, tc.source).Error())
		})
	}
}

func TestWithSourceJoinsErrors(t *testing.T) {
	source := "SET RLI 5\nSET RS0 5"
	errs := []CompileError{
		{Code: ErrUnwritableRegister, Span: ast.NewSpan(4, 3, 1, 5)},
		{Code: ErrUnwritableRegister, Span: ast.NewSpan(14, 3, 2, 5)},
	}
	ws := NewWithSource(errs, source)
	assert.Equal(t,
		"Validation error at 1:5: Cannot write to read-only register `RLI`\n"+
			"Validation error at 2:5: Cannot write to read-only register `RS0`",
		ws.Error())
}

func TestWithSourceHighlighted(t *testing.T) {
	source := "READ RX0\nREAD RX9"
	errs := []CompileError{
		{Code: ErrInvalidRegisterRef, Span: ast.NewSpan(14, 3, 2, 6)},
	}
	ws := NewWithSource(errs, source)
	assert.Equal(t,
		"Validation error at 2:6: Invalid reference to register `RX9`\n"+
			"    2 | READ RX9\n"+
			"      |      ^^^",
		ws.Highlighted())
}

func TestHighlightedZeroLengthSpan(t *testing.T) {
	// A zero-length span still gets one caret
	errs := []CompileError{
		{Code: ErrSyntax, Expected: "register reference", Span: ast.Position(4, 1, 5)},
	}
	ws := NewWithSource(errs, "READ")
	assert.Equal(t,
		"Syntax error at 1:5: Expected register reference\n"+
			"    1 | READ\n"+
			"      |     ^",
		ws.Highlighted())
}
