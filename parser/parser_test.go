package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasPickering/gdlk-sub000/ast"
	"github.com/LucasPickering/gdlk-sub000/gdlkerrors"
)

// parseOK parses source and fails the test on any syntax error.
func parseOK(t *testing.T, source string) *ast.SourceProgram {
	t.Helper()
	prog, err := Parse(source)
	require.Nil(t, err, "unexpected parse error")
	return prog
}

// parseErr parses source, expecting a syntax error, and renders it the way
// the compiler would so tests can assert on the full user-facing string.
func parseErr(t *testing.T, source string) string {
	t.Helper()
	_, err := Parse(source)
	require.NotNil(t, err, "expected a parse error")
	return gdlkerrors.NewWithSource([]gdlkerrors.CompileError{*err}, source).Error()
}

func TestParseSimpleProgram(t *testing.T) {
	prog := parseOK(t, "READ RX0\nWRITE RX0")
	require.Len(t, prog.Body, 2)

	read := prog.Body[0].Value.Instr
	require.NotNil(t, read)
	assert.Equal(t, ast.OpRead, read.Value.Op)
	assert.Equal(t, ast.UserRegister(0), read.Value.Dst.Value)

	write := prog.Body[1].Value.Instr
	require.NotNil(t, write)
	assert.Equal(t, ast.OpWrite, write.Value.Op)
	assert.Equal(t, ast.UserRegister(0), write.Value.Src.Value.Register.Value)
}

func TestParseSpans(t *testing.T) {
	prog := parseOK(t, "READ RX0\n  WRITE 5")
	require.Len(t, prog.Body, 2)

	span := prog.Body[0].Span
	assert.Equal(t, 0, span.Offset)
	assert.Equal(t, 8, span.Length)
	assert.Equal(t, 1, span.StartLine)
	assert.Equal(t, 1, span.StartCol)
	assert.Equal(t, 9, span.EndCol)

	span = prog.Body[1].Span
	assert.Equal(t, 11, span.Offset)
	assert.Equal(t, 7, span.Length)
	assert.Equal(t, 2, span.StartLine)
	assert.Equal(t, 3, span.StartCol)

	// Operand tokens carry their own spans
	dst := prog.Body[0].Value.Instr.Value.Dst.Span
	assert.Equal(t, 5, dst.Offset)
	assert.Equal(t, 3, dst.Length)
	assert.Equal(t, 6, dst.StartCol)
}

func TestParseEveryInstruction(t *testing.T) {
	source := `
	READ RX0
	WRITE RX0
	SET RX0 5
	ADD RX0 RX1
	SUB RX0 -3
	MUL RX0 RLI
	DIV RX0 2
	CMP RX0 RX1 5
	PUSH RX0 S0
	POP S0 RX0
	LOOP:
	JMP LOOP
	JEZ RX0 LOOP
	JNZ RX0 LOOP
	JLZ RX0 LOOP
	JGZ RX0 LOOP
	`
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 16)

	ops := []ast.Opcode{
		ast.OpRead, ast.OpWrite, ast.OpSet, ast.OpAdd, ast.OpSub,
		ast.OpMul, ast.OpDiv, ast.OpCmp, ast.OpPush, ast.OpPop,
	}
	for i, op := range ops {
		require.NotNil(t, prog.Body[i].Value.Instr, "statement %d", i)
		assert.Equal(t, op, prog.Body[i].Value.Instr.Value.Op)
	}

	label := prog.Body[10].Value.Label
	require.NotNil(t, label)
	assert.Equal(t, "LOOP", label.Value)

	jumps := []ast.Opcode{ast.OpJmp, ast.OpJez, ast.OpJnz, ast.OpJlz, ast.OpJgz}
	for i, op := range jumps {
		instr := prog.Body[11+i].Value.Instr
		require.NotNil(t, instr)
		assert.Equal(t, op, instr.Value.Op)
		assert.Equal(t, "LOOP", instr.Value.Label.Value)
	}
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	prog := parseOK(t, "read rx0\nWrItE rLi\nset RX1 rs0")
	require.Len(t, prog.Body, 3)
	assert.Equal(t, ast.UserRegister(0), prog.Body[0].Value.Instr.Value.Dst.Value)
	assert.Equal(t, ast.InputLengthRegister(), prog.Body[1].Value.Instr.Value.Src.Value.Register.Value)
	assert.Equal(t, ast.StackLengthRegister(0), prog.Body[2].Value.Instr.Value.Src.Value.Register.Value)
}

func TestParseCaseSensitiveLabels(t *testing.T) {
	// Labels keep their case; "loop" and "LOOP" are distinct
	prog := parseOK(t, "loop:\nLOOP:\nJMP loop")
	require.Len(t, prog.Body, 3)
	assert.Equal(t, "loop", prog.Body[0].Value.Label.Value)
	assert.Equal(t, "LOOP", prog.Body[1].Value.Label.Value)
	assert.Equal(t, "loop", prog.Body[2].Value.Instr.Value.Label.Value)
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	source := `
; leading comment

READ RX0   ; trailing comment
;WRITE RX0
   ` + "\t" + `
WRITE RX0
`
	prog := parseOK(t, source)
	require.Len(t, prog.Body, 2)
	assert.Equal(t, ast.OpRead, prog.Body[0].Value.Instr.Value.Op)
	assert.Equal(t, ast.OpWrite, prog.Body[1].Value.Instr.Value.Op)
}

func TestParseConstants(t *testing.T) {
	testCases := []struct {
		source   string
		expected ast.LangValue
	}{
		{"SET RX0 0", 0},
		{"SET RX0 -10", -10},
		{"SET RX0 007", 7}, // leading zeros are fine for constants
		{"SET RX0 2147483647", 2147483647},
		{"SET RX0 -2147483648", -2147483648},
	}
	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			prog := parseOK(t, tc.source)
			src := prog.Body[0].Value.Instr.Value.Src.Value
			require.True(t, src.IsConst)
			assert.Equal(t, tc.expected, src.Const.Value)
		})
	}
}

func TestParseDigitLabels(t *testing.T) {
	// Labels may start with a digit
	prog := parseOK(t, "1START:\nJMP 1START")
	require.Len(t, prog.Body, 2)
	assert.Equal(t, "1START", prog.Body[0].Value.Label.Value)
	assert.Equal(t, "1START", prog.Body[1].Value.Instr.Value.Label.Value)
}

func TestParseCRLF(t *testing.T) {
	prog := parseOK(t, "READ RX0\r\nWRITE RX0\r\n")
	require.Len(t, prog.Body, 2)
	assert.Equal(t, 2, prog.Body[1].Span.StartLine)
	assert.Equal(t, 1, prog.Body[1].Span.StartCol)
}

func TestParseErrorsRegisters(t *testing.T) {
	assert.Equal(t,
		"Syntax error at 3:14: Expected register reference",
		parseErr(t, "\n        READ RX0\n        READ RW0\n        READ RX0\n        "))
	assert.Equal(t,
		"Syntax error at 1:5: Expected register reference",
		parseErr(t, "READ"))
	assert.Equal(t,
		"Syntax error at 1:6: Expected value",
		parseErr(t, "WRITE"))
	assert.Equal(t,
		"Syntax error at 1:6: Expected register reference",
		parseErr(t, "READ RW0"))
	assert.Equal(t,
		"Syntax error at 1:6: Expected register reference",
		parseErr(t, "READ RX01"))
}

func TestParseErrorsStacks(t *testing.T) {
	assert.Equal(t,
		"Syntax error at 1:10: Expected stack reference",
		parseErr(t, "PUSH RX0 T0"))
	assert.Equal(t,
		"Syntax error at 1:10: Expected stack reference",
		parseErr(t, "PUSH RX0 S01"))
}

func TestParseErrorsSimpleInstructions(t *testing.T) {
	assert.Equal(t,
		"Syntax error at 1:1: Expected statement",
		parseErr(t, "RAD RX0"))
	assert.Equal(t,
		"Syntax error at 1:1: Expected statement",
		parseErr(t, "READE RX0"))
	assert.Equal(t,
		"Syntax error at 1:6: Expected value",
		parseErr(t, "PUSH STEVE S0"))
	assert.Equal(t,
		"Syntax error at 1:10: Expected end of statement",
		parseErr(t, "READ RX1 WRITE RX2"))
}

func TestParseErrorsJumps(t *testing.T) {
	assert.Equal(t,
		"Syntax error at 1:4: Expected label",
		parseErr(t, "JMP"))
	assert.Equal(t,
		"Syntax error at 1:4: Expected value",
		parseErr(t, "JEZ"))
	assert.Equal(t,
		"Syntax error at 1:8: Expected label",
		parseErr(t, "JEZ RX0"))
	assert.Equal(t,
		"Syntax error at 1:5: Expected value",
		parseErr(t, "JEZ RW0 LABEL"))
	assert.Equal(t,
		"Syntax error at 1:7: Expected end of statement",
		parseErr(t, "LABEL:JMP LABEL"))
	assert.Equal(t,
		"Syntax error at 1:4: Expected label",
		parseErr(t, "JMP BAD-LABEL"))
	assert.Equal(t,
		"Syntax error at 1:1: Expected statement",
		parseErr(t, "BAD-LABEL:"))
}

func TestParseErrorsConstants(t *testing.T) {
	// Float constants
	assert.Equal(t,
		"Syntax error at 1:8: Expected value",
		parseErr(t, "SET RX0 10.5"))

	// Out-of-range constants
	assert.Equal(t,
		"Syntax error at 1:9: Expected value",
		parseErr(t, fmt.Sprintf("SET RX0 %d", int64(2147483647)+1)))
	assert.Equal(t,
		"Syntax error at 1:9: Expected value",
		parseErr(t, fmt.Sprintf("SET RX0 %d", int64(-2147483648)-1)))
}

func TestParseEmptyFile(t *testing.T) {
	assert.Equal(t,
		"Syntax error at 1:1: Expected program",
		parseErr(t, ""))
	assert.Equal(t,
		"Syntax error at 1:1: Expected program",
		parseErr(t, "    \n\n\t"))
	assert.Equal(t,
		"Syntax error at 1:1: Expected program",
		parseErr(t, "; only comments\n; in here"))
}
