package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanEndColumns(t *testing.T) {
	span := NewSpan(10, 3, 2, 5)
	assert.Equal(t, 2, span.EndLine)
	assert.Equal(t, 8, span.EndCol)

	pos := Position(0, 1, 1)
	assert.Equal(t, 0, pos.Length)
	assert.Equal(t, pos.StartCol, pos.EndCol)
}

func TestSpanSourceSlice(t *testing.T) {
	src := "READ RX0"
	assert.Equal(t, "RX0", NewSpan(5, 3, 1, 6).SourceSlice(src))
	assert.Equal(t, "", Position(8, 1, 9).SourceSlice(src))
	// Out of range slices come back empty instead of panicking
	assert.Equal(t, "", NewSpan(6, 10, 1, 7).SourceSlice(src))
}

func TestRegisterRefString(t *testing.T) {
	assert.Equal(t, "RZR", NullRegister().String())
	assert.Equal(t, "RLI", InputLengthRegister().String())
	assert.Equal(t, "RS3", StackLengthRegister(3).String())
	assert.Equal(t, "RX12", UserRegister(12).String())
}

func TestRegisterRefWritable(t *testing.T) {
	assert.True(t, NullRegister().Writable())
	assert.True(t, UserRegister(0).Writable())
	assert.False(t, InputLengthRegister().Writable())
	assert.False(t, StackLengthRegister(0).Writable())
}

func TestInstructionString(t *testing.T) {
	rx0 := Node[RegisterRef]{Value: UserRegister(0)}
	five := ConstSource(Node[LangValue]{Value: 5})
	negOne := ConstSource(Node[LangValue]{Value: -1})
	rliSrc := RegisterSource(Node[RegisterRef]{Value: InputLengthRegister()})

	testCases := []struct {
		instr    Instruction
		expected string
	}{
		{Instruction{Op: OpRead, Dst: rx0}, "READ RX0"},
		{Instruction{Op: OpWrite, Src: Node[ValueSource]{Value: rliSrc}}, "WRITE RLI"},
		{Instruction{Op: OpSet, Dst: rx0, Src: Node[ValueSource]{Value: five}}, "SET RX0 5"},
		{Instruction{Op: OpDiv, Dst: rx0, Src: Node[ValueSource]{Value: negOne}}, "DIV RX0 -1"},
		{
			Instruction{
				Op:   OpCmp,
				Dst:  rx0,
				Src:  Node[ValueSource]{Value: five},
				Src2: Node[ValueSource]{Value: negOne},
			},
			"CMP RX0 5 -1",
		},
		{
			Instruction{Op: OpPush, Src: Node[ValueSource]{Value: five}, Stack: Node[StackRef]{Value: StackRef{Index: 1}}},
			"PUSH 5 S1",
		},
		{
			Instruction{Op: OpPop, Stack: Node[StackRef]{Value: StackRef{Index: 0}}, Dst: rx0},
			"POP S0 RX0",
		},
		{Instruction{Op: OpJmp, Label: Node[string]{Value: "START"}}, "JMP START"},
		{
			Instruction{Op: OpJgz, Src: Node[ValueSource]{Value: five}, Label: Node[string]{Value: "LOOP"}},
			"JGZ 5 LOOP",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.instr.String())
		})
	}
}

func TestOpcodeIsJump(t *testing.T) {
	for _, op := range []Opcode{OpJmp, OpJez, OpJnz, OpJlz, OpJgz} {
		assert.True(t, op.IsJump(), op.String())
	}
	for _, op := range []Opcode{OpRead, OpWrite, OpSet, OpAdd, OpCmp, OpPush, OpPop} {
		assert.False(t, op.IsJump(), op.String())
	}
}

func TestProgramStats(t *testing.T) {
	stats := NewProgramStats()
	stats.AddRegisterRef(UserRegister(0))
	stats.AddRegisterRef(UserRegister(0))
	stats.AddRegisterRef(UserRegister(1))
	stats.AddRegisterRef(StackLengthRegister(0))
	stats.AddStackRef(StackRef{Index: 0})
	stats.AddStackRef(StackRef{Index: 0})

	prog := CompiledProgram{Stats: stats}
	assert.Equal(t, 2, prog.NumUserRegistersReferenced())
	assert.Equal(t, 1, prog.NumStacksReferenced())
	assert.Equal(t, 0, prog.NumInstructions())
}
