package iseq

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yalcin/yarvjit/internal/opcode"
)

func TestBuilderRoundTripsThroughAddr2Insn(t *testing.T) {
	b := NewBuilder("plus_one", 2, 1, 1)
	b.Emit(opcode.OpGetLocalWC0, 0)
	b.Emit(opcode.OpPutObjectInt2Fix1)
	b.Emit(opcode.OpOptPlus, 0xcafe, 0xbabe)
	b.Emit(opcode.OpLeave)
	seq := b.Build()

	require.Equal(t, 1, seq.LocalSize)
	require.Equal(t, 1, seq.ArgSize)

	op, err := seq.Addr2Insn(0)
	require.NoError(t, err)
	require.Equal(t, opcode.OpGetLocalWC0, op)

	operand, err := seq.Operand(0, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), operand)
}

func TestJSONRoundTrip(t *testing.T) {
	b := NewBuilder("guarded_return", 2, 1, 1)
	b.Emit(opcode.OpGetLocalWC0, 0)
	b.Emit(opcode.OpBranchUnless, 3)
	b.Emit(opcode.OpPutObjectInt2Fix1)
	b.Emit(opcode.OpLeave)
	b.Emit(opcode.OpPutObjectInt2Fix0)
	b.Emit(opcode.OpLeave)
	original := b.Build()

	data, err := original.MarshalJSON()
	require.NoError(t, err)

	var decoded ISeq
	require.NoError(t, decoded.UnmarshalJSON(data))

	require.Equal(t, original.Name, decoded.Name)
	require.Equal(t, original.Size(), decoded.Size())

	for pc := 0; pc < original.Size(); {
		wantOp, err := original.Addr2Insn(pc)
		require.NoError(t, err)
		gotOp, err := decoded.Addr2Insn(pc)
		require.NoError(t, err)
		require.Equal(t, wantOp, gotOp)
		pc += opcode.Length(wantOp)
	}
}

func TestAddr2InsnOutOfRange(t *testing.T) {
	b := NewBuilder("empty", 0, 0, 0)
	seq := b.Build()
	_, err := seq.Addr2Insn(0)
	require.Error(t, err)
}
