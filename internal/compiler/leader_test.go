package compiler

import (
	"testing"

	"github.com/yalcin/yarvjit/internal/iseq"
	"github.com/yalcin/yarvjit/internal/opcode"
)

func TestFindLeadersStraightLine(t *testing.T) {
	b := iseq.NewBuilder("const_return", 1, 0, 0)
	b.Emit(opcode.OpPutNil)
	b.Emit(opcode.OpLeave)
	seq := b.Build()

	leaders, err := findLeaders(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leaders) != 1 || leaders[0] != 0 {
		t.Fatalf("expected single leader [0], got %v", leaders)
	}
}

func TestFindLeadersGuardedReturn(t *testing.T) {
	b := iseq.NewBuilder("guarded_return", 2, 1, 1)
	b.Emit(opcode.OpGetLocalWC0, 0)             // pc 0..1
	b.Emit(opcode.OpBranchUnless, uint64(3))     // pc 2..3, target = 7
	b.Emit(opcode.OpPutObjectInt2Fix1)          // pc 4
	b.Emit(opcode.OpJump, uint64(1))             // pc 5..6, target = 8
	b.Emit(opcode.OpPutNil)                     // pc 7
	b.Emit(opcode.OpLeave)                      // pc 8
	seq := b.Build()

	leaders, err := findLeaders(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 4, 7, 8}
	if len(leaders) != len(want) {
		t.Fatalf("expected %v, got %v", want, leaders)
	}
	for i, w := range want {
		if leaders[i] != w {
			t.Fatalf("expected %v, got %v", want, leaders)
		}
	}
}
