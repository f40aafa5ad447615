package compiler

import (
	"strings"
	"testing"

	"github.com/yalcin/yarvjit/internal/iseq"
	"github.com/yalcin/yarvjit/internal/opcode"
)

// Scenario 1 (spec.md §8): putnil; leave -> returns push_result(frame, Qnil).
func TestScenarioConstantReturn(t *testing.T) {
	b := iseq.NewBuilder("const_return", 1, 0, 0)
	b.Emit(opcode.OpPutNil)
	b.Emit(opcode.OpLeave)
	seq := b.Build()

	module, err := CompileISeq(seq, "const_return")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dump := module.Dump()
	if !strings.Contains(dump, "push_result") {
		t.Fatalf("expected call to push_result, got:\n%s", dump)
	}
	if !strings.Contains(dump, "ret") {
		t.Fatalf("expected a return, got:\n%s", dump)
	}
}

// Scenario 2: putobject_INT2FIX_1; leave -> returns INT2FIX(1) via push_result.
func TestScenarioIntegerLiteral(t *testing.T) {
	b := iseq.NewBuilder("int_literal", 1, 0, 0)
	b.Emit(opcode.OpPutObjectInt2Fix1)
	b.Emit(opcode.OpLeave)
	seq := b.Build()

	_, err := CompileISeq(seq, "int_literal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Scenario 3: getlocal_OP__WC__0 slot=0; leave -> returns getlocal_level0(frame, 0).
func TestScenarioArgumentPassthrough(t *testing.T) {
	b := iseq.NewBuilder("passthrough", 1, 1, 1)
	b.Emit(opcode.OpGetLocalWC0, 0)
	b.Emit(opcode.OpLeave)
	seq := b.Build()

	module, err := CompileISeq(seq, "passthrough")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(module.Dump(), "getlocal_level0") {
		t.Fatalf("expected call to getlocal_level0, got:\n%s", module.Dump())
	}
}

// Scenario 4: getlocal 0; getlocal 1; opt_plus; leave -> returns opt_plus(a, b).
func TestScenarioSimpleAdd(t *testing.T) {
	b := iseq.NewBuilder("simple_add", 2, 2, 2)
	b.Emit(opcode.OpGetLocalWC0, 0)
	b.Emit(opcode.OpGetLocalWC0, 1)
	b.Emit(opcode.OpOptPlus, 0, 0)
	b.Emit(opcode.OpLeave)
	seq := b.Build()

	module, err := CompileISeq(seq, "simple_add")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(module.Dump(), "opt_plus") {
		t.Fatalf("expected call to opt_plus, got:\n%s", module.Dump())
	}
}

// Scenario 5: guarded return with a φ merging two arms at the join block.
func TestScenarioGuardedReturn(t *testing.T) {
	b := iseq.NewBuilder("guarded_return", 2, 1, 1)
	b.Emit(opcode.OpGetLocalWC0, 0)           // pc 0..1
	b.Emit(opcode.OpBranchUnless, uint64(3))  // pc 2..3 -> target 7
	b.Emit(opcode.OpPutObjectInt2Fix1)        // pc 4
	b.Emit(opcode.OpJump, uint64(1))          // pc 5..6 -> target 8
	b.Emit(opcode.OpPutNil)                   // pc 7
	b.Emit(opcode.OpLeave)                    // pc 8
	seq := b.Build()

	module, err := CompileISeq(seq, "guarded_return")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(module.Dump(), "phi") {
		t.Fatalf("expected a phi at the join block, got:\n%s", module.Dump())
	}
}

// Scenario 6: a back-edge loop compiles without originating a loop-header
// φ on the backward jump (spec.md §4.7, §9's documented limitation).
func TestScenarioCountedLoopCompiles(t *testing.T) {
	b2 := iseq.NewBuilder("counted_loop", 2, 1, 0)
	b2.Emit(opcode.OpPutObjectInt2Fix0)              // 0
	b2.Emit(opcode.OpSetLocalWC0, 0)                 // 1..2
	header := 3
	b2.Emit(opcode.OpGetLocalWC0, 0)                 // 3..4  (header)
	b2.Emit(opcode.OpPutObject, uint64(6000000))     // 5..6
	b2.Emit(opcode.OpOptLt, 0, 0)                    // 7..9
	branchPC := 10
	b2.Emit(opcode.OpBranchUnless, uint64(0))        // 10..11, patched below
	b2.Emit(opcode.OpGetLocalWC0, 0)                 // 12..13
	b2.Emit(opcode.OpPutObjectInt2Fix1)              // 14
	b2.Emit(opcode.OpOptPlus, 0, 0)                  // 15..17
	b2.Emit(opcode.OpSetLocalWC0, 0)                 // 18..19
	jumpPC := 20
	b2.Emit(opcode.OpJump, uint64(0))                // 20..21, patched below
	end := 22
	b2.Emit(opcode.OpPutNil)                         // 22
	b2.Emit(opcode.OpLeave)                          // 23

	seq2 := b2.Build()
	// Patch the branch/jump offsets now that every block's offset is known.
	branchTargetOffset := uint64(int64(end) - int64(branchPC+2))
	jumpTargetOffset := uint64(int64(header) - int64(jumpPC+2))
	seq2.Encoded[branchPC+1] = branchTargetOffset
	seq2.Encoded[jumpPC+1] = jumpTargetOffset

	module, err := CompileISeq(seq2, "counted_loop")
	if err != nil {
		t.Fatalf("unexpected error compiling counted loop: %v", err)
	}
	if len(module.Functions()[0].Blocks()) < 2 {
		t.Fatalf("expected multiple basic blocks for a loop")
	}
	if strings.Contains(module.Dump(), "phi") {
		t.Fatalf("expected no loop-header phi on the back-edge, got:\n%s", module.Dump())
	}
}
