package ir

import (
	"strings"
	"testing"
)

func TestModuleDumpShowsCallAndBranch(t *testing.T) {
	m := NewModule("test_method")
	fn := m.NewFunction("test_method", 2)
	entry := fn.NewBlock("bb0")
	exit := fn.NewBlock("bb1")

	m.DeclareExtern("rb_helper.opt_plus")
	a := entry.ConstInt(1)
	b := entry.ConstInt(2)
	sum := entry.Call("rb_helper.opt_plus", a, b)
	entry.Br(exit)
	exit.Ret(sum)

	dump := m.Dump()
	if dump == "" {
		t.Fatalf("expected non-empty dump")
	}
	if !strings.Contains(dump, "call rb_helper.opt_plus") || !strings.Contains(dump, "br bb1") {
		t.Fatalf("expected dump to show the call and the branch, got:\n%s", dump)
	}
	if len(entry.Succs()) != 1 || entry.Succs()[0] != exit {
		t.Fatalf("expected entry -> exit edge")
	}
	if len(exit.Preds()) != 1 || exit.Preds()[0] != entry {
		t.Fatalf("expected exit.preds == [entry]")
	}
}

func TestPhiAccumulatesIncoming(t *testing.T) {
	m := NewModule("guarded_return")
	fn := m.NewFunction("guarded_return", 2)
	thenBlk := fn.NewBlock("bb_then")
	elseBlk := fn.NewBlock("bb_else")
	join := fn.NewBlock("bb_join")

	phi := join.NewPhi()
	phi.AddIncoming(thenBlk.ConstInt(1), thenBlk)
	phi.AddIncoming(elseBlk.ConstInt(0), elseBlk)
	join.Ret(phi.Result())

	if phi.IncomingCount() != 2 {
		t.Fatalf("expected 2 incoming values, got %d", phi.IncomingCount())
	}
	if phi.instr.IncomingBlock(0) != thenBlk || phi.instr.IncomingBlock(1) != elseBlk {
		t.Fatalf("expected incoming predecessors [thenBlk, elseBlk], got [%v, %v]",
			phi.instr.IncomingBlock(0), phi.instr.IncomingBlock(1))
	}
	dump := m.Dump()
	if !strings.Contains(dump, "bb_then") || !strings.Contains(dump, "bb_else") {
		t.Fatalf("expected phi dump to name its predecessors, got:\n%s", dump)
	}
}

func TestCondBrRecordsBothEdges(t *testing.T) {
	m := NewModule("m")
	fn := m.NewFunction("m", 2)
	entry := fn.NewBlock("bb0")
	ifTrue := fn.NewBlock("bb1")
	ifFalse := fn.NewBlock("bb2")

	cond := entry.ConstInt(1)
	entry.CondBr(cond, ifTrue, ifFalse)

	if len(entry.Succs()) != 2 {
		t.Fatalf("expected 2 successors, got %d", len(entry.Succs()))
	}
	dot := fn.ToDot()
	if dot == "" {
		t.Fatalf("expected non-empty dot output")
	}
}
