package compiler

import (
	"github.com/yalcin/yarvjit/internal/ir"
	"github.com/yalcin/yarvjit/internal/opcode"
)

// opLeave lowers `leave` (spec.md §4.6): requires stack depth 1, calls
// push_result(frame, value), emits a return of the frame pointer.
func (c *compileCtx) opLeave(blk *ir.Block, pc int, stk *abstractStack) (bool, error) {
	if stk.depth() != 1 {
		ce := errStackShapeAtLeave(stk.depth()).(*CompileError)
		ce.Offset = pc
		return true, ce
	}
	val, err := stk.pop()
	if err != nil {
		return true, err
	}
	frame := blk.Param(1)
	if _, err := c.call(blk, "push_result", frame, val); err != nil {
		return true, err
	}
	blk.Ret(frame)
	return true, nil
}

// opThrow lowers `throw`: call insn_throw(thread, frame, throw_state,
// value), return a zero literal.
func (c *compileCtx) opThrow(blk *ir.Block, pc int, stk *abstractStack) (bool, error) {
	state, err := c.seq.Operand(pc, 0)
	if err != nil {
		return true, err
	}
	val, err := stk.pop()
	if err != nil {
		return true, err
	}
	if _, err := c.call(blk, "insn_throw", blk.Param(0), blk.Param(1), blk.ConstInt(int64(state)), val); err != nil {
		return true, err
	}
	blk.Ret(blk.ConstInt(0))
	return true, nil
}

// opJump lowers `jump` (spec.md §4.6).
func (c *compileCtx) opJump(blk *ir.Block, pc int, stk *abstractStack) (bool, error) {
	dest, err := c.branchTarget(pc)
	if err != nil {
		return true, err
	}
	destBlk := c.ensureBlock(dest)
	destEntry := c.table.get(dest)

	if stk.depth() == 0 {
		blk.Br(destBlk)
		return true, c.driveBlock(dest, nil)
	}

	val, err := stk.pop()
	if err != nil {
		return true, err
	}
	depositIncoming(destEntry, val, blk)
	blk.Br(destBlk)
	// Do not recurse for the non-empty case: dest will be reached (and
	// driven) via the fall-through chain of another block per spec.md §4.6.
	return true, nil
}

// opBranch lowers branchif (isBranchIf=true) / branchunless (isBranchIf=false).
func (c *compileCtx) opBranch(blk *ir.Block, entry *blockEntry, pc int, stk *abstractStack, isBranchIf bool) (bool, error) {
	dest, err := c.branchTarget(pc)
	if err != nil {
		return true, err
	}
	curOp, err := c.seq.Addr2Insn(pc)
	if err != nil {
		return true, err
	}
	fallthroughOff := pc + opcode.Length(curOp)

	cond, err := stk.pop()
	if err != nil {
		return true, err
	}
	rt := c.rtest(blk, cond)

	destBlk := c.ensureBlock(dest)
	fallBlk := c.ensureBlock(fallthroughOff)

	if isBranchIf {
		blk.CondBr(rt, destBlk, fallBlk)
	} else {
		blk.CondBr(rt, fallBlk, destBlk)
	}

	// Copy the current stack before recursing so both successors see the
	// same pre-branch prefix (spec.md §4.1, §9).
	fallStack := stk.clone()
	destStack := stk.clone()

	forward := dest > pc
	if stk.depth() > 0 {
		fallEntry := c.table.get(fallthroughOff)
		v, err := fallStack.pop()
		if err != nil {
			return true, err
		}
		depositIncoming(fallEntry, v, blk)

		if forward {
			destEntry := c.table.get(dest)
			dv, err := destStack.pop()
			if err != nil {
				return true, err
			}
			depositIncoming(destEntry, dv, blk)
		}
		// Backward jumps deliberately skip φ-origination on this edge
		// (loop-header φ-suppression, spec.md §4.7, §9).
	}

	if err := c.driveBlock(fallthroughOff, fallStack); err != nil {
		return true, err
	}
	if err := c.driveBlock(dest, destStack); err != nil {
		return true, err
	}
	return true, nil
}

// opBranchNil lowers `branchnil`: cond != Qnil -> fallthrough, else branch_dest.
func (c *compileCtx) opBranchNil(blk *ir.Block, pc int, stk *abstractStack) (bool, error) {
	dest, err := c.branchTarget(pc)
	if err != nil {
		return true, err
	}
	fallthroughOff := pc + opcode.Length(opcode.OpBranchNil)

	cond, err := stk.pop()
	if err != nil {
		return true, err
	}
	nilConst := blk.ConstInt(qnil)
	isNotNil := blk.BinOp(ir.OpICmpNe, cond, nilConst)

	destBlk := c.ensureBlock(dest)
	fallBlk := c.ensureBlock(fallthroughOff)
	blk.CondBr(isNotNil, fallBlk, destBlk)

	destEntry := c.table.get(dest)
	depositIncoming(destEntry, nilConst, blk)

	return true, c.driveBlock(fallthroughOff, stk)
}

// branchTarget resolves a branch/jump offset operand to an absolute
// instruction address, per spec.md §4.3 rule 2.
func (c *compileCtx) branchTarget(pc int) (int, error) {
	op, err := c.seq.Addr2Insn(pc)
	if err != nil {
		return 0, err
	}
	info := opcode.Lookup(op)
	idx, ok := opcode.HasOffsetOperand(op)
	if !ok {
		return 0, errUnsupported(op, pc, 0)
	}
	offset, err := c.seq.Operand(pc, idx)
	if err != nil {
		return 0, err
	}
	return pc + info.Length + int(int64(offset)), nil
}
