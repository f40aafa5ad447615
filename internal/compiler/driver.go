package compiler

import (
	"fmt"

	"github.com/yalcin/yarvjit/internal/helper"
	"github.com/yalcin/yarvjit/internal/ir"
	"github.com/yalcin/yarvjit/internal/iseq"
	"github.com/yalcin/yarvjit/internal/jitlog"
	"github.com/yalcin/yarvjit/internal/opcode"
)

// compileCtx threads the state shared by every recursive driver/translator
// call for one method compilation: the bytecode being compiled, the
// backend module/function under construction, the block table, and the
// helper registry. It owns no per-block state (current block, current
// stack) — those are passed explicitly through the call chain since two
// concurrent recursive branches must not observe each other's mutations.
type compileCtx struct {
	seq     *iseq.ISeq
	module  *ir.Module
	fn      *ir.Function
	table   *blockTable
	helpers *helper.Registry
	log     jitlog.Logger
}

// ensureBlock returns the backend block for a leader offset, creating it
// on first reference. A block may be referenced (as a branch target)
// before the driver has visited it — forward references are exactly what
// the block table's pending-incoming buffers exist to support.
func (c *compileCtx) ensureBlock(off int) *ir.Block {
	entry := c.table.get(off)
	if entry.block == nil {
		entry.block = c.fn.NewBlock(fmt.Sprintf("label_%d", off))
	}
	return entry.block
}

// driveBlock is the recursive walker of spec.md §4.4. incoming is the
// stack state handed off by the predecessor edge that caused this block to
// be entered; it is nil only for the entry block and for jump's
// empty-stack fast path, in which case a fresh stack is allocated.
func (c *compileCtx) driveBlock(off int, incoming *abstractStack) error {
	entry := c.table.get(off)
	if entry == nil {
		return fmt.Errorf("compiler: offset %d is not a registered leader", off)
	}
	if entry.compiled {
		return nil
	}
	entry.compiled = true
	blk := c.ensureBlock(off)

	c.log.Debug().Int("offset", off).Msg("entering basic block")

	var stk *abstractStack
	if incoming != nil {
		stk = incoming
	} else {
		stk = newAbstractStack(c.seq.StackMax)
	}

	if err := materializePhi(entry, stk); err != nil {
		return err
	}
	c.log.Debug().Int("offset", off).Int("entry_depth", stk.depth()).Bool("phi_created", entry.phi != nil).Msg("basic block entry state")

	pc := off
	for pc <= entry.end {
		op, err := c.seq.Addr2Insn(pc)
		if err != nil {
			return err
		}
		jumped, err := c.translate(blk, entry, pc, op, stk)
		if err != nil {
			return wrapOpError(err, op, pc, stk.depth())
		}
		if jumped {
			return nil
		}
		pc += opcode.Length(op)
	}

	// Block ended without a terminator: fall through to the next leader,
	// propagating any remaining stack value as a φ-contribution (spec.md
	// §4.4 step 5, §4.7).
	next, ok := c.table.nextLeaderAfter(off)
	if !ok {
		return nil
	}
	nextEntry := c.table.get(next)
	nextBlk := c.ensureBlock(next)
	blk.Br(nextBlk)

	if stk.depth() > 0 {
		v, err := stk.pop()
		if err != nil {
			return err
		}
		depositIncoming(nextEntry, v, blk)
	}
	return c.driveBlock(next, stk)
}
