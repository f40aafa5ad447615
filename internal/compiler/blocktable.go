package compiler

import (
	"github.com/yalcin/yarvjit/internal/ir"
)

// blockEntry is one block-table row, indexed by leader offset (spec.md
// §3). pendingValues/pendingBlocks accumulate (value, predecessor) pairs
// deposited by predecessors that reach this leader before it has been
// visited by the driver; they are drained into a freshly materialized φ
// when the driver finally enters the block (§4.7 "deferred" route).
type blockEntry struct {
	offset int
	block  *ir.Block
	end    int
	compiled bool
	phi    *ir.Phi

	pendingValues []*ir.Value
	pendingBlocks []*ir.Block
}

// blockTable holds one entry per leader offset the method's bytecode
// contains. Lookup by offset is a map rather than the iseq_size-wide array
// spec.md §3/§5 describes as "simple but wasteful" — §9 explicitly
// endorses a sparse map as an equivalent, preferred alternative.
type blockTable struct {
	entries map[int]*blockEntry
	leaders []int
}

func newBlockTable(leaders []int) *blockTable {
	t := &blockTable{entries: make(map[int]*blockEntry, len(leaders)), leaders: leaders}
	for i, off := range leaders {
		end := -1
		if i+1 < len(leaders) {
			end = leaders[i+1] - 1
		}
		t.entries[off] = &blockEntry{offset: off, end: end}
	}
	return t
}

// setTerminalEnd fixes the last leader's block_end to iseq_size-1, per
// spec.md §3's invariant for the terminal block.
func (t *blockTable) setTerminalEnd(iseqSize int) {
	if len(t.leaders) == 0 {
		return
	}
	last := t.leaders[len(t.leaders)-1]
	t.entries[last].end = iseqSize - 1
}

// get returns the entry for a leader offset, or nil if off is not a leader.
func (t *blockTable) get(off int) *blockEntry {
	return t.entries[off]
}

// nextLeaderAfter returns the smallest leader strictly greater than off,
// and whether one exists.
func (t *blockTable) nextLeaderAfter(off int) (int, bool) {
	for _, l := range t.leaders {
		if l > off {
			return l, true
		}
	}
	return 0, false
}

// depositIncoming records a (value, predecessor) pair for a not-yet-built
// φ at the target entry, or adds it directly if the φ already exists
// (spec.md §4.7, both the deferred and incremental routes).
func depositIncoming(entry *blockEntry, value *ir.Value, pred *ir.Block) {
	if entry.phi != nil {
		entry.phi.AddIncoming(value, pred)
		return
	}
	entry.pendingValues = append(entry.pendingValues, value)
	entry.pendingBlocks = append(entry.pendingBlocks, pred)
}

// materializePhi builds entry's φ from its pending buffers, if any are
// present, pushes it onto stk, and caches it in entry.phi. Returns an
// InconsistentJoin-flavored error if the pending buffers are mismatched in
// length (spec.md §7).
func materializePhi(entry *blockEntry, stk *abstractStack) error {
	if len(entry.pendingValues) == 0 {
		return nil
	}
	if len(entry.pendingValues) != len(entry.pendingBlocks) {
		return errInconsistentJoin(len(entry.pendingValues), len(entry.pendingBlocks))
	}
	phi := entry.block.NewPhi()
	for i, v := range entry.pendingValues {
		phi.AddIncoming(v, entry.pendingBlocks[i])
	}
	entry.phi = phi
	entry.pendingValues = nil
	entry.pendingBlocks = nil
	return stk.push(phi.Result())
}
