package compiler

import (
	"sort"

	"github.com/yalcin/yarvjit/internal/iseq"
	"github.com/yalcin/yarvjit/internal/opcode"
)

// findLeaders performs the single linear pass of spec.md §4.3: offset 0 is
// always a leader, every branch-offset target is a leader, and the
// instruction immediately following any terminator is a leader (when
// still inside the stream). The result is sorted ascending and
// deduplicated.
func findLeaders(seq *iseq.ISeq) ([]int, error) {
	leaders := map[int]bool{0: true}

	for pc := 0; pc < seq.Size(); {
		op, err := seq.Addr2Insn(pc)
		if err != nil {
			return nil, err
		}
		info := opcode.Lookup(op)

		if idx, ok := opcode.HasOffsetOperand(op); ok {
			offset, err := seq.Operand(pc, idx)
			if err != nil {
				return nil, err
			}
			target := pc + info.Length + int(int64(offset))
			leaders[target] = true
		}

		next := pc + info.Length
		if opcode.IsTerminator(op) && next < seq.Size() {
			leaders[next] = true
		}

		pc = next
	}

	out := make([]int, 0, len(leaders))
	for off := range leaders {
		out = append(out, off)
	}
	sort.Ints(out)
	return out, nil
}
