// Package iseq is the bytecode input record: an opaque, host-provided
// instruction stream plus the addr->opcode resolver spec.md §6 requires
// from the host. As in the host VM, each opcode word is an address;
// here the addresses are synthetic values assigned by Builder and mapped
// to opcodes through a per-ISeq table, and Addr2Insn is the resolver
// callers go through, the same contract the real host exposes.
package iseq

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/yalcin/yarvjit/internal/opcode"
)

// ISeq is one compiled method body, as delivered by the host.
type ISeq struct {
	// Name is the method's display name, used only for logging/diagnostics.
	Name string `json:"name"`
	// Encoded is the instruction stream: each instruction occupies
	// 1+operand_count words, first word resolves via addr2insn.
	Encoded []uint64 `json:"encoded"`
	// StackMax is the runtime operand-stack high-water mark.
	StackMax int `json:"stack_max"`
	// LocalSize is the number of local variable slots (including block args).
	LocalSize int `json:"local_size"`
	// ArgSize is the number of formal argument slots.
	ArgSize int `json:"arg_size"`

	// addrTable maps an encoded address word to its Op. In the real host
	// this indirection is inherent (iseq_encoded words ARE addresses);
	// here it is populated explicitly so addr2insn has something to resolve.
	addrTable map[uint64]opcode.Op
}

// Size returns the instruction-stream length in words (iseq_size).
func (s *ISeq) Size() int { return len(s.Encoded) }

// Addr2Insn resolves the word at Encoded[pc] to an opcode. It is the Go
// analogue of the host's addr->opcode resolver (spec.md §6).
func (s *ISeq) Addr2Insn(pc int) (opcode.Op, error) {
	if pc < 0 || pc >= len(s.Encoded) {
		return 0, fmt.Errorf("iseq: pc %d out of range [0,%d)", pc, len(s.Encoded))
	}
	op, ok := s.addrTable[s.Encoded[pc]]
	if !ok {
		return 0, fmt.Errorf("iseq: unresolvable address word 0x%x at pc %d", s.Encoded[pc], pc)
	}
	return op, nil
}

// Operand returns the operand word at pc+1+i (0-indexed among the
// instruction's own operands), bounds-checked against the stream.
func (s *ISeq) Operand(pc, i int) (uint64, error) {
	idx := pc + 1 + i
	if idx < 0 || idx >= len(s.Encoded) {
		return 0, fmt.Errorf("iseq: operand index %d (pc=%d, i=%d) out of range", idx, pc, i)
	}
	return s.Encoded[idx], nil
}

// Builder assembles an ISeq word-by-word, assigning each appended opcode a
// fresh synthetic address so Addr2Insn can resolve it later. It exists so
// tests and the CLI can write bytecode as a sequence of (Op, operands...)
// pairs instead of hand-deriving address words.
type Builder struct {
	iseq     ISeq
	nextAddr uint64
}

// NewBuilder creates a Builder for a method with the given stack_max,
// local and argument counts.
func NewBuilder(name string, stackMax, localSize, argSize int) *Builder {
	return &Builder{
		iseq: ISeq{
			Name:      name,
			StackMax:  stackMax,
			LocalSize: localSize,
			ArgSize:   argSize,
			addrTable: make(map[uint64]opcode.Op),
		},
		nextAddr: 1,
	}
}

// Emit appends one instruction (op plus its operand words, in order) and
// returns the byte offset it was placed at.
func (b *Builder) Emit(op opcode.Op, operands ...uint64) int {
	info := opcode.Lookup(op)
	if len(operands) != len(info.OperandKinds) {
		panic(fmt.Sprintf("iseq.Builder: %s expects %d operands, got %d", info.Name, len(info.OperandKinds), len(operands)))
	}
	addr := b.nextAddr
	b.nextAddr++
	b.iseq.addrTable[addr] = op
	pos := len(b.iseq.Encoded)
	b.iseq.Encoded = append(b.iseq.Encoded, addr)
	b.iseq.Encoded = append(b.iseq.Encoded, operands...)
	return pos
}

// Build returns the assembled ISeq. The Builder must not be reused after
// calling Build.
func (b *Builder) Build() *ISeq {
	return &b.iseq
}

// wireFormat is the JSON-serializable shape of an ISeq: instructions named
// by opcode string instead of raw address words, since addresses are a
// build-time-only indirection with no meaning across a process boundary.
type wireFormat struct {
	Name      string `json:"name"`
	StackMax  int    `json:"stack_max"`
	LocalSize int    `json:"local_size"`
	ArgSize   int    `json:"arg_size"`
	Insns     []struct {
		Op       string   `json:"op"`
		Operands []uint64 `json:"operands"`
	} `json:"insns"`
}

// MarshalJSON encodes the ISeq in wire form via goccy/go-json.
func (s *ISeq) MarshalJSON() ([]byte, error) {
	var w wireFormat
	w.Name, w.StackMax, w.LocalSize, w.ArgSize = s.Name, s.StackMax, s.LocalSize, s.ArgSize
	for i := 0; i < len(s.Encoded); {
		op, err := s.Addr2Insn(i)
		if err != nil {
			return nil, err
		}
		info := opcode.Lookup(op)
		operands := make([]uint64, len(info.OperandKinds))
		for k := range operands {
			v, err := s.Operand(i, k)
			if err != nil {
				return nil, err
			}
			operands[k] = v
		}
		w.Insns = append(w.Insns, struct {
			Op       string   `json:"op"`
			Operands []uint64 `json:"operands"`
		}{Op: info.Name, Operands: operands})
		i += info.Length
	}
	return json.Marshal(w)
}

// nameToOp is populated once, at package init, from the opcode table for
// UnmarshalJSON.
var nameToOp map[string]opcode.Op

func init() {
	nameToOp = make(map[string]opcode.Op)
	for i := 0; i < opcode.Count(); i++ {
		op := opcode.Op(i)
		nameToOp[opcode.Lookup(op).Name] = op
	}
}

// UnmarshalJSON decodes wire form produced by MarshalJSON back into an
// ISeq with a freshly assigned addrTable.
func (s *ISeq) UnmarshalJSON(data []byte) error {
	var w wireFormat
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b := NewBuilder(w.Name, w.StackMax, w.LocalSize, w.ArgSize)
	for _, insn := range w.Insns {
		op, ok := nameToOp[insn.Op]
		if !ok {
			return fmt.Errorf("iseq: unknown opcode name %q", insn.Op)
		}
		b.Emit(op, insn.Operands...)
	}
	*s = *b.Build()
	return nil
}
