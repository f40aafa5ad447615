// Package ir is the backend IR builder: module, function, block,
// instruction, φ, branch, call, integer constant and bitwise/compare ops.
// It is a minimal, register-style IR over an int64 value domain and a
// (thread, frame) calling convention.
package ir

import (
	"fmt"
	"strings"
)

// Op identifies one IR instruction's operation.
type Op int

const (
	OpConst Op = iota
	OpParam
	OpPhi
	OpCall
	OpAnd
	OpOr
	OpNot
	OpICmpEq
	OpICmpNe
	OpICmpLt
	OpICmpLe
	OpICmpGt
	OpICmpGe
	OpBr        // unconditional branch
	OpCondBr    // conditional branch
	OpRet
)

func (op Op) String() string {
	switch op {
	case OpConst:
		return "const"
	case OpParam:
		return "param"
	case OpPhi:
		return "phi"
	case OpCall:
		return "call"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	case OpICmpEq:
		return "icmp_eq"
	case OpICmpNe:
		return "icmp_ne"
	case OpICmpLt:
		return "icmp_lt"
	case OpICmpLe:
		return "icmp_le"
	case OpICmpGt:
		return "icmp_gt"
	case OpICmpGe:
		return "icmp_ge"
	case OpBr:
		return "br"
	case OpCondBr:
		return "condbr"
	case OpRet:
		return "ret"
	default:
		return "unknown"
	}
}

// Value is a reference to one instruction's result, or a compile-time
// constant. Values are passed by pointer and compared by identity for
// def-use edges.
type Value struct {
	def     *Instr // nil if this is a pure constant
	isConst bool
	constVal int64
}

// IsConst reports whether v is a literal integer constant.
func (v *Value) IsConst() bool { return v != nil && v.isConst }

// ConstInt returns the constant payload; valid only when IsConst is true.
func (v *Value) ConstInt() int64 { return v.constVal }

// Instr is one IR instruction: an operation over zero or more operand
// Values, optionally producing a result Value of its own.
type Instr struct {
	op       Op
	operands []*Value
	callee   string   // set only for OpCall
	phiPreds []*Block // set only for OpPhi; phiPreds[k] is the predecessor for operands[k]
	block    *Block
	idx      int
}

// Op returns the instruction's operation.
func (i *Instr) Op() Op { return i.op }

// Operands returns the instruction's operand values, in order.
func (i *Instr) Operands() []*Value { return i.operands }

// Callee returns the called helper's full name; valid only for OpCall.
func (i *Instr) Callee() string { return i.callee }

// IncomingBlock returns the predecessor block that operands()[k] came in
// from; valid only for OpPhi.
func (i *Instr) IncomingBlock(k int) *Block { return i.phiPreds[k] }

// Result returns a Value referencing this instruction's own result.
func (i *Instr) Result() *Value { return &Value{def: i} }

// Block is one basic block: a label plus a sequential instruction list and
// its CFG edges. Blocks are owned by exactly one Function.
type Block struct {
	name         string
	fn           *Function
	num          int
	instructions []*Instr
	preds        []*Block
	succs        []*Block
}

// Name returns the block's display label (e.g. "bb3").
func (b *Block) Name() string { return b.name }

// Num returns the block's ordinal within its function.
func (b *Block) Num() int { return b.num }

// Instructions returns the block's instruction list in emission order.
func (b *Block) Instructions() []*Instr { return b.instructions }

// Preds returns the blocks with an edge into b.
func (b *Block) Preds() []*Block { return b.preds }

// Succs returns the blocks b has an edge to.
func (b *Block) Succs() []*Block { return b.succs }

func (b *Block) append(i *Instr) *Instr {
	i.block = b
	i.idx = len(b.instructions)
	b.instructions = append(b.instructions, i)
	return i
}

func addEdge(from, to *Block) {
	from.succs = append(from.succs, to)
	to.preds = append(to.preds, from)
}

// ConstInt materializes an integer literal. Constants are cheap and not
// deduplicated — each use gets its own Value.
func (b *Block) ConstInt(v int64) *Value {
	return &Value{isConst: true, constVal: v}
}

// Param returns the i'th incoming parameter of the block's function (the
// (thread, frame) calling convention plus any declared method arguments).
func (b *Block) Param(i int) *Value {
	return b.fn.params[i]
}

// BinOp emits a bitwise/compare instruction of the given op over a, b.
func (b *Block) BinOp(op Op, a, c *Value) *Value {
	instr := &Instr{op: op, operands: []*Value{a, c}}
	return b.append(instr).Result()
}

// UnOp emits a unary instruction (e.g. OpNot) over a.
func (b *Block) UnOp(op Op, a *Value) *Value {
	instr := &Instr{op: op, operands: []*Value{a}}
	return b.append(instr).Result()
}

// Call emits a call to the named helper with the given arguments.
func (b *Block) Call(calleeFullName string, args ...*Value) *Value {
	instr := &Instr{op: OpCall, operands: args, callee: calleeFullName}
	return b.append(instr).Result()
}

// Br emits an unconditional branch to target and records the CFG edge.
func (b *Block) Br(target *Block) {
	instr := &Instr{op: OpBr, operands: nil, callee: target.name}
	b.append(instr)
	addEdge(b, target)
}

// CondBr emits a conditional branch and records both CFG edges.
func (b *Block) CondBr(cond *Value, ifTrue, ifFalse *Block) {
	instr := &Instr{op: OpCondBr, operands: []*Value{cond}, callee: ifTrue.name + "|" + ifFalse.name}
	b.append(instr)
	addEdge(b, ifTrue)
	addEdge(b, ifFalse)
}

// Ret emits a return of v (or a void return if v is nil).
func (b *Block) Ret(v *Value) {
	var operands []*Value
	if v != nil {
		operands = []*Value{v}
	}
	b.append(&Instr{op: OpRet, operands: operands})
}

// Phi is a φ-node builder: it is created empty and grows incoming
// (value, predecessor-block) pairs as they become known, matching the
// pending-incoming-edge pattern the translator's block table maintains.
type Phi struct {
	instr *Instr
	block *Block
}

// NewPhi creates a new, empty φ-node at the start of b.
func (b *Block) NewPhi() *Phi {
	instr := &Instr{op: OpPhi}
	instr.block = b
	instr.idx = 0
	b.instructions = append([]*Instr{instr}, b.instructions...)
	for i, ins := range b.instructions {
		ins.idx = i
	}
	return &Phi{instr: instr, block: b}
}

// AddIncoming appends one (value, predecessor) pair to the φ-node. Per
// the GLOSSARY's φ definition, each operand is selected by the edge it
// arrived on, so value and predecessor are recorded together.
func (p *Phi) AddIncoming(v *Value, pred *Block) {
	p.instr.operands = append(p.instr.operands, v)
	p.instr.phiPreds = append(p.instr.phiPreds, pred)
}

// Result returns the Value this φ-node produces.
func (p *Phi) Result() *Value { return p.instr.Result() }

// IncomingCount returns how many (value, predecessor) pairs have been
// added so far.
func (p *Phi) IncomingCount() int { return len(p.instr.operands) }

// Function is one compiled method: a thread/frame-parameter entry point
// plus its basic blocks, built in the order Block is first created.
type Function struct {
	name      string
	params    []*Value
	numParams int
	blocks    []*Block
}

// Name returns the function's display name.
func (f *Function) Name() string { return f.name }

// Blocks returns the function's blocks in creation order.
func (f *Function) Blocks() []*Block { return f.blocks }

// NewBlock creates and appends a new basic block to f.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{name: name, fn: f, num: len(f.blocks)}
	f.blocks = append(f.blocks, b)
	return b
}

// Module is the top-level IR container: a set of functions plus any
// external declarations they call into.
type Module struct {
	name      string
	functions []*Function
	externs   map[string]bool
}

// NewModule creates an empty Module named name.
func NewModule(name string) *Module {
	return &Module{name: name, externs: make(map[string]bool)}
}

// NewFunction creates a function taking numParams (thread, frame, plus
// any declared arguments) int64 parameters, and appends it to m.
func (m *Module) NewFunction(name string, numParams int) *Function {
	fn := &Function{name: name, numParams: numParams}
	for i := 0; i < numParams; i++ {
		fn.params = append(fn.params, &Value{})
	}
	m.functions = append(m.functions, fn)
	return fn
}

// DeclareExtern records that fullName is an external helper this module
// calls into, for dump/printing purposes.
func (m *Module) DeclareExtern(fullName string) {
	m.externs[fullName] = true
}

// Functions returns the module's functions in creation order.
func (m *Module) Functions() []*Function { return m.functions }

// Dump renders a readable textual form of the module, used by the
// dump_ir diagnostic and by tests asserting on IR shape.
func (m *Module) Dump() string {
	out := fmt.Sprintf("module %s\n", m.name)
	for _, fn := range m.functions {
		out += fmt.Sprintf("func %s(%d params)\n", fn.name, fn.numParams)
		for _, b := range fn.blocks {
			out += fmt.Sprintf("  %s:\n", b.name)
			for _, instr := range b.instructions {
				out += "    " + instrString(instr) + "\n"
			}
		}
	}
	return out
}

func valueString(v *Value) string {
	if v == nil {
		return "void"
	}
	if v.isConst {
		return fmt.Sprintf("%d", v.constVal)
	}
	return fmt.Sprintf("%%%d", v.def.idx)
}

func instrString(i *Instr) string {
	switch i.op {
	case OpCall:
		return fmt.Sprintf("%%%d = call %s/%d", i.idx, i.callee, len(i.operands))
	case OpBr:
		return fmt.Sprintf("br %s", i.callee)
	case OpCondBr:
		return fmt.Sprintf("condbr -> %s", i.callee)
	case OpRet:
		return "ret"
	case OpPhi:
		pairs := make([]string, len(i.operands))
		for k := range i.operands {
			pred := "?"
			if i.phiPreds[k] != nil {
				pred = i.phiPreds[k].name
			}
			pairs[k] = fmt.Sprintf("[%s: %s]", pred, valueString(i.operands[k]))
		}
		return fmt.Sprintf("%%%d = phi %s", i.idx, strings.Join(pairs, ", "))
	default:
		return fmt.Sprintf("%%%d = %s", i.idx, i.op)
	}
}

// ToDot renders fn's CFG as Graphviz DOT: one node per block with a label
// summarizing its contents, one edge per successor.
func (f *Function) ToDot() string {
	out := "digraph CFG {\n"
	out += "  rankdir=TB;\n"
	out += "  node [shape=box, fontname=\"Courier\"];\n"
	for _, b := range f.blocks {
		label := fmt.Sprintf("%s\\n", b.name)
		const maxShown = 20
		for i, instr := range b.instructions {
			if i >= maxShown {
				label += "...\\n"
				break
			}
			label += instrString(instr) + "\\n"
		}
		out += fmt.Sprintf("  %d [label=\"%s\"];\n", b.num, label)
		for _, s := range b.succs {
			out += fmt.Sprintf("  %d -> %d;\n", b.num, s.num)
		}
	}
	out += "}\n"
	return out
}
