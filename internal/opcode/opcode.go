// Package opcode holds the instruction-metadata tables that the front-end
// compiler consumes as read-only data. In a real host VM these tables are
// generated from an instruction-definition DSL at build time; here they are
// hand-maintained constants covering the opcode families spec.md names.
package opcode

// Kind classifies one operand word of an instruction.
type Kind byte

const (
	// KindLit is a plain numeric literal (encoded VALUE, immediate count, ...).
	KindLit Kind = iota
	// KindOffset is a relative branch offset, resolved against the
	// instruction's own address by the leader-analysis and translator.
	KindOffset
	// KindValueRef is an opaque VALUE reference (an object, ID, or symbol).
	KindValueRef
	// KindCallInfo carries an opaque call-info operand forwarded verbatim.
	KindCallInfo
	// KindInlineCache carries an opaque inline-cache operand forwarded verbatim.
	KindInlineCache
	// KindISeqRef references a nested instruction sequence (e.g. putiseq).
	KindISeqRef
)

// Op identifies a single opcode. The compiler obtains Ops through
// addr->opcode resolution; code that enumerates every Op ranges over
// [0, Count()).
type Op int

// Opcode constants, one per instruction family spec.md §4.5/§4.6 names.
const (
	OpNop Op = iota
	OpPutNil
	OpPutObject
	OpPutObjectInt2Fix0
	OpPutObjectInt2Fix1
	OpPutISeq
	OpPutSelf
	OpPutSpecialObject
	OpPutString

	OpGetGlobal
	OpSetGlobal
	OpGetInstanceVariable
	OpSetInstanceVariable
	OpGetClassVariable
	OpSetClassVariable
	OpGetConstant
	OpSetConstant
	OpGetSpecial
	OpSetSpecial
	OpGetLocalWC0
	OpSetLocalWC0
	OpGetLocalWC1
	OpSetLocalWC1

	OpPop
	OpDup
	OpDupN
	OpSwap
	OpTopN
	OpSetN
	OpAdjustStack

	OpNewArray
	OpDupArray
	OpConcatArray
	OpSplatArray
	OpNewHash
	OpNewRange
	OpToRegexp
	OpConcatStrings
	OpToString
	OpFreezeString

	OpSend
	OpOptSendWithoutBlock
	OpInvokeSuper

	OpOptPlus
	OpOptMinus
	OpOptMult
	OpOptDiv
	OpOptMod
	OpOptEq
	OpOptNeq
	OpOptLt
	OpOptLe
	OpOptGt
	OpOptGe
	OpOptLtLt
	OpOptARef
	OpOptASet
	OpOptARefWith
	OpOptASetWith
	OpOptLength
	OpOptSize
	OpOptEmptyP
	OpOptSucc
	OpOptNot
	OpOptRegexpMatch2

	OpLeave
	OpThrow
	OpJump
	OpBranchIf
	OpBranchUnless
	OpBranchNil

	OpTrace
	OpGetInlineCache
	OpSetInlineCache
	OpOptCaseDispatch

	opCount
)

// Info is the read-only metadata for one opcode: its display name, its
// length in host words (opcode word + operands), and the kind of each
// operand word in order.
type Info struct {
	Name         string
	Length       int
	OperandKinds []Kind
}

// table is indexed by Op. It is populated once in init and never mutated,
// matching the "external, consumed read-only" contract of spec.md §3.
var table [opCount]Info

func def(op Op, name string, kinds ...Kind) {
	table[op] = Info{Name: name, Length: 1 + len(kinds), OperandKinds: kinds}
}

func init() {
	def(OpNop, "nop")
	def(OpPutNil, "putnil")
	def(OpPutObject, "putobject", KindLit)
	def(OpPutObjectInt2Fix0, "putobject_INT2FIX_0")
	def(OpPutObjectInt2Fix1, "putobject_INT2FIX_1")
	def(OpPutISeq, "putiseq", KindISeqRef)
	def(OpPutSelf, "putself")
	def(OpPutSpecialObject, "putspecialobject", KindLit)
	def(OpPutString, "putstring", KindValueRef)

	def(OpGetGlobal, "getglobal", KindValueRef)
	def(OpSetGlobal, "setglobal", KindValueRef)
	def(OpGetInstanceVariable, "getinstancevariable", KindValueRef)
	def(OpSetInstanceVariable, "setinstancevariable", KindValueRef)
	def(OpGetClassVariable, "getclassvariable", KindValueRef)
	def(OpSetClassVariable, "setclassvariable", KindValueRef)
	def(OpGetConstant, "getconstant", KindValueRef)
	def(OpSetConstant, "setconstant", KindValueRef)
	def(OpGetSpecial, "getspecial", KindLit, KindLit)
	def(OpSetSpecial, "setspecial", KindLit)
	def(OpGetLocalWC0, "getlocal_OP__WC__0", KindLit)
	def(OpSetLocalWC0, "setlocal_OP__WC__0", KindLit)
	def(OpGetLocalWC1, "getlocal_OP__WC__1", KindLit)
	def(OpSetLocalWC1, "setlocal_OP__WC__1", KindLit)

	def(OpPop, "pop")
	def(OpDup, "dup")
	def(OpDupN, "dupn", KindLit)
	def(OpSwap, "swap")
	def(OpTopN, "topn", KindLit)
	def(OpSetN, "setn", KindLit)
	def(OpAdjustStack, "adjuststack", KindLit)

	def(OpNewArray, "newarray", KindLit)
	def(OpDupArray, "duparray", KindValueRef)
	def(OpConcatArray, "concatarray")
	def(OpSplatArray, "splatarray", KindLit)
	def(OpNewHash, "newhash", KindLit)
	def(OpNewRange, "newrange", KindLit)
	def(OpToRegexp, "toregexp", KindLit, KindLit)
	def(OpConcatStrings, "concatstrings", KindLit)
	def(OpToString, "tostring")
	def(OpFreezeString, "freezestring", KindValueRef)

	def(OpSend, "send", KindCallInfo, KindInlineCache)
	def(OpOptSendWithoutBlock, "opt_send_without_block", KindCallInfo, KindInlineCache)
	def(OpInvokeSuper, "invokesuper", KindCallInfo, KindInlineCache)

	def(OpOptPlus, "opt_plus", KindCallInfo, KindInlineCache)
	def(OpOptMinus, "opt_minus", KindCallInfo, KindInlineCache)
	def(OpOptMult, "opt_mult", KindCallInfo, KindInlineCache)
	def(OpOptDiv, "opt_div", KindCallInfo, KindInlineCache)
	def(OpOptMod, "opt_mod", KindCallInfo, KindInlineCache)
	def(OpOptEq, "opt_eq", KindCallInfo, KindInlineCache)
	def(OpOptNeq, "opt_neq", KindCallInfo, KindInlineCache)
	def(OpOptLt, "opt_lt", KindCallInfo, KindInlineCache)
	def(OpOptLe, "opt_le", KindCallInfo, KindInlineCache)
	def(OpOptGt, "opt_gt", KindCallInfo, KindInlineCache)
	def(OpOptGe, "opt_ge", KindCallInfo, KindInlineCache)
	def(OpOptLtLt, "opt_ltlt", KindCallInfo, KindInlineCache)
	def(OpOptARef, "opt_aref", KindCallInfo, KindInlineCache)
	def(OpOptASet, "opt_aset", KindCallInfo, KindInlineCache)
	def(OpOptARefWith, "opt_aref_with", KindValueRef, KindCallInfo, KindInlineCache)
	def(OpOptASetWith, "opt_aset_with", KindValueRef, KindCallInfo, KindInlineCache)
	def(OpOptLength, "opt_length", KindCallInfo, KindInlineCache)
	def(OpOptSize, "opt_size", KindCallInfo, KindInlineCache)
	def(OpOptEmptyP, "opt_empty_p", KindCallInfo, KindInlineCache)
	def(OpOptSucc, "opt_succ", KindCallInfo, KindInlineCache)
	def(OpOptNot, "opt_not", KindCallInfo, KindInlineCache)
	def(OpOptRegexpMatch2, "opt_regexpmatch2", KindCallInfo, KindInlineCache)

	def(OpLeave, "leave")
	def(OpThrow, "throw", KindLit)
	def(OpJump, "jump", KindOffset)
	def(OpBranchIf, "branchif", KindOffset)
	def(OpBranchUnless, "branchunless", KindOffset)
	def(OpBranchNil, "branchnil", KindOffset)

	def(OpTrace, "trace", KindLit)
	def(OpGetInlineCache, "getinlinecache", KindOffset, KindInlineCache)
	def(OpSetInlineCache, "setinlinecache", KindInlineCache)
	def(OpOptCaseDispatch, "opt_case_dispatch", KindValueRef)

	for op, info := range table {
		if info.Name == "" {
			panic("opcode: missing metadata entry")
		}
		_ = op
	}
}

// Lookup returns the metadata for op. It panics on an out-of-range Op,
// which can only happen if the addr->opcode resolver is itself broken —
// a host-side bug, not a compile-time condition this package reports via
// the error taxonomy.
func Lookup(op Op) Info {
	return table[op]
}

// Count returns the number of defined opcodes. Callers that need to
// enumerate every Op (e.g. building a name->Op index) should range over
// [0, Count()) rather than probing Lookup past the end of the table.
func Count() int { return int(opCount) }

// Length returns the word length of op (1 + operand count).
func Length(op Op) int { return table[op].Length }

// Name returns the display name of op.
func Name(op Op) string { return table[op].Name }

// IsTerminator reports whether op unconditionally ends a basic block, per
// spec.md §4.3 rule 3 and the GLOSSARY's Terminator definition.
func IsTerminator(op Op) bool {
	switch op {
	case OpJump, OpBranchIf, OpBranchUnless, OpBranchNil, OpOptCaseDispatch, OpThrow, OpLeave:
		return true
	default:
		return false
	}
}

// HasOffsetOperand reports whether op carries at least one KindOffset
// operand, and returns the operand index of the first one found.
func HasOffsetOperand(op Op) (int, bool) {
	for i, k := range table[op].OperandKinds {
		if k == KindOffset {
			return i, true
		}
	}
	return 0, false
}
