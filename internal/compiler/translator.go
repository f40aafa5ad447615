package compiler

import (
	"github.com/yalcin/yarvjit/internal/ir"
	"github.com/yalcin/yarvjit/internal/opcode"
)

// Real YARV VALUE encodings (spec.md §4.8, §6): Qfalse and Qnil differ in
// exactly one bit, which is what makes RTEST a single AND + compare.
const (
	qfalse int64 = 0x00
	qnil   int64 = 0x08
	qtrue  int64 = 0x14
)

// call is a small convenience wrapper: resolve name in the registry,
// declare it on the module on first use, and emit a call instruction.
func (c *compileCtx) call(blk *ir.Block, name string, args ...*ir.Value) (*ir.Value, error) {
	decl, err := c.helpers.Get(name)
	if err != nil {
		return nil, err
	}
	c.module.DeclareExtern(decl.FullName())
	return blk.Call(decl.FullName(), args...), nil
}

// rtest lowers RTEST(v) = (v & ~Qnil) != 0 — spec.md §4.8.
func (c *compileCtx) rtest(blk *ir.Block, v *ir.Value) *ir.Value {
	mask := blk.ConstInt(^qnil)
	masked := blk.BinOp(ir.OpAnd, v, mask)
	zero := blk.ConstInt(0)
	return blk.BinOp(ir.OpICmpNe, masked, zero)
}

// popN pops n values and returns them in original push order (oldest
// first) — used by the composite constructors, which must replay their
// operands in source order even though the stack pops newest-first.
func popN(stk *abstractStack, n int) ([]*ir.Value, error) {
	out := make([]*ir.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := stk.pop()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// translate dispatches pc's instruction. It returns jumped=true when the
// instruction terminated the current block from within (control flow
// opcodes that branch, return, or otherwise hand control to the driver);
// the driver stops translating the current block in that case.
func (c *compileCtx) translate(blk *ir.Block, entry *blockEntry, pc int, op opcode.Op, stk *abstractStack) (bool, error) {
	switch op {

	// --- Literals and self (spec.md §4.5) ---
	case opcode.OpPutNil:
		return false, stk.push(blk.ConstInt(qnil))
	case opcode.OpPutObject:
		v, err := c.seq.Operand(pc, 0)
		if err != nil {
			return false, err
		}
		return false, stk.push(blk.ConstInt(int64(v)))
	case opcode.OpPutObjectInt2Fix0:
		return false, stk.push(blk.ConstInt(int2fix(0)))
	case opcode.OpPutObjectInt2Fix1:
		return false, stk.push(blk.ConstInt(int2fix(1)))
	case opcode.OpPutISeq:
		v, err := c.seq.Operand(pc, 0)
		if err != nil {
			return false, err
		}
		return false, stk.push(blk.ConstInt(int64(v)))
	case opcode.OpPutSelf:
		frame := blk.Param(1)
		v, err := c.call(blk, "self_from_cfp", frame)
		if err != nil {
			return false, err
		}
		return false, stk.push(v)
	case opcode.OpPutSpecialObject:
		operand, err := c.seq.Operand(pc, 0)
		if err != nil {
			return false, err
		}
		v, err := c.call(blk, "putspecialobject", blk.ConstInt(int64(operand)))
		if err != nil {
			return false, err
		}
		return false, stk.push(v)
	case opcode.OpPutString:
		operand, err := c.seq.Operand(pc, 0)
		if err != nil {
			return false, err
		}
		v, err := c.call(blk, "putstring", blk.ConstInt(int64(operand)))
		if err != nil {
			return false, err
		}
		return false, stk.push(v)

	// --- Variable access ---
	case opcode.OpGetGlobal:
		return false, c.unaryRefHelper(blk, pc, stk, "getglobal")
	case opcode.OpSetGlobal:
		return false, c.setHelperSelfPlusID(blk, pc, stk, "setglobal")
	case opcode.OpGetInstanceVariable:
		return false, c.getHelperSelfPlusID(blk, pc, stk, "getinstancevariable")
	case opcode.OpSetInstanceVariable:
		return false, c.setHelperSelfPlusID(blk, pc, stk, "setinstancevariable")
	case opcode.OpGetClassVariable:
		return false, c.getHelperFramePlusID(blk, pc, stk, "getclassvariable")
	case opcode.OpSetClassVariable:
		return false, c.setHelperFramePlusID(blk, pc, stk, "setclassvariable")
	case opcode.OpGetConstant:
		return false, c.getHelperThreadPlusChain(blk, pc, stk, "getconstant")
	case opcode.OpSetConstant:
		return false, c.setConstant(blk, stk)
	case opcode.OpGetSpecial:
		return false, c.getSpecial(blk, pc, stk)
	case opcode.OpSetSpecial:
		return false, c.setSpecial(blk, pc, stk)
	case opcode.OpGetLocalWC0:
		return false, c.getLocalWC0(blk, pc, stk)
	case opcode.OpSetLocalWC0:
		return false, c.setLocalWC0(blk, pc, stk)
	case opcode.OpGetLocalWC1, opcode.OpSetLocalWC1:
		return false, errUnsupported(op, pc, stk.depth())

	// --- Stack manipulation (pure abstract-stack edits, no IR) ---
	case opcode.OpPop:
		_, err := stk.pop()
		return false, err
	case opcode.OpDup:
		v, err := stk.topn(0)
		if err != nil {
			return false, err
		}
		return false, stk.push(v)
	case opcode.OpDupN:
		return false, c.dupN(blk, pc, stk)
	case opcode.OpSwap:
		return false, c.swap(stk)
	case opcode.OpTopN:
		return false, c.topN(blk, pc, stk)
	case opcode.OpSetN:
		return false, c.setNOp(blk, pc, stk)
	case opcode.OpAdjustStack:
		n, err := c.seq.Operand(pc, 0)
		if err != nil {
			return false, err
		}
		return false, stk.adjust(int(n))

	// --- Composite constructors ---
	case opcode.OpNewArray:
		return false, c.newArray(blk, pc, stk)
	case opcode.OpDupArray:
		return false, c.dupArray(blk, pc, stk)
	case opcode.OpConcatArray:
		return false, c.binaryHelper(blk, stk, "concatarray")
	case opcode.OpSplatArray:
		return false, c.splatArray(blk, pc, stk)
	case opcode.OpNewHash:
		return false, c.newHash(blk, pc, stk)
	case opcode.OpNewRange:
		return false, c.newRange(blk, pc, stk)
	case opcode.OpToRegexp:
		return false, c.toRegexp(blk, pc, stk)
	case opcode.OpConcatStrings:
		return false, c.concatStrings(blk, pc, stk)
	case opcode.OpToString:
		return false, c.unaryStackHelper(blk, stk, "tostring")
	case opcode.OpFreezeString:
		return false, c.freezeString(blk, pc, stk)

	// --- Method dispatch ---
	case opcode.OpSend:
		return false, c.dispatch(blk, pc, stk, "send")
	case opcode.OpOptSendWithoutBlock:
		return false, c.dispatch(blk, pc, stk, "opt_send_without_block")
	case opcode.OpInvokeSuper:
		return false, c.dispatch(blk, pc, stk, "invokesuper")

	case opcode.OpOptPlus:
		return false, c.specializedBinOp(blk, stk, "opt_plus")
	case opcode.OpOptMinus:
		return false, c.specializedBinOp(blk, stk, "opt_minus")
	case opcode.OpOptLt:
		return false, c.specializedBinOp(blk, stk, "opt_lt")
	case opcode.OpOptMult:
		return false, c.funcallBinOp(blk, stk, "*")
	case opcode.OpOptDiv:
		return false, c.funcallBinOp(blk, stk, "/")
	case opcode.OpOptMod:
		return false, c.funcallBinOp(blk, stk, "%")
	case opcode.OpOptEq:
		return false, c.funcallBinOp(blk, stk, "==")
	case opcode.OpOptNeq:
		return false, c.funcallBinOp(blk, stk, "!=")
	case opcode.OpOptLe:
		return false, c.funcallBinOp(blk, stk, "<=")
	case opcode.OpOptGt:
		return false, c.funcallBinOp(blk, stk, ">")
	case opcode.OpOptGe:
		return false, c.funcallBinOp(blk, stk, ">=")
	case opcode.OpOptLtLt:
		return false, c.funcallBinOp(blk, stk, "<<")
	case opcode.OpOptARef:
		return false, c.funcallBinOp(blk, stk, "[]")
	case opcode.OpOptASet:
		return false, c.funcallTernaryOp(blk, stk, "[]=")
	case opcode.OpOptARefWith:
		return false, c.optArefWith(blk, pc, stk)
	case opcode.OpOptASetWith:
		return false, c.optAsetWith(blk, pc, stk)
	case opcode.OpOptLength:
		return false, c.funcallUnaryOp(blk, stk, "length")
	case opcode.OpOptSize:
		return false, c.funcallUnaryOp(blk, stk, "size")
	case opcode.OpOptEmptyP:
		return false, c.funcallUnaryOp(blk, stk, "empty?")
	case opcode.OpOptSucc:
		return false, c.funcallUnaryOp(blk, stk, "succ")
	case opcode.OpOptNot:
		return false, c.funcallUnaryOp(blk, stk, "!")
	case opcode.OpOptRegexpMatch2:
		return false, c.funcallBinOp(blk, stk, "=~")

	// --- Control flow (spec.md §4.6) ---
	case opcode.OpLeave:
		return c.opLeave(blk, pc, stk)
	case opcode.OpThrow:
		return c.opThrow(blk, pc, stk)
	case opcode.OpJump:
		return c.opJump(blk, pc, stk)
	case opcode.OpBranchIf:
		return c.opBranch(blk, entry, pc, stk, true)
	case opcode.OpBranchUnless:
		return c.opBranch(blk, entry, pc, stk, false)
	case opcode.OpBranchNil:
		return c.opBranchNil(blk, pc, stk)

	// --- Instrumentation ---
	case opcode.OpTrace:
		operand, err := c.seq.Operand(pc, 0)
		if err != nil {
			return false, err
		}
		_, err = c.call(blk, "trace", blk.Param(0), blk.ConstInt(int64(operand)))
		return false, err
	case opcode.OpGetInlineCache:
		return false, stk.push(blk.ConstInt(qnil))
	case opcode.OpSetInlineCache:
		return false, nil
	case opcode.OpOptCaseDispatch:
		_, err := stk.pop()
		return false, err

	case opcode.OpNop:
		return false, nil

	default:
		return false, errUnsupported(op, pc, stk.depth())
	}
}

// int2fix mirrors the host's INT2FIX encoding: (n << 1) | 1.
func int2fix(n int64) int64 { return (n << 1) | 1 }
