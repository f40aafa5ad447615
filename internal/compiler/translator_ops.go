package compiler

import (
	"hash/fnv"

	"github.com/yalcin/yarvjit/internal/ir"
)

// methodID maps a method name to a stable synthetic method id: the real
// host VM would resolve a method name to an interned symbol id, which this
// front end does not have access to, so a content hash stands in. Unlike
// len(name), distinct names hash to distinct ids (barring a 64-bit
// collision), so "*"/"/" and "=="/"[]" no longer compile to the same
// rb_funcall target.
func methodID(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

// unaryRefHelper pops nothing: the id operand is immediate. It calls
// helperName(id) and pushes the result. Used by getglobal.
func (c *compileCtx) unaryRefHelper(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	id, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, blk.ConstInt(int64(id)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

// getHelperSelfPlusID lowers getinstancevariable: helperName(self, id).
func (c *compileCtx) getHelperSelfPlusID(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	id, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	self, err := c.call(blk, "self_from_cfp", blk.Param(1))
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, self, blk.ConstInt(int64(id)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

// setHelperSelfPlusID lowers setinstancevariable/setglobal: pop the value,
// call helperName(self_or_nothing, id, value).
func (c *compileCtx) setHelperSelfPlusID(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	id, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	val, err := stk.pop()
	if err != nil {
		return err
	}
	if helperName == "setglobal" {
		_, err = c.call(blk, helperName, blk.ConstInt(int64(id)), val)
		return err
	}
	self, err := c.call(blk, "self_from_cfp", blk.Param(1))
	if err != nil {
		return err
	}
	_, err = c.call(blk, helperName, self, blk.ConstInt(int64(id)), val)
	return err
}

// getHelperFramePlusID lowers getclassvariable: helperName(frame, id).
func (c *compileCtx) getHelperFramePlusID(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	id, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, blk.Param(1), blk.ConstInt(int64(id)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

// setHelperFramePlusID lowers setclassvariable: pop value, helperName(frame, id, value).
func (c *compileCtx) setHelperFramePlusID(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	id, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	val, err := stk.pop()
	if err != nil {
		return err
	}
	_, err = c.call(blk, helperName, blk.Param(1), blk.ConstInt(int64(id)), val)
	return err
}

// getHelperThreadPlusChain lowers getconstant: helperName(thread, chain_id).
func (c *compileCtx) getHelperThreadPlusChain(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	id, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, blk.Param(0), blk.ConstInt(int64(id)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

// setConstant lowers setconstant: pop value, pop name/chain ref, call
// setconstant(thread, name, value).
func (c *compileCtx) setConstant(blk *ir.Block, stk *abstractStack) error {
	val, err := stk.pop()
	if err != nil {
		return err
	}
	name, err := stk.pop()
	if err != nil {
		return err
	}
	_, err = c.call(blk, "setconstant", blk.Param(0), name, val)
	return err
}

func (c *compileCtx) getSpecial(blk *ir.Block, pc int, stk *abstractStack) error {
	key, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	typ, err := c.seq.Operand(pc, 1)
	if err != nil {
		return err
	}
	v, err := c.call(blk, "getspecial", blk.Param(1), blk.ConstInt(int64(key)), blk.ConstInt(int64(typ)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) setSpecial(blk *ir.Block, pc int, stk *abstractStack) error {
	key, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	val, err := stk.pop()
	if err != nil {
		return err
	}
	_, err = c.call(blk, "setspecial", blk.Param(1), blk.ConstInt(int64(key)), val)
	return err
}

func (c *compileCtx) getLocalWC0(blk *ir.Block, pc int, stk *abstractStack) error {
	slot, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	v, err := c.call(blk, "getlocal_level0", blk.Param(1), blk.ConstInt(int64(slot)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) setLocalWC0(blk *ir.Block, pc int, stk *abstractStack) error {
	slot, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	val, err := stk.pop()
	if err != nil {
		return err
	}
	_, err = c.call(blk, "setlocal_level0", blk.Param(1), blk.ConstInt(int64(slot)), val)
	return err
}

// dupN duplicates the top n entries, per spec.md §4.5.
func (c *compileCtx) dupN(blk *ir.Block, pc int, stk *abstractStack) error {
	n, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	vals := make([]*ir.Value, n)
	for i := 0; i < int(n); i++ {
		v, err := stk.topn(int(n) - 1 - i)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	for _, v := range vals {
		if err := stk.push(v); err != nil {
			return err
		}
	}
	return nil
}

// swap exchanges the top two stack entries.
func (c *compileCtx) swap(stk *abstractStack) error {
	a, err := stk.pop()
	if err != nil {
		return err
	}
	b, err := stk.pop()
	if err != nil {
		return err
	}
	if err := stk.push(a); err != nil {
		return err
	}
	return stk.push(b)
}

// topN pushes a copy of the n-th entry from the top.
func (c *compileCtx) topN(blk *ir.Block, pc int, stk *abstractStack) error {
	n, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	v, err := stk.topn(int(n))
	if err != nil {
		return err
	}
	return stk.push(v)
}

// setNOp overwrites the n-th entry from the top with the current top.
func (c *compileCtx) setNOp(blk *ir.Block, pc int, stk *abstractStack) error {
	n, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	top, err := stk.topn(0)
	if err != nil {
		return err
	}
	return stk.setn(int(n), top)
}

// newArray pops n elements and calls newarray(n, elems...); newHash does
// the same with its operand n counting stack entries (keys and values
// interleaved), replayed in source order so key/value pairing and key
// order are preserved (spec.md §4.5's explicit requirement).
func (c *compileCtx) newArray(blk *ir.Block, pc int, stk *abstractStack) error {
	n, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	elems, err := popN(stk, int(n))
	if err != nil {
		return err
	}
	args := append([]*ir.Value{blk.ConstInt(int64(n))}, elems...)
	v, err := c.call(blk, "newarray", args...)
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) dupArray(blk *ir.Block, pc int, stk *abstractStack) error {
	ref, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	v, err := c.call(blk, "duparray", blk.ConstInt(int64(ref)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) splatArray(blk *ir.Block, pc int, stk *abstractStack) error {
	flag, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	arr, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "splatarray", arr, blk.ConstInt(int64(flag)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) newHash(blk *ir.Block, pc int, stk *abstractStack) error {
	n, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	pairs, err := popN(stk, int(n))
	if err != nil {
		return err
	}
	args := append([]*ir.Value{blk.ConstInt(int64(n))}, pairs...)
	v, err := c.call(blk, "newhash", args...)
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) newRange(blk *ir.Block, pc int, stk *abstractStack) error {
	exclFlag, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	high, err := stk.pop()
	if err != nil {
		return err
	}
	low, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "newrange", low, high, blk.ConstInt(int64(exclFlag)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) toRegexp(blk *ir.Block, pc int, stk *abstractStack) error {
	opt, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	n, err := c.seq.Operand(pc, 1)
	if err != nil {
		return err
	}
	parts, err := popN(stk, int(n))
	if err != nil {
		return err
	}
	args := append([]*ir.Value{blk.ConstInt(int64(opt)), blk.ConstInt(int64(n))}, parts...)
	v, err := c.call(blk, "toregexp", args...)
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) concatStrings(blk *ir.Block, pc int, stk *abstractStack) error {
	n, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	parts, err := popN(stk, int(n))
	if err != nil {
		return err
	}
	args := append([]*ir.Value{blk.ConstInt(int64(n))}, parts...)
	v, err := c.call(blk, "concatstrings", args...)
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) freezeString(blk *ir.Block, pc int, stk *abstractStack) error {
	name, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	s, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "freezestring", s, blk.ConstInt(int64(name)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) unaryStackHelper(blk *ir.Block, stk *abstractStack, helperName string) error {
	a, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, a)
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) binaryHelper(blk *ir.Block, stk *abstractStack, helperName string) error {
	b, err := stk.pop()
	if err != nil {
		return err
	}
	a, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, a, b)
	if err != nil {
		return err
	}
	return stk.push(v)
}

// dispatch lowers send/opt_send_without_block/invokesuper: pop receiver
// plus ci.orig_argc args, call helperName(thread, frame, ci, cc, iseq,
// stack_size, receiver, args...) (spec.md §4.5).
func (c *compileCtx) dispatch(blk *ir.Block, pc int, stk *abstractStack, helperName string) error {
	ci, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	cc, err := c.seq.Operand(pc, 1)
	if err != nil {
		return err
	}
	argc := int(ci & 0xff) // low byte carries orig_argc by convention
	args, err := popN(stk, argc)
	if err != nil {
		return err
	}
	recv, err := stk.pop()
	if err != nil {
		return err
	}
	callArgs := append([]*ir.Value{
		blk.Param(0), blk.Param(1),
		blk.ConstInt(int64(ci)), blk.ConstInt(int64(cc)),
		blk.ConstInt(qnil), blk.ConstInt(int64(stk.depth())),
		recv,
	}, args...)
	v, err := c.call(blk, helperName, callArgs...)
	if err != nil {
		return err
	}
	return stk.push(v)
}

// specializedBinOp lowers opt_plus/opt_minus/opt_lt to their dedicated
// helper: it pops the two stack operands and calls helperName(a, b); the
// instruction's (ci, cc) operand words are not read (spec.md §4.5).
func (c *compileCtx) specializedBinOp(blk *ir.Block, stk *abstractStack, helperName string) error {
	b, err := stk.pop()
	if err != nil {
		return err
	}
	a, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, helperName, a, b)
	if err != nil {
		return err
	}
	return stk.push(v)
}

// funcallBinOp lowers a generic opt_* binary comparison/arithmetic opcode
// through rb_funcall with the methodID of the corresponding operator name.
func (c *compileCtx) funcallBinOp(blk *ir.Block, stk *abstractStack, methodName string) error {
	b, err := stk.pop()
	if err != nil {
		return err
	}
	a, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "rb_funcall", blk.Param(0), a, blk.ConstInt(methodID(methodName)), b)
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) funcallUnaryOp(blk *ir.Block, stk *abstractStack, methodName string) error {
	a, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "rb_funcall", blk.Param(0), a, blk.ConstInt(methodID(methodName)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) funcallTernaryOp(blk *ir.Block, stk *abstractStack, methodName string) error {
	val, err := stk.pop()
	if err != nil {
		return err
	}
	idx, err := stk.pop()
	if err != nil {
		return err
	}
	recv, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "rb_funcall", blk.Param(0), recv, blk.ConstInt(methodID(methodName)), idx, val)
	if err != nil {
		return err
	}
	return stk.push(v)
}

// optArefWith/optAsetWith resurrect an interned string operand and
// synthesize a funcall directly, without re-entering the generic funcall
// helper (which would itself re-pop the stack) — spec.md §4.5.
func (c *compileCtx) optArefWith(blk *ir.Block, pc int, stk *abstractStack) error {
	key, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	recv, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "rb_funcall", blk.Param(0), recv, blk.ConstInt(methodID("[]")), blk.ConstInt(int64(key)))
	if err != nil {
		return err
	}
	return stk.push(v)
}

func (c *compileCtx) optAsetWith(blk *ir.Block, pc int, stk *abstractStack) error {
	key, err := c.seq.Operand(pc, 0)
	if err != nil {
		return err
	}
	val, err := stk.pop()
	if err != nil {
		return err
	}
	recv, err := stk.pop()
	if err != nil {
		return err
	}
	v, err := c.call(blk, "rb_funcall", blk.Param(0), recv, blk.ConstInt(methodID("[]=")), blk.ConstInt(int64(key)), val)
	if err != nil {
		return err
	}
	return stk.push(v)
}
