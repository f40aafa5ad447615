// Package compiler is the front-end JIT compiler: bytecode -> control-flow
// graph -> SSA IR. It implements basic-block discovery, abstract stack
// evaluation, and φ-node construction at control-flow merges, emitting
// calls into named runtime helpers instead of inlining VM semantics.
package compiler

import (
	"errors"
	"fmt"

	"github.com/yalcin/yarvjit/internal/helper"
	"github.com/yalcin/yarvjit/internal/ir"
	"github.com/yalcin/yarvjit/internal/iseq"
	"github.com/yalcin/yarvjit/internal/jitlog"
	"github.com/yalcin/yarvjit/internal/opcode"
)

// Kind identifies which invariant a CompileError reports (spec.md §7).
type Kind int

const (
	StackOverflow Kind = iota
	StackUnderflow
	UnknownHelper
	UnsupportedOpcode
	StackShapeAtLeave
	StackShapeAtReturn
	InconsistentJoin
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case StackOverflow:
		return "StackOverflow"
	case StackUnderflow:
		return "StackUnderflow"
	case UnknownHelper:
		return "UnknownHelper"
	case UnsupportedOpcode:
		return "UnsupportedOpcode"
	case StackShapeAtLeave:
		return "StackShapeAtLeave"
	case StackShapeAtReturn:
		return "StackShapeAtReturn"
	case InconsistentJoin:
		return "InconsistentJoin"
	case TypeMismatch:
		return "TypeMismatch"
	default:
		return "Unknown"
	}
}

// CompileError is the sole error taxon crossing this package's boundary
// (spec.md §7). It carries enough context — opcode name, byte offset,
// operand-stack depth — for a caller to diagnose a fatal compile failure.
type CompileError struct {
	Kind       Kind
	Opcode     string
	Offset     int
	StackDepth int
	Message    string
}

func (e *CompileError) Error() string {
	if e.Opcode == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s at offset %d (%s, stack depth %d): %s", e.Kind, e.Offset, e.Opcode, e.StackDepth, e.Message)
}

func errUnsupported(op opcode.Op, offset, depth int) error {
	return &CompileError{Kind: UnsupportedOpcode, Opcode: opcode.Name(op), Offset: offset, StackDepth: depth, Message: "translator has no lowering for this opcode"}
}

func errStackShapeAtLeave(depth int) error {
	return &CompileError{Kind: StackShapeAtLeave, Opcode: "leave", StackDepth: depth, Message: fmt.Sprintf("leave reached with stack depth %d, expected 1", depth)}
}

func errInconsistentJoin(numValues, numBlocks int) error {
	return &CompileError{Kind: InconsistentJoin, Message: fmt.Sprintf("pending_values (%d) and pending_blocks (%d) length mismatch", numValues, numBlocks)}
}

// wrapOpError classifies a plain internal error (returned by a stack
// operation or the helper registry) into a CompileError tagged with the
// opcode/offset/depth context known at the point it surfaced — unless it
// is already a CompileError (raised directly, e.g. by opLeave), in which
// case it is returned unchanged. Classification is by type (errors.As
// against the stack layer's *opError and the helper layer's
// *helper.UnknownHelperError), not by matching substrings in Error().
func wrapOpError(err error, op opcode.Op, offset, depth int) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CompileError); ok {
		return ce
	}
	return &CompileError{Kind: classify(err), Opcode: opcode.Name(op), Offset: offset, StackDepth: depth, Message: err.Error()}
}

func classify(err error) Kind {
	var oe *opError
	if errors.As(err, &oe) {
		return oe.kind
	}
	var uhe *helper.UnknownHelperError
	if errors.As(err, &uhe) {
		return UnknownHelper
	}
	return TypeMismatch
}

// CompileISeq is the top-level orchestrator (spec.md §6, §2): it creates
// the module and function, runs leader analysis, primes the block table,
// and invokes the driver at offset 0.
func CompileISeq(seq *iseq.ISeq, functionName string) (*ir.Module, error) {
	log := jitlog.For("driver", seq.Name)

	leaders, err := findLeaders(seq)
	if err != nil {
		log.Error().Err(err).Msg("leader analysis failed")
		return nil, err
	}

	table := newBlockTable(leaders)
	table.setTerminalEnd(seq.Size())

	module := ir.NewModule(functionName)
	fn := module.NewFunction(functionName, 2)

	ctx := &compileCtx{
		seq:     seq,
		module:  module,
		fn:      fn,
		table:   table,
		helpers: helper.NewRegistry(),
		log:     log,
	}

	if err := ctx.driveBlock(0, nil); err != nil {
		log.Error().Err(err).Msg("compilation failed")
		return nil, err
	}

	for _, d := range ctx.helpers.Declared() {
		log.Debug().Str("helper", d.FullName()).Str("id", d.ID.String()).Msg("helper declared")
	}

	log.Info().
		Int("instruction_count", seq.Size()).
		Int("block_count", len(leaders)).
		Int("helper_count", len(ctx.helpers.Declared())).
		Msg("method compiled")

	return module, nil
}
