// Package helper is the external-function registry: the set of named
// runtime entry points the translator calls into instead of inlining VM
// semantics (spec.md §4.2). Declarations are created on first use and
// cached, so repeated references to the same helper within one compile
// resolve to the same declaration; across compiles, declarations of the
// same helper carry the same ID.
package helper

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ValueType is one of the three primitive types a helper's signature is
// built from (spec.md §4.2: void, 32-bit int, 64-bit int — no floats, no
// structs).
type ValueType int

const (
	TypeVoid ValueType = iota
	TypeInt32
	TypeInt64
)

func (t ValueType) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt32:
		return "i32"
	case TypeInt64:
		return "i64"
	default:
		return "unknown"
	}
}

// Signature is a helper's declared shape: return type, fixed parameter
// types, and whether it accepts trailing variadic int64 arguments (used by
// rb_funcall and the composite-constructor opcodes).
type Signature struct {
	Return   ValueType
	Params   []ValueType
	Variadic bool
}

// Decl is a declared helper: its signature plus a stable identifier that
// is the same across repeated compiles of the same name, letting callers
// verify idempotence (spec.md §8) without comparing the whole IR
// declaration by structural equality. ID is derived from FullName via a
// namespaced SHA-1 UUID (uuid.NewSHA1), not a random v4 UUID, so it is
// reproducible: two independent Registries declaring the same name always
// produce the same ID.
type Decl struct {
	Module    string
	Name      string
	Signature Signature
	ID        uuid.UUID
}

// FullName is the dotted "module.name" this helper is addressed by.
func (d *Decl) FullName() string { return d.Module + "." + d.Name }

const runtimeModule = "rt"

// declNamespace roots the SHA-1 UUID derivation for Decl.ID; any fixed
// UUID works as a namespace, it just needs to be the same across runs.
var declNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// signatureTable lists every helper name the translator is permitted to
// reference, keyed by name, taken directly from the helper set enumerated
// in spec.md §4.2. An entry missing here is not a load-time error: it
// surfaces as compiler.CompileError{Kind: UnknownHelper} at the point the
// translator tries to resolve it, per spec.md §7.
var signatureTable = map[string]Signature{
	// Synthesized primitives.
	"self_from_cfp":   {Return: TypeInt64, Params: []ValueType{TypeInt64}},
	"push_result":     {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt64}},
	"opt_plus":        {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"opt_minus":       {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"opt_lt":          {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"getlocal_level0": {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt32}},
	"setlocal_level0": {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt32, TypeInt64}},
	"insn_throw":      {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt32, TypeInt64}},
	"defined":         {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt32}},
	"checkmatch":      {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt32}},
	"checkkeyword":    {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt32}},
	"setspecial":      {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt32, TypeInt64}},
	"getspecial":      {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt32, TypeInt32}},
	"concatstrings":   {Return: TypeInt64, Params: []ValueType{TypeInt32}, Variadic: true},
	"concatarray":     {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"splatarray":      {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt32}},
	"setconstant":     {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64}},
	"putspecialobject": {Return: TypeInt64, Params: []ValueType{TypeInt32}},

	// Generic dispatch.
	"rb_funcall": {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64}, Variadic: true},

	// Composite constructors.
	"newarray":     {Return: TypeInt64, Params: []ValueType{TypeInt32}, Variadic: true},
	"duparray":     {Return: TypeInt64, Params: []ValueType{TypeInt64}},
	"newhash":      {Return: TypeInt64, Params: []ValueType{TypeInt32}, Variadic: true},
	"newrange":     {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt32}},
	"toregexp":     {Return: TypeInt64, Params: []ValueType{TypeInt32, TypeInt32}, Variadic: true},
	"tostring":     {Return: TypeInt64, Params: []ValueType{TypeInt64}},
	"freezestring": {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"putstring":    {Return: TypeInt64, Params: []ValueType{TypeInt64}},

	// Global/instance/class-variable accessors, constant lookup.
	"getglobal":            {Return: TypeInt64, Params: []ValueType{TypeInt64}},
	"setglobal":            {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt64}},
	"getinstancevariable":  {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"setinstancevariable":  {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64}},
	"getclassvariable":     {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},
	"setclassvariable":     {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64}},
	"getconstant":          {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64}},

	// Send variants with inline-cache operands, super invocation.
	"send":                   {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64, TypeInt64, TypeInt64, TypeInt32, TypeInt64}, Variadic: true},
	"opt_send_without_block": {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64, TypeInt64, TypeInt64, TypeInt32, TypeInt64}, Variadic: true},
	"invokesuper":            {Return: TypeInt64, Params: []ValueType{TypeInt64, TypeInt64, TypeInt64, TypeInt64, TypeInt64, TypeInt32, TypeInt64}, Variadic: true},

	// Trace hooks.
	"trace": {Return: TypeVoid, Params: []ValueType{TypeInt64, TypeInt32}},

	// opt_* arithmetic/comparison family not covered by a dedicated
	// specialized helper above; these lower to rb_funcall in the
	// translator, so no separate signature entry is required for e.g.
	// opt_mult, opt_div, opt_eq, opt_aref, opt_length, and friends.
}

// Registry declares-on-first-use and caches helper declarations for one
// compile. A fresh Registry is used per compile; Decl.ID is derived from
// the helper name alone, so it is identical across Registries too.
type Registry struct {
	mu    sync.Mutex
	decls map[string]*Decl
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{decls: make(map[string]*Decl)}
}

// UnknownHelperError reports a reference to a name outside signatureTable.
// It is a distinct type (rather than a plain fmt.Errorf string) so the
// orchestrator can classify it into compiler.CompileError{Kind:
// UnknownHelper} with errors.As instead of pattern-matching the message.
type UnknownHelperError struct {
	Name string
}

func (e *UnknownHelperError) Error() string {
	return fmt.Sprintf("helper: unknown helper %q", e.Name)
}

// Get returns the declaration for name, declaring it on first reference.
// It returns an *UnknownHelperError if the name is not in the static
// signature table; the caller (the translator, via the orchestrator) is
// responsible for turning that into a compiler.CompileError{Kind:
// UnknownHelper} with opcode/offset context attached.
func (r *Registry) Get(name string) (*Decl, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.decls[name]; ok {
		return d, nil
	}
	sig, ok := signatureTable[name]
	if !ok {
		return nil, &UnknownHelperError{Name: name}
	}
	d := &Decl{
		Module:    runtimeModule,
		Name:      name,
		Signature: sig,
		ID:        uuid.NewSHA1(declNamespace, []byte(runtimeModule+"."+name)),
	}
	r.decls[name] = d
	return d, nil
}

// Declared returns every helper declared so far, in no particular order;
// used by the orchestrator to log a per-compile helper count.
func (r *Registry) Declared() []*Decl {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Decl, 0, len(r.decls))
	for _, d := range r.decls {
		out = append(out, d)
	}
	return out
}
