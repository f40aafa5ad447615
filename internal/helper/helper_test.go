package helper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCachesDeclaration(t *testing.T) {
	r := NewRegistry()
	first, err := r.Get("opt_plus")
	require.NoError(t, err)
	second, err := r.Get("opt_plus")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, first.ID, second.ID)
}

func TestGetUnknownHelper(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does_not_exist")
	require.Error(t, err)
	var uhe *UnknownHelperError
	require.ErrorAs(t, err, &uhe)
	require.Equal(t, "does_not_exist", uhe.Name)
}

func TestTwoRegistriesProduceIdenticalIDsForTheSameName(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()
	d1, err := r1.Get("opt_minus")
	require.NoError(t, err)
	d2, err := r2.Get("opt_minus")
	require.NoError(t, err)

	require.Equal(t, d1.Signature, d2.Signature)
	require.Equal(t, d1.ID, d2.ID)

	other, err := r1.Get("opt_plus")
	require.NoError(t, err)
	require.NotEqual(t, d1.ID, other.ID)
}

func TestDeclaredReturnsAllDeclarations(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("opt_plus")
	require.NoError(t, err)
	_, err = r.Get("opt_minus")
	require.NoError(t, err)
	require.Len(t, r.Declared(), 2)
}

func TestRequiredHelperSetIsDeclared(t *testing.T) {
	required := []string{
		"self_from_cfp", "push_result", "opt_plus", "opt_minus", "opt_lt",
		"getlocal_level0", "setlocal_level0", "insn_throw", "rb_funcall",
		"newarray", "duparray", "concatarray", "splatarray", "newhash",
		"newrange", "toregexp", "concatstrings", "tostring", "freezestring",
		"getglobal", "setglobal", "getinstancevariable", "setinstancevariable",
		"getclassvariable", "setclassvariable", "getconstant", "setconstant",
		"getspecial", "setspecial", "putspecialobject", "send",
		"opt_send_without_block", "invokesuper", "trace",
	}
	r := NewRegistry()
	for _, name := range required {
		_, err := r.Get(name)
		require.NoErrorf(t, err, "helper %q should be declarable", name)
	}
}
