package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpret_ConstantReturn(t *testing.T) {
	fb := NewFuncBuilder("f", &Signature{Results: []Type{TypeI32}})
	b0 := fb.Block()
	fb.SetCurrentBlock(b0)
	v0 := fb.Iconst(TypeI32, 42)
	fb.Return(v0)

	out, err := Interpret(fb.Build())
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, out)
}

func TestInterpret_CountedLoop(t *testing.T) {
	fb := NewFuncBuilder("f", &Signature{Results: []Type{TypeI32}})
	b0 := fb.Block()
	b1 := fb.Block()
	b2 := fb.Block()
	b3 := fb.Block()

	fb.SetCurrentBlock(b0)
	init := fb.Iconst(TypeI32, 100)
	fb.Jump(b1, init)

	i1 := fb.AddParam(b1, TypeI32)
	fb.SetCurrentBlock(b1)
	cond := fb.IcmpImm(CompareEqual, i1, 0)
	fb.Brnz(cond, b3, i1)
	fb.Jump(b2, i1)

	j := fb.AddParam(b2, TypeI32)
	fb.SetCurrentBlock(b2)
	dec := fb.IaddImm(j, -1)
	fb.Jump(b1, dec)

	r := fb.AddParam(b3, TypeI32)
	fb.SetCurrentBlock(b3)
	fb.Return(r)

	out, err := Interpret(fb.Build())
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, out)
}

func TestInterpret_SignedCompareWraps32Bit(t *testing.T) {
	fb := NewFuncBuilder("f", &Signature{Results: []Type{TypeI32}})
	b0 := fb.Block()
	fb.SetCurrentBlock(b0)
	negOne := fb.Iconst(TypeI32, -1)
	zero := fb.Iconst(TypeI32, 0)
	lt := fb.Icmp(CompareSignedLessThan, negOne, zero)
	fb.Return(lt)

	out, err := Interpret(fb.Build())
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, out)
}

func TestInterpret_AtomicOpFails(t *testing.T) {
	fb := NewFuncBuilder("f", &Signature{Results: []Type{TypeI32}})
	b0 := fb.Block()
	fb.SetCurrentBlock(b0)
	zero := fb.Iconst(TypeI32, 0)
	cas := fb.AtomicCas(zero, zero, zero)
	fb.Return(cas)

	_, err := Interpret(fb.Build())
	require.Error(t, err)
}

func TestInterpret_ArgMismatchFails(t *testing.T) {
	fb := NewFuncBuilder("f", &Signature{Params: []Type{TypeI32}, Results: []Type{TypeI32}})
	b0 := fb.Block()
	p := fb.AddParam(b0, TypeI32)
	fb.SetCurrentBlock(b0)
	fb.Return(p)

	_, err := Interpret(fb.Build())
	require.Error(t, err)
}
