package module

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

func buildConstFn(name string) *ir.Function {
	fb := ir.NewFuncBuilder(name, &ir.Signature{Results: []ir.Type{ir.TypeI32}})
	b0 := fb.Block()
	fb.SetCurrentBlock(b0)
	v0 := fb.Iconst(ir.TypeI32, 7)
	fb.Return(v0)
	return fb.Build()
}

func TestBuilder_DeclareDefineEmit(t *testing.T) {
	b := NewBuilder(nil)
	fn := buildConstFn("seven")

	require.NoError(t, b.DeclareFunction(FuncDecl{Name: "seven", Linkage: Export, Sig: fn.Sig}))
	require.NoError(t, b.DefineFunction(fn))

	cf, ok := b.Compiled("seven")
	require.True(t, ok)
	require.NotNil(t, cf)

	out, err := b.Emit()
	require.NoError(t, err)
	require.True(t, len(out) > len(magicAndVersionForTest))
	require.Equal(t, magicAndVersionForTest, out[:8])
}

// magicAndVersionForTest mirrors internal/wasmbin's header so this test
// doesn't need to import it just to check a constant.
var magicAndVersionForTest = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func TestBuilder_RejectsReservedLinkage(t *testing.T) {
	b := NewBuilder(nil)
	err := b.DeclareFunction(FuncDecl{Name: "x", Linkage: Import, Sig: &ir.Signature{}})
	require.Error(t, err)
}

func TestBuilder_DefineWithoutDeclareFails(t *testing.T) {
	b := NewBuilder(nil)
	err := b.DefineFunction(buildConstFn("undeclared"))
	require.Error(t, err)
}

func TestBuilder_CompileFunctionsConcurrent(t *testing.T) {
	b := NewBuilder(nil)
	var fns []*ir.Function
	for _, name := range []string{"a", "b", "c"} {
		fn := buildConstFn(name)
		require.NoError(t, b.DeclareFunction(FuncDecl{Name: name, Linkage: Export, Sig: fn.Sig}))
		fns = append(fns, fn)
	}
	require.NoError(t, b.CompileFunctions(context.Background(), fns))

	for _, name := range []string{"a", "b", "c"} {
		_, ok := b.Compiled(name)
		require.True(t, ok)
	}
}
