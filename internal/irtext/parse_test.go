package irtext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

func TestParse_ConstantReturn(t *testing.T) {
	fns, err := Parse(`
		func constant42() -> i32 {
		  block0():
		    v0 = iconst i32 42
		    return v0
		}
	`)
	require.NoError(t, err)
	require.Len(t, fns, 1)

	fn := fns[0]
	require.Equal(t, "constant42", fn.Name)
	require.Empty(t, fn.Sig.Params)
	require.Equal(t, []ir.Type{ir.TypeI32}, fn.Sig.Results)
	require.Len(t, fn.Blocks, 1)
	require.Len(t, fn.Blocks[0].Instructions(), 2)
}

func TestParse_Branch(t *testing.T) {
	fns, err := Parse(`
		func choose(i32) -> i32 {
		  block0(v0: i32):
		    v1 = iconst i32 0
		    v2 = icmp eq v0, v1
		    brz v2, block2()
		    jump block1()
		  block1():
		    v3 = iconst i32 1
		    return v3
		  block2():
		    v4 = iconst i32 2
		    return v4
		}
	`)
	require.NoError(t, err)
	require.Len(t, fns, 1)
	fn := fns[0]
	require.Len(t, fn.Blocks, 3)
	require.Equal(t, []ir.BlockID{2, 1}, fn.Blocks[0].Successors())
}

func TestParse_MultipleFunctions(t *testing.T) {
	fns, err := Parse(`
		func a() -> i32 { block0(): v0 = iconst i32 1 return v0 }
		func b() -> i32 { block0(): v0 = iconst i32 2 return v0 }
	`)
	require.NoError(t, err)
	require.Len(t, fns, 2)
	require.Equal(t, "a", fns[0].Name)
	require.Equal(t, "b", fns[1].Name)
}

func TestParse_UnknownOpcodeFails(t *testing.T) {
	_, err := Parse(`func f() { block0(): v0 = frobnicate return }`)
	require.Error(t, err)
}
