package wasmtarget

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/relooper"
)

// These tests exercise the three *IntoMulti branch modes directly against
// hand-built canBranchTo/frame state, rather than through relooper.Reloop:
// Reloop itself never produces them (see DESIGN.md/spec.md §9 Open Question
// (b)), since they only arise from irreducible CFGs original_source's own
// relooper does not attempt to shape. spec.md requires test coverage for
// them regardless.

func TestRealizeUnconditional_MergedBranchIntoMulti(t *testing.T) {
	local := LocalID(3)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{9: {Mode: relooper.MergedBranchIntoMulti}},
		locallyComputed: map[relooper.BlockID]LocalID{9: local},
	}

	var out []Instr
	tb := &tables{}
	require.NoError(t, tb.realizeUnconditional(&out, 9, cbt, nil))

	require.Equal(t, []Instr{i32Const(9), localSet(local)}, out)
}

func TestRealizeUnconditional_LoopBreakIntoMulti(t *testing.T) {
	local := LocalID(1)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{4: {Mode: relooper.LoopBreakIntoMulti, LoopID: 5}},
		locallyComputed: map[relooper.BlockID]LocalID{4: local},
	}
	frames := []frame{{kind: frameLoopBreak, loopID: 5}, {kind: frameLoopContinue, loopID: 5}}

	var out []Instr
	tb := &tables{}
	require.NoError(t, tb.realizeUnconditional(&out, 4, cbt, frames))

	require.Equal(t, []Instr{
		i32Const(4), localSet(local),
		{Op: OpBr, Label: 1},
	}, out)
}

func TestRealizeUnconditional_LoopContinueIntoMulti(t *testing.T) {
	local := LocalID(2)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{4: {Mode: relooper.LoopContinueIntoMulti, LoopID: 5}},
		locallyComputed: map[relooper.BlockID]LocalID{4: local},
	}
	frames := []frame{{kind: frameLoopBreak, loopID: 5}, {kind: frameLoopContinue, loopID: 5}}

	var out []Instr
	tb := &tables{}
	require.NoError(t, tb.realizeUnconditional(&out, 4, cbt, frames))

	require.Equal(t, []Instr{
		i32Const(4), localSet(local),
		{Op: OpBr, Label: 0},
	}, out)
}

func TestRealizeUnconditional_LoopBreakIntoMulti_UnknownLoopFails(t *testing.T) {
	local := LocalID(1)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{4: {Mode: relooper.LoopBreakIntoMulti, LoopID: 99}},
		locallyComputed: map[relooper.BlockID]LocalID{4: local},
	}

	var out []Instr
	tb := &tables{}
	require.Error(t, tb.realizeUnconditional(&out, 4, cbt, nil))
}

func TestRealizeConditional_LoopBreakIntoMulti(t *testing.T) {
	local := LocalID(6)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{8: {Mode: relooper.LoopBreakIntoMulti, LoopID: 7}},
		locallyComputed: map[relooper.BlockID]LocalID{8: local},
	}
	frames := []frame{{kind: frameLoopBreak, loopID: 7}}

	var out []Instr
	tb := &tables{}
	require.NoError(t, tb.realizeConditional(&out, nil, nil, 8, cbt, frames))

	require.Equal(t, []Instr{{
		Op: OpIf,
		Body: []Instr{
			i32Const(8), localSet(local),
			{Op: OpBr, Label: 1},
		},
		Else: nil,
	}}, out)
}

func TestRealizeConditional_LoopContinueIntoMulti(t *testing.T) {
	local := LocalID(6)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{8: {Mode: relooper.LoopContinueIntoMulti, LoopID: 7}},
		locallyComputed: map[relooper.BlockID]LocalID{8: local},
	}
	frames := []frame{{kind: frameLoopContinue, loopID: 7}}

	var out []Instr
	tb := &tables{}
	require.NoError(t, tb.realizeConditional(&out, nil, nil, 8, cbt, frames))

	require.Equal(t, []Instr{{
		Op: OpIf,
		Body: []Instr{
			i32Const(8), localSet(local),
			{Op: OpBr, Label: 1},
		},
		Else: nil,
	}}, out)
}

func TestRealizeConditional_MergedBranchIntoMulti(t *testing.T) {
	local := LocalID(6)
	cbt := &canBranchTo{
		fromRelooper:    map[relooper.BlockID]relooper.Branch{8: {Mode: relooper.MergedBranchIntoMulti}},
		locallyComputed: map[relooper.BlockID]LocalID{8: local},
	}

	var out []Instr
	tb := &tables{}
	require.NoError(t, tb.realizeConditional(&out, nil, nil, 8, cbt, nil))

	require.Equal(t, []Instr{{
		Op:   OpIf,
		Body: []Instr{i32Const(8), localSet(local)},
		Else: nil,
	}}, out)
}

func TestCompileMultiple(t *testing.T) {
	local := LocalID(4)
	m := &relooper.Multiple{
		Handled: []relooper.HandledBlock{
			{Labels: []relooper.BlockID{1, 2}, Inner: nil},
		},
	}

	tb := &tables{}
	out, err := tb.compileMultiple(m, &local, nil)
	require.NoError(t, err)

	require.Equal(t, []Instr{
		localGet(local), i32Const(1), {Op: OpI32Eq},
		localGet(local), i32Const(2), {Op: OpI32Eq}, {Op: OpI32Or},
		{Op: OpIf, Body: nil},
		{Op: OpUnreachable},
	}, out)
}

func TestCompileMultiple_NoDispatchLocalFails(t *testing.T) {
	tb := &tables{}
	_, err := tb.compileMultiple(&relooper.Multiple{}, nil, nil)
	require.Error(t, err)
}
