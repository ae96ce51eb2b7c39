package relooper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestReloop_Diamond shapes the if/else diamond from spec.md scenario 4:
// entry branches to b1 or b2, both of which merge into b3.
func TestReloop_Diamond(t *testing.T) {
	edges := Edges{
		0: {1, 2},
		1: {3},
		2: {3},
		3: nil,
	}
	shape := Reloop(edges, 0)

	simple, ok := shape.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(0), simple.Label)
	require.Len(t, simple.Branches, 2)
	require.Equal(t, SetLabelAndBreak, simple.Branches[1].Mode)
	require.Equal(t, SetLabelAndBreak, simple.Branches[2].Mode)

	multi, ok := simple.Immediate.(*Multiple)
	require.True(t, ok)
	require.Len(t, multi.Handled, 2)

	next, ok := multi.Next.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(3), next.Label)
}

// TestReloop_CountedLoop shapes the counted-loop CFG of spec.md scenario 3:
// b0 (init) -> b1 (header) -> b2 (body, back edge to b1) or b3 (exit).
func TestReloop_CountedLoop(t *testing.T) {
	edges := Edges{
		0: {1},
		1: {2, 3},
		2: {1},
		3: nil,
	}
	shape := Reloop(edges, 0)

	outer, ok := shape.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(0), outer.Label)

	loop, ok := outer.Next.(*Loop)
	require.True(t, ok)

	header, ok := loop.Inner.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(1), header.Label)
	require.Equal(t, MergedBranch, header.Branches[2].Mode)
	require.Equal(t, LoopBreak, header.Branches[3].Mode)

	body, ok := header.Next.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(2), body.Label)
	require.Equal(t, LoopContinue, body.Branches[1].Mode)

	exit, ok := loop.Next.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(3), exit.Label)
}

func TestReloop_StraightLine(t *testing.T) {
	edges := Edges{0: {1}, 1: nil}
	shape := Reloop(edges, 0)

	first, ok := shape.(*Simple)
	require.True(t, ok)
	require.Equal(t, MergedBranch, first.Branches[1].Mode)

	second, ok := first.Next.(*Simple)
	require.True(t, ok)
	require.Equal(t, BlockID(1), second.Label)
	require.Nil(t, second.Next)
}

// TestReloop_StraightLine_ShapeEqual diffs the whole shaped tree against a
// literal expectation in one shot, rather than descending field by field as
// the other tests do.
func TestReloop_StraightLine_ShapeEqual(t *testing.T) {
	edges := Edges{0: {1}, 1: nil}
	got := Reloop(edges, 0)

	want := &Simple{
		Label:    0,
		Branches: map[BlockID]Branch{1: {Mode: MergedBranch}},
		Next: &Simple{
			Label:    1,
			Branches: map[BlockID]Branch{},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("shaped tree mismatch (-want +got):\n%s", diff)
	}
}

func TestReloop_SingleBlock(t *testing.T) {
	shape := Reloop(Edges{0: nil}, 0)
	s, ok := shape.(*Simple)
	require.True(t, ok)
	require.Empty(t, s.Branches)
	require.Nil(t, s.Next)
	require.Nil(t, s.Immediate)
}
