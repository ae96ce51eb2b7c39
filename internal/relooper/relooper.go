// Package relooper recovers structured control flow (nested blocks, loops,
// and multi-way dispatch) from a CFG built from single loops and if/else
// diamonds (see Reloop for what it does not shape), following the
// algorithm described in the Emscripten relooper paper
// (https://dl.acm.org/doi/10.1145/2048147.2048224). It is the external
// "graph-shaping" collaborator spec.md §1/§6 treats as a black box: the
// core backend (internal/wasmtarget) only ever consumes the Shape
// tree this package returns, never its internals.
//
// No published Go module implements this exact contract (see DESIGN.md), so
// it is vendored in-tree as a from-scratch port of the algorithm used by the
// `relooper` Rust crate that original_source depends on.
package relooper

// BlockID identifies a block of the input CFG. It is opaque to this package
// beyond equality and ordering.
type BlockID = uint32

// BranchMode classifies how a single outgoing edge of a Simple block must be
// realised in structured control flow. Names and semantics mirror the
// `relooper::BranchMode` enum original_source consumes.
type BranchMode byte

const (
	// MergedBranch is a fall-through to the immediately following sibling in
	// the same structured chain.
	MergedBranch BranchMode = iota
	// LoopContinue is a backwards edge to the header of loop LoopID.
	LoopContinue
	// LoopBreak is a forward edge out of loop LoopID.
	LoopBreak
	// SetLabelAndBreak is a label-dispatch edge into an enclosing Multiple:
	// write the destination id into the dispatch local, then break out to
	// the Multiple.
	SetLabelAndBreak
	// MergedBranchIntoMulti is a fall-through edge whose target is itself
	// selected by an enclosing Multiple.
	MergedBranchIntoMulti
	// LoopContinueIntoMulti is a backwards edge into a loop header that is
	// itself dispatched via a Multiple.
	LoopContinueIntoMulti
	// LoopBreakIntoMulti is a forward edge out of a loop whose target is
	// dispatched via a Multiple.
	LoopBreakIntoMulti
)

// Branch describes one outgoing edge of a Simple block.
type Branch struct {
	Mode BranchMode
	// LoopID is meaningful for LoopContinue(IntoMulti)/LoopBreak(IntoMulti).
	LoopID uint16
}

// Shape is the common interface implemented by Simple, Loop, and Multiple.
type Shape interface{ isShape() }

// Simple is a single CFG block, optionally followed immediately by a
// dispatch Multiple (Immediate) and/or a sibling continuation (Next).
type Simple struct {
	Label    BlockID
	Branches map[BlockID]Branch
	Immediate Shape // usually a *Multiple, or nil
	Next      Shape // nil at the end of a chain
}

func (*Simple) isShape() {}

// Loop wraps an inner shape that may be re-entered via LoopContinue edges
// targeting LoopID.
type Loop struct {
	LoopID uint16
	Inner  Shape
	Next   Shape
}

func (*Loop) isShape() {}

// HandledBlock is one arm of a Multiple: it runs Inner when the dispatch
// value matches any id in Labels.
type HandledBlock struct {
	Labels []BlockID
	Inner  Shape
}

// Multiple is a multi-way dispatch selector, realised as a chain of
// independent if-guards over a dispatch local (spec.md §4.6).
type Multiple struct {
	Handled []HandledBlock
	Next    Shape
}

func (*Multiple) isShape() {}
