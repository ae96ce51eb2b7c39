package wasmtarget

import (
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/relooper"
)

// compileShape implements C6: consume the shaped tree returned by the
// external relooper and drive C5, opening/closing target-VM loops and
// label-dispatch scaffolds as it goes (spec.md §4.6).
//
// dispatchLocal is the I32 local an enclosing Simple allocated for its
// Immediate Multiple, if shape is that Multiple (or sits beneath it without
// an intervening Simple — which never happens in a well-formed tree, but
// compileMultiple checks explicitly rather than assuming it).
func (t *tables) compileShape(shape relooper.Shape, dispatchLocal *LocalID, frames []frame) ([]Instr, error) {
	switch s := shape.(type) {
	case nil:
		return nil, nil
	case *relooper.Simple:
		return t.compileSimple(s, dispatchLocal, frames)
	case *relooper.Loop:
		return t.compileLoop(s, frames)
	case *relooper.Multiple:
		return t.compileMultiple(s, dispatchLocal, frames)
	default:
		panic("wasmtarget: BUG: unrecognised shape node type")
	}
}

func (t *tables) compileSimple(s *relooper.Simple, _ *LocalID, frames []frame) ([]Instr, error) {
	cbt := &canBranchTo{fromRelooper: s.Branches}

	var innerDispatch *LocalID
	if m, ok := s.Immediate.(*relooper.Multiple); ok {
		local := t.locals.alloc(I32)
		lc := make(map[relooper.BlockID]LocalID, len(m.Handled))
		for _, h := range m.Handled {
			for _, lbl := range h.Labels {
				lc[lbl] = local
			}
		}
		cbt.locallyComputed = lc
		innerDispatch = &local
	}

	var out []Instr
	if err := t.emitBlock(&out, ir.BlockID(s.Label), cbt, frames); err != nil {
		return nil, err
	}

	if s.Immediate != nil {
		rest, err := t.compileShape(s.Immediate, innerDispatch, frames)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}
	if s.Next != nil {
		rest, err := t.compileShape(s.Next, nil, frames)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}
	return out, nil
}

// compileLoop wraps the loop body in `block { loop { ... } }`: breaking is a
// br to the (outer) block, continuing is a br to the (inner) loop, matching
// the standard Emscripten-relooper-to-structured-control-flow idiom.
func (t *tables) compileLoop(l *relooper.Loop, frames []frame) ([]Instr, error) {
	innerFrames := withLoop(frames, l.LoopID)
	t.knownLoops[l.LoopID] = true

	inner, err := t.compileShape(l.Inner, nil, innerFrames)
	if err != nil {
		return nil, err
	}

	out := []Instr{{
		Op: OpBlock,
		Body: []Instr{{
			Op:   OpLoop,
			Body: inner,
		}},
	}}

	if l.Next != nil {
		rest, err := t.compileShape(l.Next, nil, frames)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}
	return out, nil
}

// compileMultiple realises a dispatch selector as a chain of independent
// if-guards over dispatchLocal (spec.md §4.6 Multiple row).
func (t *tables) compileMultiple(m *relooper.Multiple, dispatchLocal *LocalID, frames []frame) ([]Instr, error) {
	if dispatchLocal == nil {
		return nil, errIntegrity("Multiple shape reached with no dispatch local set by an enclosing Simple")
	}

	innerFrames := withAnon(frames)
	var out []Instr
	for _, h := range m.Handled {
		if len(h.Labels) == 0 {
			continue
		}
		var guard []Instr
		for idx, lbl := range h.Labels {
			guard = append(guard, localGet(*dispatchLocal), i32Const(int32(lbl)), Instr{Op: OpI32Eq})
			if idx > 0 {
				guard = append(guard, Instr{Op: OpI32Or})
			}
		}
		inner, err := t.compileShape(h.Inner, nil, innerFrames)
		if err != nil {
			return nil, err
		}
		out = append(out, guard...)
		out = append(out, Instr{Op: OpIf, Body: inner})
	}

	if m.Next == nil {
		out = append(out, Instr{Op: OpUnreachable})
		return out, nil
	}
	rest, err := t.compileShape(m.Next, nil, frames)
	if err != nil {
		return nil, err
	}
	return append(out, rest...), nil
}
