package wasmtarget

// frameKind classifies an open, nested target-VM scope for the purpose of
// resolving a structured branch's relative depth (spec.md §3 "Label").
type frameKind byte

const (
	// frameAnon is an if-then/else arm: it adds one level of nesting but is
	// never itself a branch target.
	frameAnon frameKind = iota
	// frameLoopBreak is the Block wrapping a Loop: LoopBreak's target.
	frameLoopBreak
	// frameLoopContinue is the Loop itself: LoopContinue's target.
	frameLoopContinue
)

type frame struct {
	kind   frameKind
	loopID uint16
}

// depthFor searches frames innermost-first for a frame matching (kind, id)
// and returns its relative branch depth (0 = innermost). ok is false if no
// enclosing scope matches, an integrity violation (a loop id unknown at
// this point in the tree).
func depthFor(frames []frame, kind frameKind, id uint16) (uint32, bool) {
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].kind == kind && frames[i].loopID == id {
			return uint32(len(frames) - 1 - i), true
		}
	}
	return 0, false
}

func withAnon(frames []frame) []frame {
	out := make([]frame, len(frames), len(frames)+1)
	copy(out, frames)
	return append(out, frame{kind: frameAnon})
}

func withLoop(frames []frame, loopID uint16) []frame {
	out := make([]frame, len(frames), len(frames)+2)
	copy(out, frames)
	out = append(out, frame{kind: frameLoopBreak, loopID: loopID})
	return append(out, frame{kind: frameLoopContinue, loopID: loopID})
}
