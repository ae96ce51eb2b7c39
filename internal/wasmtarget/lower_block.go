package wasmtarget

import (
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/relooper"
)

// canBranchTo is the per-block bundle C6 builds for C5 (spec.md §4.6
// "CanBranchTo"): fromRelooper carries the edge kinds the shaped tree
// assigned to this block's outgoing edges; locallyComputed (only present
// when this block is immediately followed by a Multiple dispatch) says
// which destination ids must have their id written into a dispatch local
// before the edge is realised.
type canBranchTo struct {
	fromRelooper    map[relooper.BlockID]relooper.Branch
	locallyComputed map[relooper.BlockID]LocalID
}

// emitBlock implements C5: walk blockID's instructions in order, materialise
// NormalUse non-terminators into their locals via C4 (other values are
// inlined at their uses by C3), and realise each edge instruction against
// cbt.
func (t *tables) emitBlock(out *[]Instr, blockID ir.BlockID, cbt *canBranchTo, frames []frame) error {
	blk := t.fn.BlockByID(blockID)
	return t.emitFrom(out, blk, blk.Instructions(), cbt, frames)
}

// emitFrom lowers instrs (a suffix of some block's instruction list) in
// order. It is its own function (rather than inlined into emitBlock) so
// that the conditional-branch case can recurse into "the remainder of the
// current block" per spec.md §4.6's MergedBranch row.
func (t *tables) emitFrom(out *[]Instr, blk *ir.Block, instrs []*ir.Instruction, cbt *canBranchTo, frames []frame) error {
	for i, inst := range instrs {
		switch inst.Opcode {
		case ir.OpcodeJump:
			dest, args := inst.Edge()
			if err := t.writeParams(out, dest, args); err != nil {
				return err
			}
			return t.realizeUnconditional(out, relooper.BlockID(dest.ID), cbt, frames)

		case ir.OpcodeBrz, ir.OpcodeBrnz:
			dest, args := inst.Edge()
			if err := t.writeParams(out, dest, args); err != nil {
				return err
			}
			cond := inst.Condition()
			if err := t.emitValue(out, cond); err != nil {
				return err
			}
			kind, err := operandKind(t.fn, cond)
			if err != nil {
				return err
			}
			// Always normalise explicitly to a take/don't-take 1/0 value:
			// this IR carries no distinct boolean type (spec.md §4.1 treats
			// booleans as plain integers), so there is no signal by which
			// to apply spec.md §4.5's "boolean-typed conditions need no
			// normalisation" carve-out; always normalising is semantically
			// safe and costs at most one redundant comparison (see
			// DESIGN.md).
			*out = append(*out, constInstr(kind, 0))
			if inst.Opcode == ir.OpcodeBrz {
				eq, err := cmpOp(ir.CompareEqual, kind)
				if err != nil {
					return err
				}
				*out = append(*out, Instr{Op: eq})
			} else {
				ne, err := cmpOp(ir.CompareNotEqual, kind)
				if err != nil {
					return err
				}
				*out = append(*out, Instr{Op: ne})
			}
			return t.realizeConditional(out, blk, instrs[i+1:], relooper.BlockID(dest.ID), cbt, frames)

		case ir.OpcodeReturn:
			for _, v := range inst.Args() {
				if err := t.emitValue(out, v); err != nil {
					return err
				}
			}
			*out = append(*out, Instr{Op: OpReturn})
			return nil

		default:
			if inst.Opcode == ir.OpcodeAtomicCas || inst.Opcode == ir.OpcodeAtomicRmw {
				return errUnsupportedOnTarget(inst.Opcode)
			}
			// SingleUse and Rematerialise values are pushed inline at each use
			// by emitValue, so nothing is emitted for them here. A NormalUse
			// value is computed once, here, and stored into its local; its
			// uses then read that local. The operand stack is left unchanged.
			v, ok := inst.Result()
			if !ok || t.classOf(v) != NormalUse {
				continue
			}
			if err := t.emitInst(out, inst); err != nil {
				return err
			}
			kind, err := MapType(inst.Type())
			if err != nil {
				return err
			}
			l := t.locals.alloc(kind)
			*out = append(*out, localSet(l))
			t.valueLocal[v] = l
		}
	}
	return nil
}

// writeParams emits the predecessor side of block-argument passing: push
// each argument (C3), then store it into the corresponding parameter local
// of dest, in positional order, always before any branch is realised
// (spec.md §4.5 bullet 1, invariant 2).
func (t *tables) writeParams(out *[]Instr, dest *ir.Block, args []ir.Value) error {
	if len(args) != len(dest.Params) {
		return errIntegrity("edge to block %d passes %d args for %d parameters", dest.ID, len(args), len(dest.Params))
	}
	for i, a := range args {
		if err := t.emitValue(out, a); err != nil {
			return err
		}
		l, ok := t.blockParamLocal(dest.ID, dest.Params[i])
		if !ok {
			return errIntegrity("block %d parameter %d has no allocated local", dest.ID, i)
		}
		*out = append(*out, localSet(l))
	}
	return nil
}

// writeDispatch, if cbt has a locallyComputed entry for dest, appends the
// dispatch-local write (push dest's numeric id, then local.set) and returns
// true. Safe to call unconditionally.
func writeDispatch(out *[]Instr, dest relooper.BlockID, cbt *canBranchTo) bool {
	l, ok := cbt.locallyComputed[dest]
	if !ok {
		return false
	}
	*out = append(*out, i32Const(int32(dest)), localSet(l))
	return true
}

// realizeUnconditional handles an unconditional edge (Jump): no fall-through
// skipping is needed since it is the block's last instruction, so every
// mode reduces to "optionally write the dispatch local, optionally branch".
func (t *tables) realizeUnconditional(out *[]Instr, dest relooper.BlockID, cbt *canBranchTo, frames []frame) error {
	wrote := writeDispatch(out, dest, cbt)

	branch, ok := cbt.fromRelooper[dest]
	if !ok {
		if wrote {
			return nil
		}
		return errIntegrity("edge to block %d missing from the shaped tree's branch map", dest)
	}

	switch branch.Mode {
	case relooper.MergedBranch, relooper.SetLabelAndBreak, relooper.MergedBranchIntoMulti:
		return nil
	case relooper.LoopBreak:
		depth, ok := depthFor(frames, frameLoopBreak, branch.LoopID)
		if !ok {
			return errIntegrity("loop-break to unknown loop id %d", branch.LoopID)
		}
		*out = append(*out, Instr{Op: OpBr, Label: depth})
		return nil
	case relooper.LoopContinue:
		depth, ok := depthFor(frames, frameLoopContinue, branch.LoopID)
		if !ok {
			return errIntegrity("loop-continue to unknown loop id %d", branch.LoopID)
		}
		*out = append(*out, Instr{Op: OpBr, Label: depth})
		return nil
	case relooper.LoopBreakIntoMulti:
		depth, ok := depthFor(frames, frameLoopBreak, branch.LoopID)
		if !ok {
			return errIntegrity("loop-break-into-multi to unknown loop id %d", branch.LoopID)
		}
		*out = append(*out, Instr{Op: OpBr, Label: depth})
		return nil
	case relooper.LoopContinueIntoMulti:
		depth, ok := depthFor(frames, frameLoopContinue, branch.LoopID)
		if !ok {
			return errIntegrity("loop-continue-into-multi to unknown loop id %d", branch.LoopID)
		}
		*out = append(*out, Instr{Op: OpBr, Label: depth})
		return nil
	default:
		return errIntegrity("unrecognised branch mode %d for edge to block %d", branch.Mode, dest)
	}
}

// realizeConditional handles the taken side of a Brz/Brnz edge (condition
// already normalised and on top of the stack). Modes needing only a branch
// (LoopBreak/LoopContinue) become a plain br_if, after which the remainder
// of the block is lowered normally (spec.md §4.5 step 4's first sentence).
// Modes needing extra work on the taken side (a dispatch write, with or
// without an accompanying loop branch) or a bare MergedBranch (which must
// suppress the remainder on the taken side) require an if/else: the then
// arm does the taken-side work, the else arm recurses into the remainder
// (spec.md §4.6 MergedBranch row).
func (t *tables) realizeConditional(out *[]Instr, blk *ir.Block, rest []*ir.Instruction, dest relooper.BlockID, cbt *canBranchTo, frames []frame) error {
	_, needsWrite := cbt.locallyComputed[dest]
	branch, hasBranch := cbt.fromRelooper[dest]
	if !hasBranch && !needsWrite {
		return errIntegrity("edge to block %d missing from the shaped tree's branch map", dest)
	}

	if !needsWrite && hasBranch && (branch.Mode == relooper.LoopBreak || branch.Mode == relooper.LoopContinue) {
		kind := frameLoopBreak
		if branch.Mode == relooper.LoopContinue {
			kind = frameLoopContinue
		}
		depth, ok := depthFor(frames, kind, branch.LoopID)
		if !ok {
			return errIntegrity("conditional branch to unknown loop id %d", branch.LoopID)
		}
		*out = append(*out, Instr{Op: OpBrIf, Label: depth})
		return t.emitFrom(out, blk, rest, cbt, frames)
	}

	innerFrames := withAnon(frames)

	var thenBody []Instr
	if needsWrite {
		writeDispatch(&thenBody, dest, cbt)
	}
	if hasBranch {
		switch branch.Mode {
		case relooper.MergedBranch, relooper.SetLabelAndBreak:
			// nothing further: falls out to whatever lexically follows.
		case relooper.MergedBranchIntoMulti:
		case relooper.LoopBreakIntoMulti:
			depth, ok := depthFor(innerFrames, frameLoopBreak, branch.LoopID)
			if !ok {
				return errIntegrity("loop-break-into-multi to unknown loop id %d", branch.LoopID)
			}
			thenBody = append(thenBody, Instr{Op: OpBr, Label: depth})
		case relooper.LoopContinueIntoMulti:
			depth, ok := depthFor(innerFrames, frameLoopContinue, branch.LoopID)
			if !ok {
				return errIntegrity("loop-continue-into-multi to unknown loop id %d", branch.LoopID)
			}
			thenBody = append(thenBody, Instr{Op: OpBr, Label: depth})
		default:
			return errIntegrity("unrecognised branch mode %d for conditional edge to block %d", branch.Mode, dest)
		}
	}

	var elseBody []Instr
	if err := t.emitFrom(&elseBody, blk, rest, cbt, innerFrames); err != nil {
		return err
	}

	*out = append(*out, Instr{Op: OpIf, Body: thenBody, Else: elseBody})
	return nil
}
