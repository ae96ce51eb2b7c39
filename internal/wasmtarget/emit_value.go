package wasmtarget

import (
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// emitValue implements C3: leave the runtime value of v on top of the
// operand stack, appending to out. At each use it decides between
// inlining, rematerialising, and local.get (or local.tee, for a NormalUse
// value that emitFrom has not already stored at its definition).
func (t *tables) emitValue(out *[]Instr, v ir.Value) error {
	if blk, _, ok := t.fn.BlockParamOwner(v); ok {
		l, ok := t.blockParamLocal(blk.ID, v)
		if !ok {
			return errIntegrity("block parameter %s of block %d has no allocated local", v, blk.ID)
		}
		*out = append(*out, localGet(l))
		return nil
	}

	def, ok := t.fn.DefiningInstruction(v)
	if !ok {
		return errIntegrity("value %s has no reachable definition", v)
	}

	switch t.classOf(v) {
	case Rematerialise:
		return t.emitInst(out, def)
	case SingleUse:
		return t.emitInst(out, def)
	case NormalUse:
		if l, ok := t.valueLocal[v]; ok {
			*out = append(*out, localGet(l))
			return nil
		}
		if err := t.emitInst(out, def); err != nil {
			return err
		}
		kind, err := MapType(def.Type())
		if err != nil {
			return err
		}
		l := t.locals.alloc(kind)
		*out = append(*out, localTee(l))
		t.valueLocal[v] = l
		return nil
	default:
		panic("wasmtarget: BUG: unreachable value classification")
	}
}
