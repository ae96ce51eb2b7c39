package wasmtarget

import (
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// emitInst implements C4: emit the target ops for one non-terminator
// instruction, pushing operands via C3 first, in argument order, then the
// opcode that consumes them. Terminators are never passed here (spec.md
// §4.4) — callers (C5, and C3 when inlining) only ever hand it
// non-terminator instructions.
func (t *tables) emitInst(out *[]Instr, inst *ir.Instruction) error {
	switch inst.Opcode {
	case ir.OpcodeIconst:
		kind, err := MapType(inst.Type())
		if err != nil {
			return err
		}
		*out = append(*out, constInstr(kind, inst.Immediate()))
		return nil

	case ir.OpcodeIadd, ir.OpcodeIsub, ir.OpcodeImul, ir.OpcodeBand, ir.OpcodeBor, ir.OpcodeBxor:
		args := inst.Args()
		if err := t.emitValue(out, args[0]); err != nil {
			return err
		}
		if err := t.emitValue(out, args[1]); err != nil {
			return err
		}
		kind, err := MapType(inst.Type())
		if err != nil {
			return err
		}
		op, err := binOp(inst.Opcode, ir.CompareInvalid, kind)
		if err != nil {
			return err
		}
		*out = append(*out, Instr{Op: op})
		return nil

	case ir.OpcodeIaddImm:
		args := inst.Args()
		if err := t.emitValue(out, args[0]); err != nil {
			return err
		}
		kind, err := MapType(inst.Type())
		if err != nil {
			return err
		}
		*out = append(*out, constInstr(kind, inst.Immediate()))
		op, err := binOp(ir.OpcodeIadd, ir.CompareInvalid, kind)
		if err != nil {
			return err
		}
		*out = append(*out, Instr{Op: op})
		return nil

	case ir.OpcodeIneg:
		// 0 - x.
		args := inst.Args()
		kind, err := MapType(inst.Type())
		if err != nil {
			return err
		}
		*out = append(*out, constInstr(kind, 0))
		if err := t.emitValue(out, args[0]); err != nil {
			return err
		}
		op, err := binOp(ir.OpcodeIsub, ir.CompareInvalid, kind)
		if err != nil {
			return err
		}
		*out = append(*out, Instr{Op: op})
		return nil

	case ir.OpcodeBnot:
		// x xor -1.
		args := inst.Args()
		if err := t.emitValue(out, args[0]); err != nil {
			return err
		}
		kind, err := MapType(inst.Type())
		if err != nil {
			return err
		}
		*out = append(*out, constInstr(kind, -1))
		op, err := binOp(ir.OpcodeBxor, ir.CompareInvalid, kind)
		if err != nil {
			return err
		}
		*out = append(*out, Instr{Op: op})
		return nil

	case ir.OpcodeIcmp:
		args := inst.Args()
		if err := t.emitValue(out, args[0]); err != nil {
			return err
		}
		if err := t.emitValue(out, args[1]); err != nil {
			return err
		}
		kind, err := operandKind(t.fn, args[0])
		if err != nil {
			return err
		}
		op, err := cmpOp(inst.Cond(), kind)
		if err != nil {
			return err
		}
		*out = append(*out, Instr{Op: op})
		return nil

	case ir.OpcodeIcmpImm:
		args := inst.Args()
		if err := t.emitValue(out, args[0]); err != nil {
			return err
		}
		kind, err := operandKind(t.fn, args[0])
		if err != nil {
			return err
		}
		*out = append(*out, constInstr(kind, inst.Immediate()))
		op, err := cmpOp(inst.Cond(), kind)
		if err != nil {
			return err
		}
		*out = append(*out, Instr{Op: op})
		return nil

	case ir.OpcodeAtomicCas, ir.OpcodeAtomicRmw:
		return errUnsupportedOnTarget(inst.Opcode)

	default:
		return errUnimplementedOpcode(inst.Opcode)
	}
}

func constInstr(kind ValKind, imm int64) Instr {
	if kind == I64 {
		return i64Const(imm)
	}
	return i32Const(int32(imm))
}

// operandKind resolves the mapped target kind of an operand value, used by
// comparisons where the result type (always i32 boolean) differs from the
// operand type that determines which iN.op to emit.
func operandKind(fn *ir.Function, v ir.Value) (ValKind, error) {
	typ, ok := fn.ValueType(v)
	if !ok {
		return 0, errIntegrity("value %s has no recorded type", v)
	}
	return MapType(typ)
}
