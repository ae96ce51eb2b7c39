package wasmtarget

import (
	"github.com/pkg/errors"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// Op is a target-VM (structured stack machine) instruction opcode. Naming
// mirrors WebAssembly's own mnemonics.
type Op byte

const (
	OpInvalid Op = iota

	OpLocalGet
	OpLocalSet
	OpLocalTee

	OpI32Const
	OpI64Const

	OpI32Add
	OpI64Add
	OpI32Sub
	OpI64Sub
	OpI32Mul
	OpI64Mul
	OpI32And
	OpI64And
	OpI32Or
	OpI64Or
	OpI32Xor
	OpI64Xor

	OpI32Eq
	OpI64Eq
	OpI32Ne
	OpI64Ne
	OpI32LtS
	OpI64LtS
	OpI32LeS
	OpI64LeS
	OpI32GtS
	OpI64GtS
	OpI32GeS
	OpI64GeS
	OpI32LtU
	OpI64LtU
	OpI32LeU
	OpI64LeU
	OpI32GtU
	OpI64GtU
	OpI32GeU
	OpI64GeU

	// OpBlock/OpLoop/OpIf are structured, nesting constructs; their bodies
	// live in Instr.Body (and Instr.Else for OpIf).
	OpBlock
	OpLoop
	OpIf

	// OpBr/OpBrIf carry a relative nesting depth in Instr.Label, resolved
	// at emission time from the open-scope stack (depthFor, frames.go), exactly
	// as WebAssembly's own branch encoding works.
	OpBr
	OpBrIf

	OpReturn
	OpUnreachable
)

// Instr is one target-VM instruction. Since Go has no tagged union, one
// struct covers every shape; which fields are meaningful depends on Op.
type Instr struct {
	Op Op

	Local LocalID // OpLocalGet/Set/Tee

	I32 int32 // OpI32Const
	I64 int64 // OpI64Const

	Label uint32 // OpBr/OpBrIf: relative depth to the targeted enclosing scope

	Body []Instr // OpBlock/OpLoop/OpIf (then-arm)
	Else []Instr // OpIf only
}

func (o Op) String() string {
	switch o {
	case OpI32Add:
		return "i32.add"
	case OpI64Add:
		return "i64.add"
	case OpI32Sub:
		return "i32.sub"
	case OpI64Sub:
		return "i64.sub"
	case OpI32Mul:
		return "i32.mul"
	case OpI64Mul:
		return "i64.mul"
	case OpI32And:
		return "i32.and"
	case OpI64And:
		return "i64.and"
	case OpI32Or:
		return "i32.or"
	case OpI64Or:
		return "i64.or"
	case OpI32Xor:
		return "i32.xor"
	case OpI64Xor:
		return "i64.xor"
	case OpI32Eq:
		return "i32.eq"
	case OpI64Eq:
		return "i64.eq"
	case OpI32Ne:
		return "i32.ne"
	case OpI64Ne:
		return "i64.ne"
	case OpI32LtS:
		return "i32.lt_s"
	case OpI64LtS:
		return "i64.lt_s"
	case OpI32LeS:
		return "i32.le_s"
	case OpI64LeS:
		return "i64.le_s"
	case OpI32GtS:
		return "i32.gt_s"
	case OpI64GtS:
		return "i64.gt_s"
	case OpI32GeS:
		return "i32.ge_s"
	case OpI64GeS:
		return "i64.ge_s"
	case OpI32LtU:
		return "i32.lt_u"
	case OpI64LtU:
		return "i64.lt_u"
	case OpI32LeU:
		return "i32.le_u"
	case OpI64LeU:
		return "i64.le_u"
	case OpI32GtU:
		return "i32.gt_u"
	case OpI64GtU:
		return "i64.gt_u"
	case OpI32GeU:
		return "i32.ge_u"
	case OpI64GeU:
		return "i64.ge_u"
	case OpReturn:
		return "return"
	case OpUnreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}

func i32Const(v int32) Instr { return Instr{Op: OpI32Const, I32: v} }
func i64Const(v int64) Instr { return Instr{Op: OpI64Const, I64: v} }

func localGet(l LocalID) Instr { return Instr{Op: OpLocalGet, Local: l} }
func localSet(l LocalID) Instr { return Instr{Op: OpLocalSet, Local: l} }
func localTee(l LocalID) Instr { return Instr{Op: OpLocalTee, Local: l} }

// binOp returns the target opcode for a source binary/compare opcode at the
// given operand kind, implementing the "N is 32 or 64, determined by the
// operand type" rule of spec.md §4.4 uniformly for arithmetic, bitwise, and
// comparison opcodes.
func binOp(src ir.Opcode, cond ir.CompareOp, kind ValKind) (Op, error) {
	is64 := kind == I64
	switch src {
	case ir.OpcodeIadd, ir.OpcodeIaddImm:
		if is64 {
			return OpI64Add, nil
		}
		return OpI32Add, nil
	case ir.OpcodeIsub, ir.OpcodeIneg:
		if is64 {
			return OpI64Sub, nil
		}
		return OpI32Sub, nil
	case ir.OpcodeImul:
		if is64 {
			return OpI64Mul, nil
		}
		return OpI32Mul, nil
	case ir.OpcodeBand:
		if is64 {
			return OpI64And, nil
		}
		return OpI32And, nil
	case ir.OpcodeBor:
		if is64 {
			return OpI64Or, nil
		}
		return OpI32Or, nil
	case ir.OpcodeBxor, ir.OpcodeBnot:
		if is64 {
			return OpI64Xor, nil
		}
		return OpI32Xor, nil
	case ir.OpcodeIcmp, ir.OpcodeIcmpImm:
		return cmpOp(cond, kind)
	}
	return OpInvalid, errUnimplementedOpcode(src)
}

func cmpOp(cond ir.CompareOp, kind ValKind) (Op, error) {
	is64 := kind == I64
	switch cond {
	case ir.CompareEqual:
		if is64 {
			return OpI64Eq, nil
		}
		return OpI32Eq, nil
	case ir.CompareNotEqual:
		if is64 {
			return OpI64Ne, nil
		}
		return OpI32Ne, nil
	case ir.CompareSignedLessThan:
		if is64 {
			return OpI64LtS, nil
		}
		return OpI32LtS, nil
	case ir.CompareSignedLessThanOrEqual:
		if is64 {
			return OpI64LeS, nil
		}
		return OpI32LeS, nil
	case ir.CompareSignedGreaterThan:
		if is64 {
			return OpI64GtS, nil
		}
		return OpI32GtS, nil
	case ir.CompareSignedGreaterThanOrEqual:
		if is64 {
			return OpI64GeS, nil
		}
		return OpI32GeS, nil
	case ir.CompareUnsignedLessThan:
		if is64 {
			return OpI64LtU, nil
		}
		return OpI32LtU, nil
	case ir.CompareUnsignedLessThanOrEqual:
		if is64 {
			return OpI64LeU, nil
		}
		return OpI32LeU, nil
	case ir.CompareUnsignedGreaterThan:
		if is64 {
			return OpI64GtU, nil
		}
		return OpI32GtU, nil
	case ir.CompareUnsignedGreaterThanOrEqual:
		if is64 {
			return OpI64GeU, nil
		}
		return OpI32GeU, nil
	default:
		return OpInvalid, errors.Errorf("wasmtarget: reserved/unrecognised compare predicate %s", cond)
	}
}
