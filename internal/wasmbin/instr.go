package wasmbin

import (
	"github.com/pkg/errors"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/wasmtarget"
)

// Opcode bytes, WebAssembly 1.0 §5.4.
const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opReturn      byte = 0x0F

	opLocalGet byte = 0x20
	opLocalSet byte = 0x21
	opLocalTee byte = 0x22

	opI32Const byte = 0x41
	opI64Const byte = 0x42

	opI32Eq  byte = 0x46
	opI32Ne  byte = 0x47
	opI32LtS byte = 0x48
	opI32LtU byte = 0x49
	opI32GtS byte = 0x4A
	opI32GtU byte = 0x4B
	opI32LeS byte = 0x4C
	opI32LeU byte = 0x4D
	opI32GeS byte = 0x4E
	opI32GeU byte = 0x4F

	opI64Eq  byte = 0x51
	opI64Ne  byte = 0x52
	opI64LtS byte = 0x53
	opI64LtU byte = 0x54
	opI64GtS byte = 0x55
	opI64GtU byte = 0x56
	opI64LeS byte = 0x57
	opI64LeU byte = 0x58
	opI64GeS byte = 0x59
	opI64GeU byte = 0x5A

	opI32Add byte = 0x6A
	opI32Sub byte = 0x6B
	opI32Mul byte = 0x6C
	opI32And byte = 0x71
	opI32Or  byte = 0x72
	opI32Xor byte = 0x73

	opI64Add byte = 0x7C
	opI64Sub byte = 0x7D
	opI64Mul byte = 0x7E
	opI64And byte = 0x83
	opI64Or  byte = 0x84
	opI64Xor byte = 0x85

	blockTypeVoid byte = 0x40
)

var simpleOp = map[wasmtarget.Op]byte{
	wasmtarget.OpI32Add: opI32Add, wasmtarget.OpI64Add: opI64Add,
	wasmtarget.OpI32Sub: opI32Sub, wasmtarget.OpI64Sub: opI64Sub,
	wasmtarget.OpI32Mul: opI32Mul, wasmtarget.OpI64Mul: opI64Mul,
	wasmtarget.OpI32And: opI32And, wasmtarget.OpI64And: opI64And,
	wasmtarget.OpI32Or: opI32Or, wasmtarget.OpI64Or: opI64Or,
	wasmtarget.OpI32Xor: opI32Xor, wasmtarget.OpI64Xor: opI64Xor,

	wasmtarget.OpI32Eq: opI32Eq, wasmtarget.OpI64Eq: opI64Eq,
	wasmtarget.OpI32Ne: opI32Ne, wasmtarget.OpI64Ne: opI64Ne,
	wasmtarget.OpI32LtS: opI32LtS, wasmtarget.OpI64LtS: opI64LtS,
	wasmtarget.OpI32LeS: opI32LeS, wasmtarget.OpI64LeS: opI64LeS,
	wasmtarget.OpI32GtS: opI32GtS, wasmtarget.OpI64GtS: opI64GtS,
	wasmtarget.OpI32GeS: opI32GeS, wasmtarget.OpI64GeS: opI64GeS,
	wasmtarget.OpI32LtU: opI32LtU, wasmtarget.OpI64LtU: opI64LtU,
	wasmtarget.OpI32LeU: opI32LeU, wasmtarget.OpI64LeU: opI64LeU,
	wasmtarget.OpI32GtU: opI32GtU, wasmtarget.OpI64GtU: opI64GtU,
	wasmtarget.OpI32GeU: opI32GeU, wasmtarget.OpI64GeU: opI64GeU,

	wasmtarget.OpReturn:      opReturn,
	wasmtarget.OpUnreachable: opUnreachable,
}

// encodeExpr appends the encoding of a structured instruction sequence to
// buf, recursing into nested block/loop/if bodies.
func encodeExpr(buf []byte, seq []wasmtarget.Instr) ([]byte, error) {
	for _, in := range seq {
		var err error
		buf, err = encodeInstr(buf, in)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeInstr(buf []byte, in wasmtarget.Instr) ([]byte, error) {
	switch in.Op {
	case wasmtarget.OpLocalGet:
		buf = append(buf, opLocalGet)
		return appendUleb128(buf, uint64(in.Local)), nil
	case wasmtarget.OpLocalSet:
		buf = append(buf, opLocalSet)
		return appendUleb128(buf, uint64(in.Local)), nil
	case wasmtarget.OpLocalTee:
		buf = append(buf, opLocalTee)
		return appendUleb128(buf, uint64(in.Local)), nil

	case wasmtarget.OpI32Const:
		buf = append(buf, opI32Const)
		return appendSleb128(buf, int64(in.I32)), nil
	case wasmtarget.OpI64Const:
		buf = append(buf, opI64Const)
		return appendSleb128(buf, in.I64), nil

	case wasmtarget.OpBlock, wasmtarget.OpLoop:
		opByte := opBlock
		if in.Op == wasmtarget.OpLoop {
			opByte = opLoop
		}
		buf = append(buf, opByte, blockTypeVoid)
		buf, err := encodeExpr(buf, in.Body)
		if err != nil {
			return nil, err
		}
		return append(buf, opEnd), nil

	case wasmtarget.OpIf:
		buf = append(buf, opIf, blockTypeVoid)
		buf, err := encodeExpr(buf, in.Body)
		if err != nil {
			return nil, err
		}
		if in.Else != nil {
			buf = append(buf, opElse)
			buf, err = encodeExpr(buf, in.Else)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, opEnd), nil

	case wasmtarget.OpBr:
		buf = append(buf, opBr)
		return appendUleb128(buf, uint64(in.Label)), nil
	case wasmtarget.OpBrIf:
		buf = append(buf, opBrIf)
		return appendUleb128(buf, uint64(in.Label)), nil

	default:
		if b, ok := simpleOp[in.Op]; ok {
			return append(buf, b), nil
		}
		return nil, errors.Errorf("wasmbin: no encoding for target opcode %d", in.Op)
	}
}
