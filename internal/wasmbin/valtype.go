package wasmbin

import "github.com/teymour-aldridge/cranelift-codegen-wasm/internal/wasmtarget"

// Value type encodings, WebAssembly 1.0 §5.3.1.
const (
	valI32 byte = 0x7F
	valI64 byte = 0x7E
	valF32 byte = 0x7D
	valF64 byte = 0x7C
)

func valType(k wasmtarget.ValKind) byte {
	switch k {
	case wasmtarget.I64:
		return valI64
	case wasmtarget.F32:
		return valF32
	case wasmtarget.F64:
		return valF64
	default:
		return valI32
	}
}
