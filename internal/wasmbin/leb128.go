// Package wasmbin encodes a compiled module (internal/module) as a binary
// WebAssembly module: magic/version header, type/function/memory/export/code
// sections. It knows nothing about source IR or structured-CFG recovery —
// it only serialises the already-structured internal/wasmtarget.Instr trees.
package wasmbin

// appendUleb128 appends the unsigned LEB128 encoding of v.
func appendUleb128(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

// appendSleb128 appends the signed LEB128 encoding of v.
func appendSleb128(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			buf = append(buf, b)
			return buf
		}
		buf = append(buf, b|0x80)
	}
}

// appendName appends a length-prefixed UTF-8 name.
func appendName(buf []byte, name string) []byte {
	buf = appendUleb128(buf, uint64(len(name)))
	return append(buf, name...)
}

// section wraps body with its section id and a ULEB128 byte-length prefix.
func section(id byte, body []byte) []byte {
	out := []byte{id}
	out = appendUleb128(out, uint64(len(body)))
	return append(out, body...)
}
