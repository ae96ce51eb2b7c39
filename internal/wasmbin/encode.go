package wasmbin

import (
	"github.com/pkg/errors"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/wasmtarget"
)

// Section ids, WebAssembly 1.0 §5.5.
const (
	secType     byte = 1
	secFunction byte = 3
	secMemory   byte = 5
	secExport   byte = 7
	secCode     byte = 10
)

var magicAndVersion = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// Func is one function's entry in the emitted module: its already-compiled
// body (internal/wasmtarget's output) plus the declaration-level facts
// (name, export linkage) the core does not carry.
type Func struct {
	Name     string
	Exported bool
	Compiled *wasmtarget.CompiledFunction
}

// Encode serialises fns into a complete binary WebAssembly module: one
// local memory (spec.md §6 "a memory section with one local memory"),
// type, function and code sections with one entry per function, and an
// export section listing every Exported function.
func Encode(fns []Func) ([]byte, error) {
	out := append([]byte(nil), magicAndVersion...)

	typeSec, funcTypeIdx := encodeTypeSection(fns)
	out = append(out, section(secType, typeSec)...)

	out = append(out, section(secFunction, encodeFunctionSection(funcTypeIdx))...)

	out = append(out, section(secMemory, encodeMemorySection())...)

	out = append(out, section(secExport, encodeExportSection(fns))...)

	codeSec, err := encodeCodeSection(fns)
	if err != nil {
		return nil, errors.Wrap(err, "wasmbin: encoding code section")
	}
	out = append(out, section(secCode, codeSec)...)

	return out, nil
}

func encodeTypeSection(fns []Func) ([]byte, []uint32) {
	var body []byte
	body = appendUleb128(body, uint64(len(fns)))
	idx := make([]uint32, len(fns))
	for i, f := range fns {
		idx[i] = uint32(i)
		body = append(body, 0x60) // functype tag
		body = appendUleb128(body, uint64(len(f.Compiled.Params)))
		for _, p := range f.Compiled.Params {
			body = append(body, valType(p))
		}
		body = appendUleb128(body, uint64(len(f.Compiled.Results)))
		for _, r := range f.Compiled.Results {
			body = append(body, valType(r))
		}
	}
	return body, idx
}

func encodeFunctionSection(funcTypeIdx []uint32) []byte {
	var body []byte
	body = appendUleb128(body, uint64(len(funcTypeIdx)))
	for _, idx := range funcTypeIdx {
		body = appendUleb128(body, uint64(idx))
	}
	return body
}

func encodeMemorySection() []byte {
	var body []byte
	body = appendUleb128(body, 1) // one memory
	body = append(body, 0x00)     // limits: min only
	body = appendUleb128(body, 1) // one page
	return body
}

func encodeExportSection(fns []Func) []byte {
	var names []Func
	for _, f := range fns {
		if f.Exported {
			names = append(names, f)
		}
	}
	var body []byte
	body = appendUleb128(body, uint64(len(names)))
	for i, f := range fns {
		if !f.Exported {
			continue
		}
		body = appendName(body, f.Name)
		body = append(body, 0x00) // export kind: func
		body = appendUleb128(body, uint64(i))
	}
	return body
}

func encodeCodeSection(fns []Func) ([]byte, error) {
	var body []byte
	body = appendUleb128(body, uint64(len(fns)))
	for _, f := range fns {
		code, err := encodeFuncBody(f.Compiled)
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", f.Name)
		}
		body = appendUleb128(body, uint64(len(code)))
		body = append(body, code...)
	}
	return body, nil
}

// encodeFuncBody encodes one function's locals declaration (run-length
// grouped by kind, skipping the parameter locals which are declared
// implicitly by the type section) followed by its instruction expression.
func encodeFuncBody(cf *wasmtarget.CompiledFunction) ([]byte, error) {
	nonParamLocals := cf.Locals[len(cf.Params):]

	type run struct {
		kind  wasmtarget.ValKind
		count uint64
	}
	var runs []run
	for _, l := range nonParamLocals {
		if len(runs) > 0 && runs[len(runs)-1].kind == l.Kind {
			runs[len(runs)-1].count++
			continue
		}
		runs = append(runs, run{kind: l.Kind, count: 1})
	}

	var body []byte
	body = appendUleb128(body, uint64(len(runs)))
	for _, r := range runs {
		body = appendUleb128(body, r.count)
		body = append(body, valType(r.kind))
	}

	body, err := encodeExpr(body, cf.Body)
	if err != nil {
		return nil, err
	}
	return append(body, opEnd), nil
}
