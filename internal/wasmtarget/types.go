// Package wasmtarget is the core of this backend: it lowers a single
// internal/ir.Function into a structured sequence of target-VM (WebAssembly)
// stack operations, driven by the structured-CFG recovery in cfg_driver.go and
// the instruction/operand lowering in emit_value.go/lower_inst.go/lower_block.go.
package wasmtarget

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// ValKind is a target VM value type (spec.md §3 "Target VM entities").
type ValKind byte

const (
	I32 ValKind = iota
	I64
	F32
	F64
)

func (k ValKind) String() string {
	switch k {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "invalid"
	}
}

// MapType implements C1: a pure, total-on-valid-input mapping from a source
// scalar type to a target value kind. Integer widths 32/64 map to I32/I64;
// float widths 32/64 map to F32/F64. Any other type is a front-end/IR bug,
// not a runtime condition, so MapType returns an error rather than a kind
// and lets the caller decide whether that is fatal (it always is, per
// spec.md §4.1 "fails (implementation may trap) on any other type").
func MapType(t ir.Type) (ValKind, error) {
	switch {
	case t == ir.TypeI32:
		return I32, nil
	case t == ir.TypeI64:
		return I64, nil
	case t == ir.TypeF32:
		return F32, nil
	case t == ir.TypeF64:
		return F64, nil
	default:
		return 0, errors.Errorf("wasmtarget: unrepresentable source type %s", t)
	}
}

// MustMapType is MapType for call sites that have already validated typ is
// supported (e.g. because it was the declared type of a value the classifier
// already inspected); it panics on failure since failure there is an
// integrity violation, not a user-triggerable error.
func MustMapType(t ir.Type) ValKind {
	k, err := MapType(t)
	if err != nil {
		panic(fmt.Sprintf("wasmtarget: BUG: %v", err))
	}
	return k
}

// LocalID identifies a typed local storage slot scoped to a function.
type LocalID uint32

// Local is a typed local declared in a function body.
type Local struct {
	ID   LocalID
	Kind ValKind
}
