package wasmtarget

import (
	"github.com/pkg/errors"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// Error taxonomy (spec.md §7): Unsupported-on-target and Unimplemented-opcode
// are ordinary returned errors citing the offending opcode; Integrity
// violations are also returned errors (not panics) here, since this is a
// library consumed by a CLI that should report a diagnostic and exit
// nonzero rather than crash — panics are reserved for conditions that are
// truly unreachable given a well-formed Function (see BUG panics below).

func errUnsupportedOnTarget(op ir.Opcode) error {
	return errors.Errorf("wasmtarget: %s is unsupported on the target VM (atomics are explicitly out of scope)", op)
}

func errUnimplementedOpcode(op ir.Opcode) error {
	return errors.Errorf("wasmtarget: no lowering implemented for opcode %s", op)
}

func errIntegrity(format string, args ...interface{}) error {
	return errors.Errorf("wasmtarget: integrity violation: "+format, args...)
}
