package wasmtarget

import (
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// Class is the derived classification of an SSA value (spec.md §4.2).
type Class byte

const (
	SingleUse Class = iota
	NormalUse
	Rematerialise
)

// LocalAllocator hands out fresh, typed LocalIDs for one function, in the
// order locals are declared in the target function's local section: entry
// parameters first, then everything C2/C3 allocate on demand.
type LocalAllocator struct {
	locals []Local
}

func (a *LocalAllocator) alloc(kind ValKind) LocalID {
	id := LocalID(len(a.locals))
	a.locals = append(a.locals, Local{ID: id, Kind: kind})
	return id
}

// Locals returns the declared locals in allocation order.
func (a *LocalAllocator) Locals() []Local { return a.locals }

// tables holds the per-function state C2 populates and C3/C5/C6 consult,
// exactly the data model of spec.md §3 ("Per-function tables").
type tables struct {
	fn *ir.Function

	valueUses     map[ir.Value]int
	rematerialize map[ir.Value]bool
	blockParams   map[ir.BlockID]map[ir.Value]LocalID
	valueLocal    map[ir.Value]LocalID
	// knownLoops records every relooper loop id this translation has opened
	// a target loop scope for. Nothing reads it: a LoopContinue/LoopBreak
	// whose loop id is not open is caught by depthFor against the frames.
	knownLoops map[uint16]bool

	locals *LocalAllocator
}

func newTables(fn *ir.Function, locals *LocalAllocator) *tables {
	return &tables{
		fn:            fn,
		valueUses:     make(map[ir.Value]int),
		rematerialize: make(map[ir.Value]bool),
		blockParams:   make(map[ir.BlockID]map[ir.Value]LocalID),
		valueLocal:    make(map[ir.Value]LocalID),
		knownLoops:    make(map[uint16]bool),
		locals:        locals,
	}
}

// classOf derives a value's classification; never stored, always computed
// from valueUses/rematerialize as spec.md §4.2 specifies.
func (t *tables) classOf(v ir.Value) Class {
	switch {
	case t.rematerialize[v]:
		return Rematerialise
	case t.valueUses[v] >= 2:
		return NormalUse
	default:
		return SingleUse
	}
}

// isPureNullary reports whether inst is a rematerialisable op: currently
// only the integer constant (spec.md §4.2 "integer constant (or other pure
// nullary rematerialisable op)").
func isPureNullary(inst *ir.Instruction) bool {
	return inst.Opcode == ir.OpcodeIconst
}

// ensureBlockParamLocal allocates (idempotently) the target local backing
// block parameter v of block b, per spec.md §4.2's first bullet and
// invariant 2 ("a target local exists before any predecessor's outgoing
// edge is lowered").
func (t *tables) ensureBlockParamLocal(b *ir.Block, v ir.Value, typ ir.Type) (LocalID, error) {
	m, ok := t.blockParams[b.ID]
	if !ok {
		m = make(map[ir.Value]LocalID)
		t.blockParams[b.ID] = m
	}
	if l, ok := m[v]; ok {
		return l, nil
	}
	kind, err := MapType(typ)
	if err != nil {
		return 0, err
	}
	l := t.locals.alloc(kind)
	m[v] = l
	return l, nil
}

// blockParamLocal looks up an already-allocated block-parameter local;
// callers that expect it to exist (predecessor edge lowering, invariant 2)
// treat a miss as an integrity violation.
func (t *tables) blockParamLocal(blockID ir.BlockID, v ir.Value) (LocalID, bool) {
	m, ok := t.blockParams[blockID]
	if !ok {
		return 0, false
	}
	l, ok := m[v]
	return l, ok
}

// classify runs C2: a single pass over every instruction operand, in
// layout order, populating valueUses/rematerialize/blockParams for every
// non-entry block parameter. Entry-block parameters are allocated
// separately by the function translator (C7 step 3), before this runs.
func (t *tables) classify() error {
	for _, b := range t.fn.Blocks {
		for i, v := range b.Params {
			if _, err := t.ensureBlockParamLocal(b, v, b.ParamType(i)); err != nil {
				return err
			}
		}
		for _, inst := range b.Instructions() {
			for _, v := range operandsOf(inst) {
				if err := t.observeOperand(v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// operandsOf returns every source-value operand an instruction reads: its
// Args(), plus the destination block-parameter arguments of an edge
// instruction (the values fed into the successor's parameters are also
// "used" at the point of the jump/branch).
func operandsOf(inst *ir.Instruction) []ir.Value {
	vals := append([]ir.Value(nil), inst.Args()...)
	if _, destArgs := inst.Edge(); destArgs != nil {
		vals = append(vals, destArgs...)
	}
	return vals
}

func (t *tables) observeOperand(v ir.Value) error {
	if blk, idx, ok := t.fn.BlockParamOwner(v); ok {
		_, err := t.ensureBlockParamLocal(blk, v, blk.ParamType(idx))
		return err
	}
	def, ok := t.fn.DefiningInstruction(v)
	if !ok {
		return errIntegrity("value %s has no reachable definition", v)
	}
	if isPureNullary(def) {
		t.rematerialize[v] = true
		return nil
	}
	t.valueUses[v]++
	return nil
}
