package ir

// FuncBuilder constructs a Function. It is a thin convenience layer used by
// the textual IR reader (internal/irtext) and by tests to build fixtures;
// it performs no SSA construction of its own (no dominance, no phi search)
// because in this IR block parameters and their edge arguments are already
// fully explicit, exactly as a generic front-end is assumed to produce them
// (spec.md §3).
type FuncBuilder struct {
	fn        *Function
	nextValue Value
	cur       *Block
}

// NewFuncBuilder starts building a function with the given name and
// signature. The first block allocated becomes the entry block.
func NewFuncBuilder(name string, sig *Signature) *FuncBuilder {
	return &FuncBuilder{
		fn: &Function{
			Name:       name,
			Sig:        sig,
			valueType:  make(map[Value]Type),
			defOf:      make(map[Value]*Instruction),
			paramOwner: make(map[Value]paramLoc),
		},
	}
}

// Block allocates a new, empty basic block. The first call also marks it as
// the function's entry block.
func (b *FuncBuilder) Block() *Block {
	blk := &Block{ID: BlockID(len(b.fn.Blocks))}
	if len(b.fn.Blocks) == 0 {
		b.fn.entry = blk.ID
	}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

// AddParam appends a new typed parameter to blk and returns its value.
func (b *FuncBuilder) AddParam(blk *Block, typ Type) Value {
	v := b.allocValue(typ)
	idx := len(blk.Params)
	blk.Params = append(blk.Params, v)
	blk.ptypes = append(blk.ptypes, typ)
	b.fn.paramOwner[v] = paramLoc{block: blk, index: idx}
	return v
}

// SetCurrentBlock directs subsequent instruction-emitting calls to append to
// blk.
func (b *FuncBuilder) SetCurrentBlock(blk *Block) { b.cur = blk }

func (b *FuncBuilder) allocValue(typ Type) Value {
	v := b.nextValue
	b.nextValue++
	b.fn.valueType[v] = typ
	return v
}

func (b *FuncBuilder) emit(inst *Instruction) {
	b.cur.instrs = append(b.cur.instrs, inst)
	if inst.result.Valid() {
		b.fn.defOf[inst.result] = inst
	}
}

// Iconst appends `v = iconst typ imm` and returns v. Iconst is the canonical
// rematerialisable op: C2 never bumps its use count (spec.md §4.2).
func (b *FuncBuilder) Iconst(typ Type, imm int64) Value {
	v := b.allocValue(typ)
	b.emit(&Instruction{Opcode: OpcodeIconst, result: v, typ: typ, imm: imm})
	return v
}

func (b *FuncBuilder) binary(op Opcode, x, y Value) Value {
	typ := b.fn.valueType[x]
	v := b.allocValue(typ)
	b.emit(&Instruction{Opcode: op, result: v, typ: typ, args: []Value{x, y}})
	return v
}

func (b *FuncBuilder) Iadd(x, y Value) Value { return b.binary(OpcodeIadd, x, y) }
func (b *FuncBuilder) Isub(x, y Value) Value { return b.binary(OpcodeIsub, x, y) }
func (b *FuncBuilder) Imul(x, y Value) Value { return b.binary(OpcodeImul, x, y) }
func (b *FuncBuilder) Band(x, y Value) Value { return b.binary(OpcodeBand, x, y) }
func (b *FuncBuilder) Bor(x, y Value) Value  { return b.binary(OpcodeBor, x, y) }
func (b *FuncBuilder) Bxor(x, y Value) Value { return b.binary(OpcodeBxor, x, y) }

// IaddImm appends `v = iadd_imm x, imm`, the fused constant+add form C4
// must lower equivalently to a materialised constant followed by iN.add.
func (b *FuncBuilder) IaddImm(x Value, imm int64) Value {
	typ := b.fn.valueType[x]
	v := b.allocValue(typ)
	b.emit(&Instruction{Opcode: OpcodeIaddImm, result: v, typ: typ, args: []Value{x}, imm: imm})
	return v
}

func (b *FuncBuilder) Ineg(x Value) Value {
	typ := b.fn.valueType[x]
	v := b.allocValue(typ)
	b.emit(&Instruction{Opcode: OpcodeIneg, result: v, typ: typ, args: []Value{x}})
	return v
}

func (b *FuncBuilder) Bnot(x Value) Value {
	typ := b.fn.valueType[x]
	v := b.allocValue(typ)
	b.emit(&Instruction{Opcode: OpcodeBnot, result: v, typ: typ, args: []Value{x}})
	return v
}

// Icmp appends `v = icmp cond, x, y`; the result is an i32 boolean (0/1).
func (b *FuncBuilder) Icmp(cond CompareOp, x, y Value) Value {
	v := b.allocValue(TypeI32)
	b.emit(&Instruction{Opcode: OpcodeIcmp, result: v, typ: TypeI32, args: []Value{x, y}, cond: cond})
	return v
}

// IcmpImm appends `v = icmp_imm cond, x, imm`.
func (b *FuncBuilder) IcmpImm(cond CompareOp, x Value, imm int64) Value {
	v := b.allocValue(TypeI32)
	b.emit(&Instruction{Opcode: OpcodeIcmpImm, result: v, typ: TypeI32, args: []Value{x}, cond: cond, imm: imm})
	return v
}

// AtomicCas and AtomicRmw exist only so that the unsupported-on-target error
// path (spec.md §4.4, §7) has something real to reject; neither ever
// produces a usable value.
func (b *FuncBuilder) AtomicCas(addr, expected, replacement Value) Value {
	v := b.allocValue(b.fn.valueType[expected])
	b.emit(&Instruction{Opcode: OpcodeAtomicCas, result: v, typ: b.fn.valueType[expected], args: []Value{addr, expected, replacement}})
	return v
}

func (b *FuncBuilder) AtomicRmw(addr, x Value) Value {
	v := b.allocValue(b.fn.valueType[x])
	b.emit(&Instruction{Opcode: OpcodeAtomicRmw, result: v, typ: b.fn.valueType[x], args: []Value{addr, x}})
	return v
}

// Jump appends an unconditional edge to dest with positional arguments
// matched against dest's parameters.
func (b *FuncBuilder) Jump(dest *Block, args ...Value) {
	b.emit(&Instruction{Opcode: OpcodeJump, result: ValueInvalid, dest: dest, destArgs: args})
}

// Brz appends a conditional edge to dest, taken when cond == 0. Execution
// falls through to the next instruction in the current block otherwise.
func (b *FuncBuilder) Brz(cond Value, dest *Block, args ...Value) {
	b.emit(&Instruction{Opcode: OpcodeBrz, result: ValueInvalid, args: []Value{cond}, dest: dest, destArgs: args})
}

// Brnz appends a conditional edge to dest, taken when cond != 0.
func (b *FuncBuilder) Brnz(cond Value, dest *Block, args ...Value) {
	b.emit(&Instruction{Opcode: OpcodeBrnz, result: ValueInvalid, args: []Value{cond}, dest: dest, destArgs: args})
}

// Return appends the function's return terminator.
func (b *FuncBuilder) Return(args ...Value) {
	b.emit(&Instruction{Opcode: OpcodeReturn, result: ValueInvalid, args: args})
}

// Build finalizes and returns the constructed Function.
func (b *FuncBuilder) Build() *Function { return b.fn }
