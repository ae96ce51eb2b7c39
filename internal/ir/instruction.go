package ir

// Opcode identifies the operation performed by an Instruction. Naming follows
// the Cranelift/wazero convention (Opcode<Mnemonic>) so that a reader already
// familiar with either project recognizes the shape immediately.
type Opcode uint32

const (
	OpcodeInvalid Opcode = iota

	// OpcodeIconst: `v = iconst T imm`. Nullary, pure, rematerialisable.
	OpcodeIconst
	// OpcodeIadd: `v = iadd x, y`. (Binary)
	OpcodeIadd
	// OpcodeIsub: `v = isub x, y`. (Binary)
	OpcodeIsub
	// OpcodeImul: `v = imul x, y`. (Binary)
	OpcodeImul
	// OpcodeBand: `v = band x, y`. (Binary)
	OpcodeBand
	// OpcodeBor: `v = bor x, y`. (Binary)
	OpcodeBor
	// OpcodeBxor: `v = bxor x, y`. (Binary)
	OpcodeBxor
	// OpcodeIaddImm: `v = iadd_imm x, imm`. Equivalent to constant + add.
	OpcodeIaddImm
	// OpcodeIneg: `v = ineg x`. Lowered as 0 - x.
	OpcodeIneg
	// OpcodeBnot: `v = bnot x`. Lowered as x xor -1.
	OpcodeBnot
	// OpcodeIcmp: `v = icmp Cond, x, y`. (IntCompare)
	OpcodeIcmp
	// OpcodeIcmpImm: `v = icmp_imm Cond, x, imm`. (IntCompareImm)
	OpcodeIcmpImm

	// OpcodeJump: `jump block, args`. (Edge)
	OpcodeJump
	// OpcodeBrz: `brz c, block, args`. (Edge, conditional)
	OpcodeBrz
	// OpcodeBrnz: `brnz c, block, args`. (Edge, conditional)
	OpcodeBrnz
	// OpcodeReturn: `return args`. (MultiAry)
	OpcodeReturn

	// OpcodeAtomicCas and OpcodeAtomicRmw are recognized but never
	// lowerable: the backend must fail loudly (spec.md §4.4, §7).
	OpcodeAtomicCas
	OpcodeAtomicRmw
)

func (op Opcode) String() string {
	switch op {
	case OpcodeIconst:
		return "iconst"
	case OpcodeIadd:
		return "iadd"
	case OpcodeIsub:
		return "isub"
	case OpcodeImul:
		return "imul"
	case OpcodeBand:
		return "band"
	case OpcodeBor:
		return "bor"
	case OpcodeBxor:
		return "bxor"
	case OpcodeIaddImm:
		return "iadd_imm"
	case OpcodeIneg:
		return "ineg"
	case OpcodeBnot:
		return "bnot"
	case OpcodeIcmp:
		return "icmp"
	case OpcodeIcmpImm:
		return "icmp_imm"
	case OpcodeJump:
		return "jump"
	case OpcodeBrz:
		return "brz"
	case OpcodeBrnz:
		return "brnz"
	case OpcodeReturn:
		return "return"
	case OpcodeAtomicCas:
		return "atomic_cas"
	case OpcodeAtomicRmw:
		return "atomic_rmw"
	default:
		return "invalid"
	}
}

// IsTerminator reports whether op is a control-flow instruction (an edge or
// a return). Jump and Return end a block; Brz/Brnz do not, and are followed
// by the rest of the block when not taken. None of these is ever dispatched
// to the instruction lowerer (C4); the block lowerer (C5) handles them
// directly.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpcodeJump, OpcodeBrz, OpcodeBrnz, OpcodeReturn:
		return true
	default:
		return false
	}
}

// CompareOp is the predicate carried by OpcodeIcmp/OpcodeIcmpImm.
type CompareOp byte

const (
	CompareInvalid CompareOp = iota
	CompareEqual
	CompareNotEqual
	CompareSignedLessThan
	CompareSignedLessThanOrEqual
	CompareSignedGreaterThan
	CompareSignedGreaterThanOrEqual
	CompareUnsignedLessThan
	CompareUnsignedLessThanOrEqual
	CompareUnsignedGreaterThan
	CompareUnsignedGreaterThanOrEqual
)

func (c CompareOp) String() string {
	switch c {
	case CompareEqual:
		return "eq"
	case CompareNotEqual:
		return "ne"
	case CompareSignedLessThan:
		return "slt"
	case CompareSignedLessThanOrEqual:
		return "sle"
	case CompareSignedGreaterThan:
		return "sgt"
	case CompareSignedGreaterThanOrEqual:
		return "sge"
	case CompareUnsignedLessThan:
		return "ult"
	case CompareUnsignedLessThanOrEqual:
		return "ule"
	case CompareUnsignedGreaterThan:
		return "ugt"
	case CompareUnsignedGreaterThanOrEqual:
		return "uge"
	default:
		return "invalid"
	}
}

// Instruction is a tagged variant over Opcode. Since Go has no tagged union,
// all instruction shapes are flattened into one struct; which fields are
// meaningful depends on Opcode, exactly as documented per-opcode above.
type Instruction struct {
	Opcode Opcode

	// result is the value defined by this instruction, or ValueInvalid for
	// terminators other than none (terminators never define a value in this
	// IR: block parameters carry edge data instead).
	result Value
	typ    Type

	// args holds the operand values in evaluation order for non-terminator
	// instructions, and (for Brz/Brnz) the leading condition value.
	args []Value

	// imm is the immediate operand for Iconst and the *Imm variants.
	imm int64

	// cond is meaningful only for OpcodeIcmp/OpcodeIcmpImm.
	cond CompareOp

	// dest/destArgs are meaningful only for edge (terminator) instructions.
	dest     *Block
	destArgs []Value
}

// Result returns the value this instruction defines, and whether it defines
// one at all (terminators do not).
func (i *Instruction) Result() (Value, bool) {
	return i.result, i.result.Valid()
}

// Type returns the type of the defined value; only meaningful if Result()'s
// second return is true.
func (i *Instruction) Type() Type { return i.typ }

// Args returns the instruction's operand values, in evaluation order.
func (i *Instruction) Args() []Value { return i.args }

// Immediate returns the constant immediate carried by Iconst/IaddImm/IcmpImm.
func (i *Instruction) Immediate() int64 { return i.imm }

// Cond returns the comparison predicate for Icmp/IcmpImm.
func (i *Instruction) Cond() CompareOp { return i.cond }

// Edge returns the destination block and positional argument list for a
// terminator instruction (Jump/Brz/Brnz). For Brz/Brnz, Args()[0] is the
// condition and is not part of destArgs.
func (i *Instruction) Edge() (dest *Block, args []Value) { return i.dest, i.destArgs }

// Condition returns the tested value for Brz/Brnz.
func (i *Instruction) Condition() Value { return i.args[0] }
