package ir

import "github.com/pkg/errors"

// Interpret executes fn directly over the source IR, starting at its entry
// block, and returns its positional return values. It shares no code with
// internal/wasmtarget's classifier/lowerer pipeline: it exists solely as an
// independent reference against which compiled-and-executed output can be
// checked (spec.md §8 "Round-trip").
func Interpret(fn *Function, args ...uint64) ([]uint64, error) {
	blk := fn.EntryBlock()
	env := make(map[Value]uint64, len(blk.Params))
	if err := bindArgs(env, blk, args); err != nil {
		return nil, errors.Wrapf(err, "ir: interpret %s", fn.Name)
	}

	for {
		results, next, err := runBlock(fn, blk, env)
		if err != nil {
			return nil, errors.Wrapf(err, "ir: interpret %s", fn.Name)
		}
		if results != nil {
			return results, nil
		}
		blk = next
	}
}

func bindArgs(env map[Value]uint64, blk *Block, args []uint64) error {
	if len(args) != len(blk.Params) {
		return errors.Errorf("entry block takes %d params, got %d args", len(blk.Params), len(args))
	}
	for i, p := range blk.Params {
		env[p] = args[i]
	}
	return nil
}

// runBlock executes blk's instructions in order against env (mutated in
// place). It returns either the function's final results (execution is
// done) or the next block to run, having already bound that block's
// parameters into env.
func runBlock(fn *Function, blk *Block, env map[Value]uint64) (results []uint64, next *Block, err error) {
	for _, inst := range blk.Instructions() {
		switch inst.Opcode {
		case OpcodeReturn:
			args := inst.Args()
			out := make([]uint64, len(args))
			for i, a := range args {
				out[i] = env[a]
			}
			return out, nil, nil

		case OpcodeJump:
			dest, destArgs := inst.Edge()
			if err := bindEdge(env, dest, destArgs); err != nil {
				return nil, nil, err
			}
			return nil, dest, nil

		case OpcodeBrz, OpcodeBrnz:
			cond := env[inst.Condition()]
			taken := cond == 0
			if inst.Opcode == OpcodeBrnz {
				taken = !taken
			}
			if !taken {
				continue
			}
			dest, destArgs := inst.Edge()
			if err := bindEdge(env, dest, destArgs); err != nil {
				return nil, nil, err
			}
			return nil, dest, nil

		default:
			val, err := evalInstr(fn, env, inst)
			if err != nil {
				return nil, nil, err
			}
			if v, ok := inst.Result(); ok {
				env[v] = val
			}
		}
	}
	return nil, nil, errors.Errorf("block %d falls off its end without a terminator", blk.ID)
}

func bindEdge(env map[Value]uint64, dest *Block, args []Value) error {
	if len(args) != len(dest.Params) {
		return errors.Errorf("edge to block %d passes %d args for %d parameters", dest.ID, len(args), len(dest.Params))
	}
	for i, a := range args {
		env[dest.Params[i]] = env[a]
	}
	return nil
}

// evalInstr computes the value a non-terminator instruction defines. It
// mirrors the operation set internal/wasmtarget/lower_inst.go lowers
// (spec.md §4.4), evaluated directly rather than via target VM opcodes.
func evalInstr(fn *Function, env map[Value]uint64, inst *Instruction) (uint64, error) {
	switch inst.Opcode {
	case OpcodeIconst:
		return mask(inst.Type(), uint64(inst.Immediate())), nil

	case OpcodeIadd:
		a, b := binOperands(env, inst)
		return mask(inst.Type(), a+b), nil
	case OpcodeIsub:
		a, b := binOperands(env, inst)
		return mask(inst.Type(), a-b), nil
	case OpcodeImul:
		a, b := binOperands(env, inst)
		return mask(inst.Type(), a*b), nil
	case OpcodeBand:
		a, b := binOperands(env, inst)
		return mask(inst.Type(), a&b), nil
	case OpcodeBor:
		a, b := binOperands(env, inst)
		return mask(inst.Type(), a|b), nil
	case OpcodeBxor:
		a, b := binOperands(env, inst)
		return mask(inst.Type(), a^b), nil

	case OpcodeIaddImm:
		a := env[inst.Args()[0]]
		return mask(inst.Type(), a+uint64(inst.Immediate())), nil
	case OpcodeIneg:
		a := env[inst.Args()[0]]
		return mask(inst.Type(), -a), nil
	case OpcodeBnot:
		a := env[inst.Args()[0]]
		return mask(inst.Type(), ^a), nil

	case OpcodeIcmp:
		args := inst.Args()
		typ, ok := fn.ValueType(args[0])
		if !ok {
			return 0, errors.Errorf("value %s has no recorded type", args[0])
		}
		return boolToU64(compare(inst.Cond(), env[args[0]], env[args[1]], typ)), nil

	case OpcodeIcmpImm:
		args := inst.Args()
		typ, ok := fn.ValueType(args[0])
		if !ok {
			return 0, errors.Errorf("value %s has no recorded type", args[0])
		}
		return boolToU64(compare(inst.Cond(), env[args[0]], mask(typ, uint64(inst.Immediate())), typ)), nil

	case OpcodeAtomicCas, OpcodeAtomicRmw:
		return 0, errors.Errorf("%s has no defined source-level semantics (spec.md §4.4)", inst.Opcode)

	default:
		return 0, errors.Errorf("unhandled opcode %s", inst.Opcode)
	}
}

func binOperands(env map[Value]uint64, inst *Instruction) (uint64, uint64) {
	args := inst.Args()
	return env[args[0]], env[args[1]]
}

// mask truncates v to t's bit width, matching i32 wraparound semantics.
func mask(t Type, v uint64) uint64 {
	if t == TypeI32 {
		return uint64(uint32(v))
	}
	return v
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func toSigned(t Type, v uint64) int64 {
	if t == TypeI32 {
		return int64(int32(uint32(v)))
	}
	return int64(v)
}

func compare(cond CompareOp, a, b uint64, t Type) bool {
	switch cond {
	case CompareEqual:
		return a == b
	case CompareNotEqual:
		return a != b
	case CompareUnsignedLessThan:
		return a < b
	case CompareUnsignedLessThanOrEqual:
		return a <= b
	case CompareUnsignedGreaterThan:
		return a > b
	case CompareUnsignedGreaterThanOrEqual:
		return a >= b
	case CompareSignedLessThan:
		return toSigned(t, a) < toSigned(t, b)
	case CompareSignedLessThanOrEqual:
		return toSigned(t, a) <= toSigned(t, b)
	case CompareSignedGreaterThan:
		return toSigned(t, a) > toSigned(t, b)
	case CompareSignedGreaterThanOrEqual:
		return toSigned(t, a) >= toSigned(t, b)
	default:
		return false
	}
}
