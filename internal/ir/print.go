package ir

import (
	"fmt"
	"strings"
)

// Print renders fn in the textual format internal/irtext reads back, for
// the CLI's PRINT_CLIF diagnostic (spec.md §6).
func (fn *Function) Print() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "func %s(", fn.Name)
	for i, t := range fn.Sig.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteString(")")
	if len(fn.Sig.Results) > 0 {
		sb.WriteString(" -> ")
		for i, t := range fn.Sig.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
	}
	sb.WriteString(" {\n")

	for _, b := range fn.Blocks {
		fmt.Fprintf(&sb, "block%d(", b.ID)
		for i, v := range b.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", v, b.ptypes[i])
		}
		sb.WriteString("):\n")

		for _, inst := range b.instrs {
			sb.WriteString("    ")
			sb.WriteString(printInstr(inst))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func printInstr(inst *Instruction) string {
	if result, ok := inst.Result(); ok {
		return fmt.Sprintf("%s = %s", result, printRHS(inst))
	}
	return printRHS(inst)
}

func printRHS(inst *Instruction) string {
	switch inst.Opcode {
	case OpcodeIconst:
		return fmt.Sprintf("iconst %s %d", inst.typ, inst.imm)
	case OpcodeIadd, OpcodeIsub, OpcodeImul, OpcodeBand, OpcodeBor, OpcodeBxor:
		return fmt.Sprintf("%s %s, %s", inst.Opcode, inst.args[0], inst.args[1])
	case OpcodeIaddImm:
		return fmt.Sprintf("iadd_imm %s, %d", inst.args[0], inst.imm)
	case OpcodeIneg:
		return fmt.Sprintf("ineg %s", inst.args[0])
	case OpcodeBnot:
		return fmt.Sprintf("bnot %s", inst.args[0])
	case OpcodeIcmp:
		return fmt.Sprintf("icmp %s %s, %s", inst.cond, inst.args[0], inst.args[1])
	case OpcodeIcmpImm:
		return fmt.Sprintf("icmp_imm %s %s, %d", inst.cond, inst.args[0], inst.imm)
	case OpcodeAtomicCas:
		return fmt.Sprintf("atomic_cas %s, %s, %s", inst.args[0], inst.args[1], inst.args[2])
	case OpcodeAtomicRmw:
		return fmt.Sprintf("atomic_rmw %s, %s", inst.args[0], inst.args[1])
	case OpcodeJump:
		return fmt.Sprintf("jump %s", printEdge(inst))
	case OpcodeBrz:
		return fmt.Sprintf("brz %s, %s", inst.args[0], printEdge(inst))
	case OpcodeBrnz:
		return fmt.Sprintf("brnz %s, %s", inst.args[0], printEdge(inst))
	case OpcodeReturn:
		return fmt.Sprintf("return %s", printValues(inst.args))
	default:
		return inst.Opcode.String()
	}
}

func printEdge(inst *Instruction) string {
	dest, args := inst.Edge()
	return fmt.Sprintf("block%d(%s)", dest.ID, printValues(args))
}

func printValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
