package wasmtarget

import (
	"fmt"
	"strings"
)

// Print renders a WAT-like disassembly of cf, for the CLI's PRINT_WAT
// diagnostic (spec.md §6). It is not a validated WAT file (no module
// wrapper, no value-type inference beyond what CompiledFunction already
// carries) — it exists to make emitted structured control flow readable.
func (cf *CompiledFunction) Print() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func $%s", cf.Name)
	for _, p := range cf.Params {
		fmt.Fprintf(&sb, " (param %s)", p)
	}
	for _, r := range cf.Results {
		fmt.Fprintf(&sb, " (result %s)", r)
	}
	sb.WriteString("\n")
	for _, l := range cf.Locals[len(cf.Params):] {
		fmt.Fprintf(&sb, "  (local $%d %s)\n", l.ID, l.Kind)
	}
	printInstrs(&sb, cf.Body, 1)
	return sb.String()
}

func printInstrs(sb *strings.Builder, seq []Instr, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, in := range seq {
		switch in.Op {
		case OpLocalGet:
			fmt.Fprintf(sb, "%slocal.get %d\n", indent, in.Local)
		case OpLocalSet:
			fmt.Fprintf(sb, "%slocal.set %d\n", indent, in.Local)
		case OpLocalTee:
			fmt.Fprintf(sb, "%slocal.tee %d\n", indent, in.Local)
		case OpI32Const:
			fmt.Fprintf(sb, "%si32.const %d\n", indent, in.I32)
		case OpI64Const:
			fmt.Fprintf(sb, "%si64.const %d\n", indent, in.I64)
		case OpBlock:
			fmt.Fprintf(sb, "%sblock\n", indent)
			printInstrs(sb, in.Body, depth+1)
			fmt.Fprintf(sb, "%send\n", indent)
		case OpLoop:
			fmt.Fprintf(sb, "%sloop\n", indent)
			printInstrs(sb, in.Body, depth+1)
			fmt.Fprintf(sb, "%send\n", indent)
		case OpIf:
			fmt.Fprintf(sb, "%sif\n", indent)
			printInstrs(sb, in.Body, depth+1)
			if in.Else != nil {
				fmt.Fprintf(sb, "%selse\n", indent)
				printInstrs(sb, in.Else, depth+1)
			}
			fmt.Fprintf(sb, "%send\n", indent)
		case OpBr:
			fmt.Fprintf(sb, "%sbr %d\n", indent, in.Label)
		case OpBrIf:
			fmt.Fprintf(sb, "%sbr_if %d\n", indent, in.Label)
		default:
			fmt.Fprintf(sb, "%s%s\n", indent, in.Op)
		}
	}
}
