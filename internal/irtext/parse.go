// Package irtext reads the small textual IR fixture format used by
// cmd/ssawasmc and by package tests: one or more functions, each an
// explicit list of blocks with typed parameters and instructions, already
// in the block-argument SSA form internal/ir expects (spec.md §3 assumes
// a generic front-end has already done phi elimination, so this reader
// does none of its own).
//
// Grammar, informally:
//
//	func NAME(TYPE, ...) -> TYPE, ... {
//	  blockN(vN: TYPE, ...):
//	    vN = iconst TYPE IMM
//	    vN = iadd vA, vB
//	    vN = iadd_imm vA, IMM
//	    vN = ineg vA
//	    vN = bnot vA
//	    vN = icmp COND vA, vB
//	    vN = icmp_imm COND vA, IMM
//	    jump blockN(vA, ...)
//	    brz vA, blockN(vB, ...)
//	    brnz vA, blockN(vB, ...)
//	    return vA, ...
//	}
//
// blockN bodies are concatenated with no separator besides the colon
// terminating the header; comments start with `;` and run to end of line.
package irtext

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
)

// Parse reads every function in src, in source order.
func Parse(src string) ([]*ir.Function, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var fns []*ir.Function
	for !p.atEnd() {
		fn, err := p.parseFunc()
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// token kinds are not distinguished beyond their text; the parser decides
// meaning from context, matching a deliberately small textual format.
type parser struct {
	toks []string
	pos  int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() (string, error) {
	if p.atEnd() {
		return "", errors.New("irtext: unexpected end of input")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) expect(want string) error {
	got, err := p.next()
	if err != nil {
		return err
	}
	if got != want {
		return errors.Errorf("irtext: expected %q, got %q", want, got)
	}
	return nil
}

func (p *parser) parseFunc() (*ir.Function, error) {
	if err := p.expect("func"); err != nil {
		return nil, err
	}
	name, err := p.next()
	if err != nil {
		return nil, err
	}

	sig, err := p.parseSignature()
	if err != nil {
		return nil, errors.Wrapf(err, "irtext: function %q", name)
	}

	if err := p.expect("{"); err != nil {
		return nil, err
	}

	fb := ir.NewFuncBuilder(name, sig)
	sc := &scope{values: make(map[string]ir.Value), blocks: make(map[string]*ir.Block)}

	// First pass: materialise every block (and its parameters) so forward
	// references in jump/brz/brnz targets resolve regardless of order.
	headerStart := p.pos
	for p.peek() != "}" {
		label, ptypes, err := p.parseBlockHeaderLabelOnly()
		if err != nil {
			return nil, errors.Wrapf(err, "irtext: function %q", name)
		}
		blk := fb.Block()
		sc.blocks[label] = blk
		_ = ptypes // validated again, against real AddParam calls, on the second pass
		if err := p.skipBlockBody(); err != nil {
			return nil, err
		}
	}
	p.pos = headerStart

	for p.peek() != "}" {
		if err := p.parseBlock(fb, sc); err != nil {
			return nil, errors.Wrapf(err, "irtext: function %q", name)
		}
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}

	return fb.Build(), nil
}

func (p *parser) parseSignature() (*ir.Signature, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var params []ir.Type
	for p.peek() != ")" {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, t)
		if p.peek() == "," {
			p.pos++
		}
	}
	p.pos++ // ")"

	var results []ir.Type
	if p.peek() == "->" {
		p.pos++
		for p.peek() != "{" {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			results = append(results, t)
			if p.peek() == "," {
				p.pos++
			}
		}
	}
	return &ir.Signature{Params: params, Results: results}, nil
}

func (p *parser) parseType() (ir.Type, error) {
	tok, err := p.next()
	if err != nil {
		return ir.TypeInvalid, err
	}
	switch tok {
	case "i32":
		return ir.TypeI32, nil
	case "i64":
		return ir.TypeI64, nil
	case "f32":
		return ir.TypeF32, nil
	case "f64":
		return ir.TypeF64, nil
	default:
		return ir.TypeInvalid, errors.Errorf("irtext: unknown type %q", tok)
	}
}

// parseBlockHeaderLabelOnly reads "label(vN: type, ...):" and returns the
// label and parameter types without materialising anything.
func (p *parser) parseBlockHeaderLabelOnly() (string, []ir.Type, error) {
	label, err := p.next()
	if err != nil {
		return "", nil, err
	}
	if err := p.expect("("); err != nil {
		return "", nil, err
	}
	var types []ir.Type
	for p.peek() != ")" {
		if _, err := p.next(); err != nil { // param name, unused in this pass
			return "", nil, err
		}
		if err := p.expect(":"); err != nil {
			return "", nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return "", nil, err
		}
		types = append(types, t)
		if p.peek() == "," {
			p.pos++
		}
	}
	p.pos++ // ")"
	if err := p.expect(":"); err != nil {
		return "", nil, err
	}
	return label, types, nil
}

// skipBlockBody advances past instructions until the next block header or
// the function's closing brace, without interpreting them.
func (p *parser) skipBlockBody() error {
	for {
		t := p.peek()
		if t == "" {
			return errors.New("irtext: unterminated block")
		}
		if t == "}" {
			return nil
		}
		if p.looksLikeBlockHeader() {
			return nil
		}
		p.pos++
	}
}

// looksLikeBlockHeader reports whether the parser is positioned at
// `label (` — the only construct that starts a new block.
func (p *parser) looksLikeBlockHeader() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	t := p.toks[p.pos]
	if t == "jump" || t == "brz" || t == "brnz" || t == "return" || strings.HasPrefix(t, "v") && isValueName(t) {
		return false
	}
	return p.toks[p.pos+1] == "("
}

func isValueName(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type scope struct {
	values map[string]ir.Value
	blocks map[string]*ir.Block
}

func (p *parser) parseBlock(fb *ir.FuncBuilder, sc *scope) error {
	label, err := p.next()
	if err != nil {
		return err
	}
	blk, ok := sc.blocks[label]
	if !ok {
		return errors.Errorf("irtext: unknown block %q", label)
	}
	if err := p.expect("("); err != nil {
		return err
	}
	for p.peek() != ")" {
		pname, err := p.next()
		if err != nil {
			return err
		}
		if err := p.expect(":"); err != nil {
			return err
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		sc.values[pname] = fb.AddParam(blk, t)
		if p.peek() == "," {
			p.pos++
		}
	}
	p.pos++ // ")"
	if err := p.expect(":"); err != nil {
		return err
	}

	fb.SetCurrentBlock(blk)
	for !p.looksLikeBlockHeader() && p.peek() != "}" {
		if err := p.parseInstr(fb, sc); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseInstr(fb *ir.FuncBuilder, sc *scope) error {
	first, err := p.next()
	if err != nil {
		return err
	}

	switch first {
	case "jump":
		dest, args, err := p.parseEdgeTarget(sc)
		if err != nil {
			return err
		}
		fb.Jump(dest, args...)
		return nil
	case "brz", "brnz":
		cond, err := p.value(sc)
		if err != nil {
			return err
		}
		if err := p.expect(","); err != nil {
			return err
		}
		dest, args, err := p.parseEdgeTarget(sc)
		if err != nil {
			return err
		}
		if first == "brz" {
			fb.Brz(cond, dest, args...)
		} else {
			fb.Brnz(cond, dest, args...)
		}
		return nil
	case "return":
		var args []ir.Value
		for !p.looksLikeBlockHeader() && p.peek() != "}" {
			v, err := p.value(sc)
			if err != nil {
				return err
			}
			args = append(args, v)
			if p.peek() == "," {
				p.pos++
			} else {
				break
			}
		}
		fb.Return(args...)
		return nil
	}

	// Otherwise: "vN = op ...".
	resultName := first
	if err := p.expect("="); err != nil {
		return err
	}
	op, err := p.next()
	if err != nil {
		return err
	}

	var result ir.Value
	switch op {
	case "iconst":
		t, err := p.parseType()
		if err != nil {
			return err
		}
		imm, err := p.immediate()
		if err != nil {
			return err
		}
		result = fb.Iconst(t, imm)
	case "iadd", "isub", "imul", "band", "bor", "bxor":
		x, y, err := p.binaryOperands(sc)
		if err != nil {
			return err
		}
		switch op {
		case "iadd":
			result = fb.Iadd(x, y)
		case "isub":
			result = fb.Isub(x, y)
		case "imul":
			result = fb.Imul(x, y)
		case "band":
			result = fb.Band(x, y)
		case "bor":
			result = fb.Bor(x, y)
		case "bxor":
			result = fb.Bxor(x, y)
		}
	case "iadd_imm":
		x, err := p.value(sc)
		if err != nil {
			return err
		}
		if err := p.expect(","); err != nil {
			return err
		}
		imm, err := p.immediate()
		if err != nil {
			return err
		}
		result = fb.IaddImm(x, imm)
	case "ineg":
		x, err := p.value(sc)
		if err != nil {
			return err
		}
		result = fb.Ineg(x)
	case "bnot":
		x, err := p.value(sc)
		if err != nil {
			return err
		}
		result = fb.Bnot(x)
	case "icmp":
		cond, err := p.compareOp()
		if err != nil {
			return err
		}
		x, y, err := p.binaryOperands(sc)
		if err != nil {
			return err
		}
		result = fb.Icmp(cond, x, y)
	case "icmp_imm":
		cond, err := p.compareOp()
		if err != nil {
			return err
		}
		x, err := p.value(sc)
		if err != nil {
			return err
		}
		if err := p.expect(","); err != nil {
			return err
		}
		imm, err := p.immediate()
		if err != nil {
			return err
		}
		result = fb.IcmpImm(cond, x, imm)
	case "atomic_cas":
		addr, err := p.value(sc)
		if err != nil {
			return err
		}
		if err := p.expect(","); err != nil {
			return err
		}
		expected, err := p.value(sc)
		if err != nil {
			return err
		}
		if err := p.expect(","); err != nil {
			return err
		}
		replacement, err := p.value(sc)
		if err != nil {
			return err
		}
		result = fb.AtomicCas(addr, expected, replacement)
	case "atomic_rmw":
		addr, x, err := p.binaryOperands(sc)
		if err != nil {
			return err
		}
		result = fb.AtomicRmw(addr, x)
	default:
		return errors.Errorf("irtext: unknown opcode %q", op)
	}

	sc.values[resultName] = result
	return nil
}

func (p *parser) binaryOperands(sc *scope) (ir.Value, ir.Value, error) {
	x, err := p.value(sc)
	if err != nil {
		return ir.ValueInvalid, ir.ValueInvalid, err
	}
	if err := p.expect(","); err != nil {
		return ir.ValueInvalid, ir.ValueInvalid, err
	}
	y, err := p.value(sc)
	if err != nil {
		return ir.ValueInvalid, ir.ValueInvalid, err
	}
	return x, y, nil
}

func (p *parser) parseEdgeTarget(sc *scope) (*ir.Block, []ir.Value, error) {
	label, err := p.next()
	if err != nil {
		return nil, nil, err
	}
	blk, ok := sc.blocks[label]
	if !ok {
		return nil, nil, errors.Errorf("irtext: unknown block %q", label)
	}
	if err := p.expect("("); err != nil {
		return nil, nil, err
	}
	var args []ir.Value
	for p.peek() != ")" {
		v, err := p.value(sc)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, v)
		if p.peek() == "," {
			p.pos++
		}
	}
	p.pos++ // ")"
	return blk, args, nil
}

func (p *parser) value(sc *scope) (ir.Value, error) {
	name, err := p.next()
	if err != nil {
		return ir.ValueInvalid, err
	}
	v, ok := sc.values[name]
	if !ok {
		return ir.ValueInvalid, errors.Errorf("irtext: undefined value %q", name)
	}
	return v, nil
}

func (p *parser) immediate() (int64, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	return parseInt(tok)
}

func (p *parser) compareOp() (ir.CompareOp, error) {
	tok, err := p.next()
	if err != nil {
		return ir.CompareInvalid, err
	}
	switch tok {
	case "eq":
		return ir.CompareEqual, nil
	case "ne":
		return ir.CompareNotEqual, nil
	case "slt":
		return ir.CompareSignedLessThan, nil
	case "sle":
		return ir.CompareSignedLessThanOrEqual, nil
	case "sgt":
		return ir.CompareSignedGreaterThan, nil
	case "sge":
		return ir.CompareSignedGreaterThanOrEqual, nil
	case "ult":
		return ir.CompareUnsignedLessThan, nil
	case "ule":
		return ir.CompareUnsignedLessThanOrEqual, nil
	case "ugt":
		return ir.CompareUnsignedGreaterThan, nil
	case "uge":
		return ir.CompareUnsignedGreaterThanOrEqual, nil
	default:
		return ir.CompareInvalid, errors.Errorf("irtext: unknown comparison %q", tok)
	}
}
