package wasmtarget

import (
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/relooper"
)

// CompiledFunction is the result of translating one source function.
// Locals are listed in allocation order: the entry block's parameters come
// first (these double as the target function's own parameters, following
// WebAssembly's convention that a function's parameters are its first
// locals), followed by everything C2/C3 allocate on demand.
type CompiledFunction struct {
	Name    string
	Params  []ValKind
	Results []ValKind
	Locals  []Local
	Body    []Instr
}

// Translate implements C7: translate a single source function into a
// structured target function body. It is this package's sole entry point.
func Translate(fn *ir.Function) (*CompiledFunction, error) {
	locals := &LocalAllocator{}
	t := newTables(fn, locals)

	entry := fn.EntryBlock()
	for i, v := range entry.Params {
		if _, err := t.ensureBlockParamLocal(entry, v, entry.ParamType(i)); err != nil {
			return nil, err
		}
	}

	edges := make(relooper.Edges, len(fn.Blocks))
	for _, b := range fn.Blocks {
		var succ []relooper.BlockID
		for _, s := range b.Successors() {
			succ = append(succ, relooper.BlockID(s))
		}
		edges[relooper.BlockID(b.ID)] = succ
	}

	if err := t.classify(); err != nil {
		return nil, err
	}

	shape := relooper.Reloop(edges, relooper.BlockID(entry.ID))

	body, err := t.compileShape(shape, nil, nil)
	if err != nil {
		return nil, err
	}
	// Terminate any fall-through path the structured recovery could not
	// prove dead (spec.md §4.7 step 6).
	body = append(body, Instr{Op: OpUnreachable})

	params, err := mapTypes(fn.Sig.Params)
	if err != nil {
		return nil, err
	}
	results, err := mapTypes(fn.Sig.Results)
	if err != nil {
		return nil, err
	}

	return &CompiledFunction{
		Name:    fn.Name,
		Params:  params,
		Results: results,
		Locals:  locals.Locals(),
		Body:    body,
	}, nil
}

func mapTypes(ts []ir.Type) ([]ValKind, error) {
	out := make([]ValKind, len(ts))
	for i, typ := range ts {
		k, err := MapType(typ)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}
