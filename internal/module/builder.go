// Package module implements the generic module builder referred to by
// spec.md §1: it accumulates function declarations and their compiled
// bodies, then emits a single binary WebAssembly module. It knows nothing
// about source IR translation beyond calling internal/wasmtarget.Translate
// once per function, mirroring the way the teacher engine's compiledModule
// accumulates per-function machine code ahead of one final executable.
package module

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/ir"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/wasmbin"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/wasmtarget"
)

// FuncDecl records a declared-but-not-necessarily-compiled function.
type FuncDecl struct {
	Name    string
	Linkage Linkage
	Sig     *ir.Signature
}

// Builder accumulates function declarations and their compiled bodies
// ahead of a single Emit. Declaration and compiled-function bookkeeping
// are mutex-guarded so CompileFunctions can fan translation out over a
// worker pool (spec.md §5's "per-function table scoping").
type Builder struct {
	log *logrus.Logger

	mu       sync.Mutex
	decls    map[string]FuncDecl
	order    []string
	compiled map[string]*wasmtarget.CompiledFunction
}

// NewBuilder returns an empty Builder. log may be nil, in which case a
// logger discarding all output is used.
func NewBuilder(log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Builder{
		log:      log,
		decls:    make(map[string]FuncDecl),
		compiled: make(map[string]*wasmtarget.CompiledFunction),
	}
}

// DeclareFunction registers a function's name, linkage and signature ahead
// of compilation. Reserved linkages (spec.md §6) are rejected.
func (b *Builder) DeclareFunction(decl FuncDecl) error {
	if !decl.Linkage.supported() {
		return errors.Errorf("module: linkage %s is reserved and not implemented", decl.Linkage)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.decls[decl.Name]; exists {
		return errors.Errorf("module: function %q already declared", decl.Name)
	}
	b.decls[decl.Name] = decl
	b.order = append(b.order, decl.Name)
	b.log.WithFields(logrus.Fields{"name": decl.Name, "linkage": decl.Linkage.String()}).Debug("declared function")
	return nil
}

// DefineFunction translates fn (C7) and records the result against its
// declaration. fn.Name must already have been declared.
func (b *Builder) DefineFunction(fn *ir.Function) error {
	b.mu.Lock()
	_, ok := b.decls[fn.Name]
	b.mu.Unlock()
	if !ok {
		return errors.Errorf("module: function %q was not declared", fn.Name)
	}

	compiled, err := wasmtarget.Translate(fn)
	if err != nil {
		b.log.WithFields(logrus.Fields{"name": fn.Name, "error": err}).Error("translation failed")
		return errors.Wrapf(err, "module: translating %q", fn.Name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.compiled[fn.Name] = compiled
	b.log.WithFields(logrus.Fields{"name": fn.Name, "locals": len(compiled.Locals)}).Debug("compiled function")
	return nil
}

// Compiled returns the already-translated body for a defined function, for
// callers (the CLI's PRINT_WAT diagnostic) that want it without paying
// for a second translation.
func (b *Builder) Compiled(name string) (*wasmtarget.CompiledFunction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cf, ok := b.compiled[name]
	return cf, ok
}

// CompileFunctions defines every function in fns concurrently, fanning the
// work out over an errgroup (spec.md §5) so independent functions
// translate in parallel; the Builder's own mutex keeps bookkeeping safe.
func (b *Builder) CompileFunctions(ctx context.Context, fns []*ir.Function) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return b.DefineFunction(fn)
		})
	}
	return g.Wait()
}

// Emit serialises every declared-and-compiled function into a binary
// WebAssembly module, in declaration order.
func (b *Builder) Emit() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fns := make([]wasmbin.Func, 0, len(b.order))
	for _, name := range b.order {
		decl := b.decls[name]
		compiled, ok := b.compiled[name]
		if !ok {
			return nil, errors.Errorf("module: function %q declared but never defined", name)
		}
		fns = append(fns, wasmbin.Func{
			Name:     name,
			Exported: decl.Linkage == Export,
			Compiled: compiled,
		})
	}

	out, err := wasmbin.Encode(fns)
	if err != nil {
		return nil, errors.Wrap(err, "module: encoding")
	}
	return out, nil
}
