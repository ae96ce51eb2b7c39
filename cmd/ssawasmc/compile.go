package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/diag"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/irtext"
	"github.com/teymour-aldridge/cranelift-codegen-wasm/internal/module"
)

func newCompileCmd() *cobra.Command {
	var out string
	var debug bool

	cmd := &cobra.Command{
		Use:   "compile <fixture.irtext>",
		Short: "Translate a textual IR fixture into a .wasm module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], out, debug)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "a.wasm", "output module path")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug-level translation diagnostics")
	return cmd
}

func runCompile(cmd *cobra.Command, fixture, out string, debug bool) error {
	printCLIF := envFlag("PRINT_CLIF")
	printWAT := envFlag("PRINT_WAT")

	src, err := os.ReadFile(fixture)
	if err != nil {
		return errors.Wrap(err, "reading fixture")
	}

	fns, err := irtext.Parse(string(src))
	if err != nil {
		return errors.Wrap(err, "parsing fixture")
	}

	if printCLIF {
		for _, fn := range fns {
			fmt.Fprint(cmd.OutOrStdout(), fn.Print())
		}
	}

	b := module.NewBuilder(diag.NewLogger(debug))
	for _, fn := range fns {
		if err := b.DeclareFunction(module.FuncDecl{Name: fn.Name, Linkage: module.Export, Sig: fn.Sig}); err != nil {
			return err
		}
	}
	if err := b.CompileFunctions(context.Background(), fns); err != nil {
		return err
	}

	if printWAT {
		for _, fn := range fns {
			compiled, ok := b.Compiled(fn.Name)
			if !ok {
				return errors.Errorf("internal: %q compiled but not recorded", fn.Name)
			}
			fmt.Fprint(cmd.OutOrStdout(), compiled.Print())
		}
	}

	bytes, err := b.Emit()
	if err != nil {
		return errors.Wrap(err, "emitting module")
	}
	if err := os.WriteFile(out, bytes, 0o644); err != nil {
		return errors.Wrap(err, "writing module")
	}
	return nil
}

func envFlag(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}
