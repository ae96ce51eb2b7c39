// Command ssawasmc is the repository's CLI front door (spec.md §6): it
// reads a textual IR fixture, translates each function, and writes a
// binary WebAssembly module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ssawasmc",
		Short:         "Translate a source SSA IR fixture into a WebAssembly module",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd())
	return root
}
