// Command sagavm-disasm prints a listing of compiled script modules.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
)

type disasmOptions struct {
	title   string
	entries bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sagavm-disasm: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := new(disasmOptions)
	c := &cobra.Command{
		Use:                   "sagavm-disasm [options] MODULE [...]",
		Short:                 "disassemble SAGA script modules",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVar(&opts.title, "title", string(opcode.ITE), "opcode layout `name` (ite or ihnm)")
	c.Flags().BoolVar(&opts.entries, "entries", true, "print the entry point table")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runDisasm(cmd.OutOrStdout(), opts, args)
	}
	return c
}

// layoutNames names natives by their position in an opcode layout.
type layoutNames []opcode.Kind

func (l layoutNames) NativeName(index int) string {
	if index < 0 || index >= len(l) {
		return fmt.Sprintf("unknown_%d", index)
	}
	return l[index].String()
}

func runDisasm(w io.Writer, opts *disasmOptions, paths []string) error {
	title, err := opcode.ParseTitle(opts.title)
	if err != nil {
		return err
	}
	names := layoutNames(opcode.Layout(title))

	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		m, err := vm.LoadModule(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "; module %q (%s, %d bytes)\n", m.Name, path, len(m.Code))
		if opts.entries {
			for n, pc := range m.Entries {
				fmt.Fprintf(w, "; entry %d = %04d\n", n, pc)
			}
		}
		fmt.Fprintln(w, vm.Disassemble(m.Code, names))
	}
	return nil
}
