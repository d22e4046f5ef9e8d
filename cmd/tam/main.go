// Command tam runs, disassembles and assembles TAM object programs.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"gotam/pkg/config"
	"gotam/pkg/tam"
	"gotam/pkg/tamasm"
	"gotam/pkg/utils"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tam",
		Short:         "Triangle Abstract Machine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newDisasmCmd(), newAsmCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		trace    bool
		maxSteps int
	)
	cmd := &cobra.Command{
		Use:   "run <object>",
		Short: "Execute an object program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-steps") {
				cfg, err := config.LoadOptional(config.DefaultFile)
				if err != nil {
					return err
				}
				maxSteps = cfg.Run.MaxSteps
			}
			return run(args[0], cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), trace, maxSteps)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print each instruction and its source line to stderr")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after this many instructions (0 = no limit)")
	return cmd
}

func run(path string, in io.Reader, out, errOut io.Writer, trace bool, maxSteps int) error {
	code, err := tam.LoadObject(path)
	if err != nil {
		return err
	}
	m, err := tam.NewMachine(code)
	if err != nil {
		return err
	}
	m.Input = in
	m.Output = out
	m.MaxSteps = maxSteps

	if trace {
		dbg := loadDebugInfo(path, code, errOut)
		m.Trace = func(addr int, instr tam.Instruction) {
			if line := dbg.Line(addr); line > 0 {
				fmt.Fprintf(errOut, "%4d: %-24s ; line %d\n", addr, instr, line)
				return
			}
			fmt.Fprintf(errOut, "%4d: %s\n", addr, instr)
		}
	}
	return m.Run()
}

// loadDebugInfo returns the sidecar for path, or nil if there is none or it
// belongs to another build.
func loadDebugInfo(path string, code []tam.Instruction, errOut io.Writer) *tam.DebugInfo {
	dbg, err := tam.LoadDebugInfo(tam.DebugPath(path), code)
	switch {
	case err == nil:
		return dbg
	case errors.Is(err, tam.ErrStaleDebugInfo):
		fmt.Fprintf(errOut, "tam: ignoring %v\n", err)
	case !errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(errOut, "tam: debug info: %v\n", err)
	}
	return nil
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <object>",
		Short: "List an object program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := tam.LoadObject(args[0])
			if err != nil {
				return err
			}
			dbg := loadDebugInfo(args[0], code, cmd.ErrOrStderr())
			return tamasm.Disassemble(cmd.OutOrStdout(), code, dbg)
		},
	}
}

func newAsmCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "asm <source.s>",
		Short: "Assemble a TAM listing into an object program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := utils.ReadSource(args[0])
			if err != nil {
				return err
			}
			code, _, err := tamasm.Assemble(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if output == "" {
				output = utils.WithExt(args[0], ".tam")
			}
			return tam.SaveObject(output, code)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "object file to write (default: source name with .tam)")
	return cmd
}

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("tam: %v", err)
	}
}
