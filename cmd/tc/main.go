// Command tc compiles a Triangle program to TAM object code.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"gotam/pkg/compiler"
	"gotam/pkg/config"
	"gotam/pkg/tam"
	"gotam/pkg/tamasm"
	"gotam/pkg/utils"
)

// errFailed is returned when the program has errors. They have already been
// printed, so main only sets the exit status.
var errFailed = errors.New("compilation was unsuccessful")

type flags struct {
	output        string
	folding       bool
	showTree      bool
	showTreeAfter bool
	showStats     bool
	showTable     bool
	showCode      bool
	debugInfo     bool
	configPath    string
	watch         bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "tc <source>",
		Short:         "Compile a Triangle program to TAM object code",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			if f.watch {
				return watch(cmd.Context(), args[0], cfg, cmd.OutOrStdout())
			}
			return compileFile(args[0], cfg, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "obj.tam", "object file to write")
	fl.BoolVar(&f.folding, "folding", false, "fold constant expressions before code generation")
	fl.BoolVar(&f.showTree, "showTree", false, "print the checked tree")
	fl.BoolVar(&f.showTreeAfter, "showTreeAfter", false, "print the tree after folding")
	fl.BoolVar(&f.showStats, "showStats", false, "print literal statistics")
	fl.BoolVar(&f.showTable, "showTable", false, "print the storage allocated to each declaration")
	fl.BoolVar(&f.showCode, "showCode", false, "print a listing of the generated code")
	fl.BoolVar(&f.debugInfo, "debug-info", false, "write a debug sidecar next to the object file")
	fl.StringVar(&f.configPath, "config", config.DefaultFile, "configuration file")
	fl.BoolVar(&f.watch, "watch", false, "recompile whenever the source changes")
	return cmd
}

// resolveConfig loads the config file and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	var cfg config.Config
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(f.configPath)
	} else {
		cfg, err = config.LoadOptional(f.configPath)
	}
	if err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("folding") {
		cfg.Folding = f.folding
	}
	if changed("showTree") {
		cfg.Show.Tree = f.showTree
	}
	if changed("showTreeAfter") {
		cfg.Show.TreeAfter = f.showTreeAfter
	}
	if changed("showStats") {
		cfg.Show.Stats = f.showStats
	}
	if changed("showTable") {
		cfg.Show.Table = f.showTable
	}
	if changed("showCode") {
		cfg.Show.Code = f.showCode
	}
	if changed("debug-info") {
		cfg.DebugInfo = f.debugInfo
	}
	return cfg, nil
}

// compileFile compiles source and, on success, writes the object file and
// optional debug sidecar.
func compileFile(source string, cfg config.Config, out io.Writer) error {
	src, err := utils.ReadSource(source)
	if err != nil {
		return err
	}
	fullPath, _, err := utils.GetPathInfo(source)
	if err != nil {
		return err
	}

	res := compiler.Compile(fullPath, src, compiler.Options{
		Folding:       cfg.Folding,
		ShowTree:      cfg.Show.Tree,
		ShowTreeAfter: cfg.Show.TreeAfter,
		ShowStats:     cfg.Show.Stats,
		ShowTable:     cfg.Show.Table,
		Log:           out,
	})
	if !res.Success {
		return errFailed
	}

	if cfg.Show.Code {
		if err := tamasm.Disassemble(out, res.Code, res.DebugInfo()); err != nil {
			return err
		}
	}
	if err := tam.SaveObject(cfg.Output, res.Code); err != nil {
		return err
	}
	if cfg.DebugInfo {
		if err := tam.SaveDebugInfo(tam.DebugPath(cfg.Output), res.DebugInfo()); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if errors.Is(err, errFailed) {
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("tc: %v", err)
	}
}

