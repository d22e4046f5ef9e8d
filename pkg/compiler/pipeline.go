// Package compiler runs the Triangle pipeline: parse, check, fold, encode.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"log"

	"gotam/pkg/ast"
	"gotam/pkg/checker"
	"gotam/pkg/codegen"
	"gotam/pkg/diag"
	"gotam/pkg/optimizer"
	"gotam/pkg/syntax"
	"gotam/pkg/tam"
)

// Options select the optional stages and listings of a compilation.
type Options struct {
	Folding       bool
	ShowTree      bool
	ShowTreeAfter bool
	ShowStats     bool
	ShowTable     bool

	// Log receives banners, diagnostics and listings. Nil discards them.
	Log io.Writer
}

// Unit is one source program moving through the pipeline. Each stage
// records its results on the unit and reports problems to Reporter.
type Unit struct {
	Name     string
	Source   string
	Program  *ast.Program
	Info     *checker.Info
	Reporter *diag.Reporter
	Object   *codegen.Program

	opts   Options
	log    *log.Logger
	folded bool
}

func NewUnit(name, src string, opts Options) *Unit {
	w := opts.Log
	if w == nil {
		w = io.Discard
	}
	reporter := diag.NewReporter()
	reporter.Echo = w
	return &Unit{
		Name:     name,
		Source:   src,
		Reporter: reporter,
		opts:     opts,
		log:      log.New(w, "", 0),
	}
}

// Parse builds the tree. A syntax error is reported as a diagnostic and
// leaves Program nil.
func (u *Unit) Parse() bool {
	u.log.Println("Syntactic Analysis ...")
	prog, err := syntax.Parse(u.Source)
	if err != nil {
		var se *syntax.SyntaxError
		if errors.As(err, &se) {
			u.Reporter.Errorf(se.Pos, "%s", se.Msg)
			if se.Snippet != "" {
				u.log.Printf("  |> %s", se.Snippet)
			}
		} else {
			u.Reporter.Errorf(ast.Pos{}, "%v", err)
		}
		return false
	}
	u.Program = prog
	return true
}

// Check runs contextual analysis. It reports whether the program is free of
// errors so far.
func (u *Unit) Check() bool {
	if u.Program == nil {
		return false
	}
	u.log.Println("Contextual Analysis ...")
	u.Info = checker.Check(u.Program, u.Reporter)
	if u.opts.ShowTree {
		u.log.Println(u.Program)
	}
	return u.Reporter.ErrorCount() == 0
}

// Stats counts literals in the program as the later passes see it.
func (u *Unit) Stats() optimizer.Stats {
	if u.Program == nil {
		return optimizer.Stats{}
	}
	return optimizer.CountLiterals(u.Program, u.Info)
}

// Fold runs the constant folder once and returns the number of expressions
// replaced. It does nothing for a program with errors or one already folded.
func (u *Unit) Fold() int {
	if u.Info == nil || u.folded || u.Reporter.ErrorCount() > 0 {
		return 0
	}
	u.folded = true
	n := optimizer.NewFolder(u.Info, u.Reporter).Fold(u.Program)
	if u.opts.ShowTreeAfter {
		u.log.Println(optimizer.Tree(u.Program, u.Info))
	}
	return n
}

// Encode generates TAM code. It returns nil if any error has been reported.
func (u *Unit) Encode() *codegen.Program {
	if u.Info == nil || u.Reporter.ErrorCount() > 0 {
		return nil
	}
	u.log.Println("Code Generation ...")
	u.Object = codegen.Encode(u.Program, u.Info, u.Reporter)
	if u.Object != nil && u.opts.ShowTable {
		printEntities(u.log.Writer(), u.Object.Entities)
	}
	return u.Object
}

// DebugInfo binds the unit's source map and entity table to its code. It
// returns nil before a successful Encode.
func (u *Unit) DebugInfo() *tam.DebugInfo {
	if u.Object == nil {
		return nil
	}
	return tam.NewDebugInfo(u.Name, u.Object.Code, u.Object.Lines, u.Object.Entities)
}

// Result summarises a whole compilation.
type Result struct {
	Unit        *Unit
	Code        []tam.Instruction
	Diagnostics []diag.Diagnostic
	Stats       optimizer.Stats
	Folds       int
	Success     bool
}

// Compile runs every stage on src. Statistics are taken once the program
// parses; folding and encoding are skipped after a failing stage.
// Diagnostics are never returned as a Go error.
func Compile(name, src string, opts Options) *Result {
	u := NewUnit(name, src, opts)
	u.log.Println("********** Triangle Compiler (gotam) **********")

	res := &Result{Unit: u}
	if u.Parse() {
		checked := u.Check()
		// Statistics describe the checked tree whether or not it has errors.
		res.Stats = u.Stats()
		if opts.ShowStats {
			res.Stats.Print(u.log.Writer())
		}
		if checked {
			if opts.Folding {
				res.Folds = u.Fold()
			}
			if obj := u.Encode(); obj != nil {
				res.Code = obj.Code
			}
		}
	}

	res.Diagnostics = u.Reporter.Diagnostics()
	res.Success = u.Reporter.ErrorCount() == 0 && res.Code != nil
	if res.Success {
		u.log.Println("Compilation was successful.")
	} else {
		u.log.Println("Compilation was unsuccessful.")
	}
	return res
}

// DebugInfo returns the debug sidecar for a successful compilation.
func (r *Result) DebugInfo() *tam.DebugInfo {
	if !r.Success {
		return nil
	}
	return r.Unit.DebugInfo()
}

// Messages returns the diagnostic texts in the order reported.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = d.Message
	}
	return out
}

func printEntities(w io.Writer, entities []tam.EntityRecord) {
	fmt.Fprintf(w, "%-16s %-16s %5s %5s %5s %5s\n", "Name", "Kind", "Level", "Disp", "Size", "Line")
	for _, e := range entities {
		disp := fmt.Sprint(e.Displacement)
		if e.Kind == "KnownValue" {
			disp = fmt.Sprintf("=%d", e.Value)
		}
		fmt.Fprintf(w, "%-16s %-16s %5d %5s %5d %5d\n", e.Name, e.Kind, e.Level, disp, e.Size, e.Line)
	}
}
