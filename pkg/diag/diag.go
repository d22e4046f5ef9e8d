// Package diag accumulates the diagnostics of one compilation.
package diag

import (
	"fmt"
	"io"

	"gotam/pkg/ast"
)

type Severity int

const (
	// Error is a violation of the language rules.
	Error Severity = iota
	// Restriction is a valid program the implementation cannot handle,
	// e.g. a routine nested too deeply. It fails the compilation like an Error.
	Restriction
	// Warning is reported but does not fail the compilation.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Restriction:
		return "RESTRICTION"
	case Warning:
		return "WARNING"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is one message about the source program.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      ast.Pos
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s", d.Severity, d.Message, d.Pos)
}

// Reporter collects diagnostics in arrival order. Reporting never stops the
// caller: passes report and carry on with a substitute value.
//
// A Reporter belongs to one compilation run and is not reused.
type Reporter struct {
	diags  []Diagnostic
	errors int

	// Echo, if set, receives each diagnostic as it is reported.
	Echo io.Writer
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records a diagnostic.
func (r *Reporter) Report(sev Severity, pos ast.Pos, format string, args ...any) {
	d := Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...), Pos: pos}
	r.diags = append(r.diags, d)
	if sev != Warning {
		r.errors++
	}
	if r.Echo != nil {
		fmt.Fprintln(r.Echo, d)
	}
}

func (r *Reporter) Errorf(pos ast.Pos, format string, args ...any) {
	r.Report(Error, pos, format, args...)
}

func (r *Reporter) Restrictionf(pos ast.Pos, format string, args ...any) {
	r.Report(Restriction, pos, format, args...)
}

func (r *Reporter) Warnf(pos ast.Pos, format string, args ...any) {
	r.Report(Warning, pos, format, args...)
}

// ErrorCount returns the number of errors and restrictions reported so far.
func (r *Reporter) ErrorCount() int { return r.errors }

// Diagnostics returns every diagnostic in the order reported.
func (r *Reporter) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Messages returns just the message texts, in order.
func (r *Reporter) Messages() []string {
	out := make([]string, len(r.diags))
	for i, d := range r.diags {
		out[i] = d.Message
	}
	return out
}
