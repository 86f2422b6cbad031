// Package env holds the per-run state every stage of the compiler shares:
// the namespace tree, the diagnostic log and the error flag.
//
// An Environment is created at the start of one compilation run and thrown
// away at its end. It is not safe for concurrent use.
package env

import (
	"fmt"

	"cmdforge/internal/diag"
	"cmdforge/internal/nstree"
	"cmdforge/internal/source"
)

type Environment struct {
	tree     *nstree.Tree
	bag      *diag.Bag
	dedup    *diag.DedupReporter
	hasError bool
	warnings int
}

// New creates an Environment whose log keeps at most maxDiagnostics entries.
// Errors past the limit are dropped from the log but still set the error flag.
func New(maxDiagnostics int) *Environment {
	e := &Environment{
		tree: nstree.New(),
		bag:  diag.NewBag(maxDiagnostics),
	}
	e.dedup = diag.NewDedupReporter(flagReporter{env: e})
	return e
}

// liveReporter forwards to the current dedup filter, so reporters handed
// out before Reset keep working afterwards.
type liveReporter struct{ env *Environment }

func (r liveReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.env.dedup.Report(code, sev, primary, msg, notes)
}

// flagReporter records severities before the bag applies its limit.
type flagReporter struct{ env *Environment }

func (r flagReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	switch sev {
	case diag.SevError:
		r.env.hasError = true
	case diag.SevWarning:
		r.env.warnings++
	}
	diag.BagReporter{Bag: r.env.bag}.Report(code, sev, primary, msg, notes)
}

// Reporter is the sink stages report through.
func (e *Environment) Reporter() diag.Reporter { return liveReporter{env: e} }

// Errorf starts an error report; call Emit on the result.
func (e *Environment) Errorf(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(e.Reporter(), code, sp, fmt.Sprintf(format, args...))
}

// Warnf starts a warning report; call Emit on the result.
func (e *Environment) Warnf(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportWarning(e.Reporter(), code, sp, fmt.Sprintf(format, args...))
}

// HasError reports whether any error was logged during this run. Warnings
// never set it.
func (e *Environment) HasError() bool { return e.hasError }

// Warnings counts reported warnings, including dropped ones.
func (e *Environment) Warnings() int { return e.warnings }

// Diagnostics returns the log in report order.
func (e *Environment) Diagnostics() *diag.Bag { return e.bag }

func (e *Environment) Tree() *nstree.Tree { return e.tree }

// Reset prepares the Environment for a fresh run.
func (e *Environment) Reset() {
	e.tree = nstree.New()
	e.bag.Reset()
	e.hasError = false
	e.warnings = 0
	e.dedup = diag.NewDedupReporter(flagReporter{env: e})
}
