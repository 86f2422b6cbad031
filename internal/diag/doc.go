// Package diag defines the diagnostic model shared by all pipeline stages of
// the command compiler.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go). Only errors block
//     code generation.
//   - Code – compact numeric identifier grouped per stage (codes.go):
//     LEX (pattern lexer), TRE (namespace tree), BND (binder), ANA (analyzer
//     and lint passes), HST (host introspection), CFG (configuration), IO.
//   - Message – short, actionable text naming the offending command, element
//     or parameter.
//   - Primary span – the source.Span of the declaration or element.
//   - Notes – secondary spans ("first bound here").
//
// # Emitting diagnostics
//
// Stages never return diagnostics as Go errors. They report through a
// Reporter; BagReporter collects into a bounded Bag, DedupReporter removes
// exact repeats, MultiReporter fans out. ReportBuilder chains notes before
// Emit.
//
// # Internal faults
//
// A state that earlier stages should have made impossible (for example an
// unresolved handler parameter reaching the code generator) is not a user
// diagnostic. Such code calls Faultf, which panics with *Fault; the driver
// defers Recover and surfaces the fault as an error wrapping ErrInternal.
package diag
