// Package host describes what an introspection front end hands to the
// compiler: annotated program elements paired with their pattern payloads.
package host

import (
	"cmdforge/internal/element"
	"cmdforge/internal/source"
)

// PayloadKind is the kind of annotation attached to an element.
type PayloadKind uint8

const (
	// Commands declares command patterns on a type; the type becomes a scope.
	Commands PayloadKind = iota + 1
	// Binds attaches a field or method to the nodes its patterns name.
	Binds
	// Let points one method parameter at an argument node.
	Let
	// Package overrides the package of the generated unit.
	Package
)

func (k PayloadKind) String() string {
	switch k {
	case Commands:
		return "command"
	case Binds:
		return "bind"
	case Let:
		return "let"
	case Package:
		return "package"
	}
	return "unknown"
}

// Pattern is one pattern string and the place it was written.
type Pattern struct {
	Text string
	Span source.Span
}

// Declaration is one (element, payload) pair.
type Declaration struct {
	// Owner is the declaring type: the element itself for Commands and
	// Package, the receiver or struct type otherwise.
	Owner   element.Element
	Element element.Element
	Kind    PayloadKind
	// Patterns holds command or bind patterns, the single let target, or
	// the package name for Package.
	Patterns []Pattern
	// Param names the method parameter of a Let payload.
	Param string
}

// Set is the full input of one compilation run, in a stable order.
type Set struct {
	Files        *source.FileSet
	Declarations []Declaration
}
