// Package element is the compiler's view of the host program model: the
// annotated types, fields, methods and parameters handed over by a host
// (Go sources, a manifest, or tests).
package element

import (
	"fmt"
	"strings"

	"cmdforge/internal/source"
)

// Kind classifies program elements.
type Kind uint8

const (
	KindType Kind = iota + 1
	KindField
	KindMethod
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindParam:
		return "parameter"
	}
	return "element"
}

// Modifiers is a bit set of access properties.
type Modifiers uint8

const (
	// Exported elements are visible to generated code in any package.
	Exported Modifiers = 1 << iota
	// Abstract elements have no body (interface methods).
	Abstract
	// Final elements cannot be overridden by embedding or subclassing.
	Final
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag == flag }

func (m Modifiers) String() string {
	var parts []string
	if m.Has(Exported) {
		parts = append(parts, "exported")
	}
	if m.Has(Abstract) {
		parts = append(parts, "abstract")
	}
	if m.Has(Final) {
		parts = append(parts, "final")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Param is one declared method parameter.
type Param struct {
	Name string
	Type TypeRef
	Span source.Span
}

// Element is the capability the compiler needs from a host element.
type Element interface {
	Name() string
	Kind() Kind
	// Package is the import path of the declaring package.
	Package() string
	// Owner is the declaring type name of fields and methods.
	Owner() string
	// DeclaredType is the field type, or the result type of a method.
	DeclaredType() TypeRef
	Parameters() []Param
	Modifiers() Modifiers
	Location() source.Span
}

// Decl is the plain-data Element used by every host.
type Decl struct {
	Ident  string
	What   Kind
	Pkg    string
	Recv   string
	Type   TypeRef
	Params []Param
	Mods   Modifiers
	Span   source.Span
}

func (d *Decl) Name() string          { return d.Ident }
func (d *Decl) Kind() Kind            { return d.What }
func (d *Decl) Package() string       { return d.Pkg }
func (d *Decl) Owner() string         { return d.Recv }
func (d *Decl) DeclaredType() TypeRef { return d.Type }
func (d *Decl) Parameters() []Param   { return d.Params }
func (d *Decl) Modifiers() Modifiers  { return d.Mods }
func (d *Decl) Location() source.Span { return d.Span }

// Key identifies an element across hosts: package path, owner and name.
func Key(e Element) string {
	if e.Owner() != "" {
		return e.Package() + "." + e.Owner() + "." + e.Name()
	}
	return e.Package() + "." + e.Name()
}

// Describe renders an element for messages: "method Warps.Set".
func Describe(e Element) string {
	if e == nil {
		return "<nil>"
	}
	if e.Owner() != "" {
		return fmt.Sprintf("%s %s.%s", e.Kind(), e.Owner(), e.Name())
	}
	return fmt.Sprintf("%s %s", e.Kind(), e.Name())
}

// Signature renders the shape of an element: the field type, or
// func(params) result for methods.
func Signature(e Element) string {
	if e.Kind() != KindMethod {
		return e.DeclaredType().String()
	}
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range e.Parameters() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
	}
	b.WriteString(")")
	if res := e.DeclaredType(); !res.IsVoid() {
		b.WriteString(" ")
		b.WriteString(res.String())
	}
	return b.String()
}
