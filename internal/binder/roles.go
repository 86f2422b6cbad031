package binder

import (
	"cmdforge/internal/element"
	"cmdforge/internal/nstree"
)

// rule pairs a role with the shape test an element must pass. Rules are
// tried top to bottom and the first match wins, so a more specific role
// must be listed before any role it also satisfies.
type rule struct {
	role  nstree.Role
	match func(element.Element) bool
}

// runtimeSupers lists supertypes of runtime interfaces the host cannot see.
var runtimeSupers = map[string][]string{
	"Execution": {"Command"},
}

// Roles classifies elements against one runtime package.
type Roles struct {
	runtime string
	rules   []rule
}

func NewRoles(runtime string) *Roles {
	r := &Roles{runtime: runtime}
	r.rules = []rule{
		{nstree.RoleArgumentType, func(e element.Element) bool {
			return r.fieldIs(e, "ArgumentType") || r.resultIs(e, "ArgumentType")
		}},
		{nstree.RoleExecution, func(e element.Element) bool {
			return r.fieldIs(e, "Execution") || isMethod(e) && IsNumeric(e.DeclaredType())
		}},
		{nstree.RoleCommand, func(e element.Element) bool {
			return r.fieldIs(e, "Command") || isMethod(e) && e.DeclaredType().IsVoid()
		}},
		{nstree.RoleRequirement, func(e element.Element) bool {
			return r.fieldIs(e, "Requirement") || isMethod(e) && e.DeclaredType().Is("", "bool")
		}},
		{nstree.RoleSuggestions, func(e element.Element) bool {
			return r.fieldIs(e, "SuggestionProvider") || r.resultIs(e, "Suggestions")
		}},
	}
	return r
}

// Classify returns the first role whose shape e satisfies.
func (r *Roles) Classify(e element.Element) (nstree.Role, bool) {
	for _, rl := range r.rules {
		if rl.match(e) {
			return rl.role, true
		}
	}
	return nstree.RoleNone, false
}

// Runtime returns the runtime import path the table was built for.
func (r *Roles) Runtime() string { return r.runtime }

func isMethod(e element.Element) bool { return e.Kind() == element.KindMethod }

func (r *Roles) fieldIs(e element.Element, name string) bool {
	return e.Kind() == element.KindField && r.Assignable(e.DeclaredType(), name)
}

func (r *Roles) resultIs(e element.Element, name string) bool {
	return isMethod(e) && e.DeclaredType().Is(r.runtime, name)
}

// Assignable reports whether t is the runtime type name or has it among
// its supertypes.
func (r *Roles) Assignable(t element.TypeRef, name string) bool {
	return r.assignable(t, name, 0)
}

func (r *Roles) assignable(t element.TypeRef, name string, depth int) bool {
	if depth > 16 {
		return false
	}
	if t.Is(r.runtime, name) {
		return true
	}
	if t.Path == r.runtime {
		for _, s := range runtimeSupers[t.Name] {
			if s == name {
				return true
			}
		}
	}
	for _, s := range t.Supers {
		if r.assignable(s, name, depth+1) {
			return true
		}
	}
	return false
}

var numeric = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

// IsNumeric reports whether t is a predeclared numeric type.
func IsNumeric(t element.TypeRef) bool {
	return t.Path == "" && !t.Pointer && !t.Tuple && numeric[t.Name]
}

// ConverterType returns T for an element bound as ArgumentType[T]: the
// field type or method result, or the first supertype that matches.
func (r *Roles) ConverterType(e element.Element) (element.TypeRef, bool) {
	return r.converterOf(e.DeclaredType(), 0)
}

func (r *Roles) converterOf(t element.TypeRef, depth int) (element.TypeRef, bool) {
	if depth > 16 {
		return element.TypeRef{}, false
	}
	if t.Is(r.runtime, "ArgumentType") {
		if len(t.Args) != 1 {
			return element.TypeRef{}, false
		}
		return t.Args[0], true
	}
	for _, s := range t.Supers {
		if arg, ok := r.converterOf(s, depth+1); ok {
			return arg, true
		}
	}
	return element.TypeRef{}, false
}
