package nstree

import (
	"cmdforge/internal/element"
	"cmdforge/internal/source"
)

// Role is the semantic category a bound element plays on a node.
type Role uint8

const (
	RoleNone Role = iota
	RoleArgumentType
	RoleCommand
	RoleExecution
	RoleRequirement
	RoleSuggestions
)

func (r Role) String() string {
	switch r {
	case RoleArgumentType:
		return "argument type"
	case RoleCommand:
		return "command"
	case RoleExecution:
		return "execution"
	case RoleRequirement:
		return "requirement"
	case RoleSuggestions:
		return "suggestions"
	}
	return "none"
}

// Slot returns the node slot the role occupies. Command and execution
// bodies compete for the same slot.
func (r Role) Slot() Slot {
	switch r {
	case RoleArgumentType:
		return SlotArgumentType
	case RoleCommand, RoleExecution:
		return SlotBody
	case RoleRequirement:
		return SlotRequirement
	case RoleSuggestions:
		return SlotSuggestions
	}
	return slotCount
}

// Slot is a per-node binding position; each holds at most one binding.
type Slot uint8

const (
	SlotArgumentType Slot = iota
	SlotBody
	SlotRequirement
	SlotSuggestions
	slotCount
)

// Slots lists slots in emission order.
func Slots() []Slot {
	return []Slot{SlotArgumentType, SlotRequirement, SlotSuggestions, SlotBody}
}

// ParamKind says how a handler parameter gets its value.
type ParamKind uint8

const (
	ParamUnresolved ParamKind = iota
	// ParamSource is the invoking actor.
	ParamSource
	// ParamOptional wraps the actor in an optional.
	ParamOptional
	// ParamContext is the full call context.
	ParamContext
	// ParamBuilder is the suggestions builder.
	ParamBuilder
	// ParamSibling is the parsed value of another argument node.
	ParamSibling
)

func (k ParamKind) String() string {
	switch k {
	case ParamSource:
		return "source"
	case ParamOptional:
		return "optional source"
	case ParamContext:
		return "call context"
	case ParamBuilder:
		return "suggestions builder"
	case ParamSibling:
		return "argument reference"
	}
	return "unresolved"
}

// IsContextual reports whether the value comes from the invocation itself
// rather than from the parsed arguments.
func (k ParamKind) IsContextual() bool {
	return k == ParamSource || k == ParamOptional || k == ParamContext
}

// ParamBinding resolves one method parameter.
type ParamBinding struct {
	Index  int
	Kind   ParamKind
	Target NodeID // for ParamSibling
}

// Binding attaches one element to one role on one node. Only the binder
// creates bindings.
type Binding struct {
	Role    Role
	Element element.Element
	Node    NodeID
	Params  []ParamBinding
	Site    source.Span // the bind pattern that produced the binding
}
