// Package nstree holds the command namespace: one tree per declaring type,
// stored in an arena and addressed by NodeID.
package nstree

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"cmdforge/internal/element"
	"cmdforge/internal/pattern"
	"cmdforge/internal/source"
)

type (
	Kind     = pattern.Kind
	Identity = pattern.Identity

	NodeID  uint32
	ScopeID uint32
)

const (
	NoNode  NodeID  = 0
	NoScope ScopeID = 0
)

func (id NodeID) IsValid() bool  { return id != NoNode }
func (id ScopeID) IsValid() bool { return id != NoScope }

// Node is one literal keyword or argument slot.
type Node struct {
	ID       NodeID
	Identity Identity
	Aliases  []string
	Parent   NodeID
	Scope    ScopeID
	Decl     source.Span // первое объявление
	Bindings [slotCount]*Binding

	byName map[string]NodeID
	order  []NodeID
}

// Binding returns the binding in slot s, or nil.
func (n *Node) Binding(s Slot) *Binding {
	if s >= slotCount {
		return nil
	}
	return n.Bindings[s]
}

// IsArgument reports whether the node is an argument slot.
func (n *Node) IsArgument() bool { return n.Identity.Kind == pattern.Argument }

// Scope groups the commands declared on one program type.
type Scope struct {
	ID          ScopeID
	Decl        element.Element
	Root        NodeID
	Package     string // переопределение имени пакета (//cmd:package)
	PackageSpan source.Span
}

// Tree is the arena of all scopes and nodes of one compilation run.
type Tree struct {
	nodes  []Node
	scopes []Scope
	byDecl map[string]ScopeID
}

func New() *Tree {
	return &Tree{
		nodes:  make([]Node, 1, 64), // index 0 reserved for NoNode
		scopes: make([]Scope, 1, 8), // index 0 reserved for NoScope
		byDecl: make(map[string]ScopeID),
	}
}

// Scope returns the scope of decl, creating it and its root node on first use.
func (t *Tree) Scope(decl element.Element) ScopeID {
	key := element.Key(decl)
	if id, ok := t.byDecl[key]; ok {
		return id
	}
	id := ScopeID(t.conv(len(t.scopes)))
	t.scopes = append(t.scopes, Scope{ID: id, Decl: decl})
	root := t.newNode(Identity{Kind: pattern.Root, Name: decl.Name()}, NoNode, id, decl.Location())
	t.scopes[id].Root = root
	t.byDecl[key] = id
	return id
}

// GetScope returns the scope pointer or nil if ID is invalid.
func (t *Tree) GetScope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return &t.scopes[id]
}

// Scopes lists scope IDs in creation order.
func (t *Tree) Scopes() []ScopeID {
	out := make([]ScopeID, 0, len(t.scopes)-1)
	for i := 1; i < len(t.scopes); i++ {
		out = append(out, ScopeID(t.conv(i)))
	}
	return out
}

// Node returns the node pointer or nil for an invalid ID. The pointer is
// only valid until the next node is created.
func (t *Tree) Node(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Len reports the number of nodes excluding scope roots.
func (t *Tree) Len() int { return len(t.nodes) - len(t.scopes) }

// Children returns child IDs in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.order
	}
	return nil
}

// Child looks up a child by name regardless of kind.
func (t *Tree) Child(id NodeID, name string) (NodeID, bool) {
	n := t.Node(id)
	if n == nil {
		return NoNode, false
	}
	c, ok := n.byName[name]
	return c, ok
}

// IsRoot reports whether id is the synthetic root of a scope.
func (t *Tree) IsRoot(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Identity.Kind == pattern.Root
}

func (t *Tree) newNode(ident Identity, parent NodeID, scope ScopeID, decl source.Span) NodeID {
	id := NodeID(t.conv(len(t.nodes)))
	t.nodes = append(t.nodes, Node{
		ID:       id,
		Identity: ident,
		Parent:   parent,
		Scope:    scope,
		Decl:     decl,
		byName:   make(map[string]NodeID),
	})
	if p := t.Node(parent); p != nil {
		p.byName[ident.Name] = id
		p.order = append(p.order, id)
	}
	return id
}

func (t *Tree) conv(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("namespace arena overflow: %w", err))
	}
	return v
}

// Path returns the nodes from the scope root (exclusive) down to id.
func (t *Tree) Path(id NodeID) []NodeID {
	rev := t.Ancestors(id)
	out := make([]NodeID, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

// Ancestors returns id and its parents up to the scope root (exclusive),
// nearest first.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for cur := id; cur.IsValid() && !t.IsRoot(cur); cur = t.Node(cur).Parent {
		out = append(out, cur)
	}
	return out
}

// PathString renders the command leading to id: "warp set <name>".
func (t *Tree) PathString(id NodeID) string {
	path := t.Path(id)
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = t.Node(n).Identity.String()
	}
	return strings.Join(parts, " ")
}

// Walk visits id and its descendants depth-first in insertion order.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Walk(c, fn)
	}
}

// WalkAll walks every scope, skipping the synthetic roots.
func (t *Tree) WalkAll(fn func(NodeID)) {
	for _, sid := range t.Scopes() {
		root := t.GetScope(sid).Root
		t.Walk(root, func(id NodeID) bool {
			if id != root {
				fn(id)
			}
			return true
		})
	}
}

// Lookup follows tokens from the scope root by name and kind.
func (t *Tree) Lookup(scope ScopeID, tokens []pattern.Token) (NodeID, bool) {
	s := t.GetScope(scope)
	if s == nil {
		return NoNode, false
	}
	cur := s.Root
	for _, tok := range tokens {
		next, ok := t.Child(cur, tok.Lexeme)
		if !ok || t.Node(next).Identity.Kind != tok.Kind {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// FindArguments returns every argument node named name in scope, in walk order.
func (t *Tree) FindArguments(scope ScopeID, name string) []NodeID {
	s := t.GetScope(scope)
	if s == nil {
		return nil
	}
	var out []NodeID
	t.Walk(s.Root, func(id NodeID) bool {
		if n := t.Node(id); n.IsArgument() && n.Identity.Name == name {
			out = append(out, id)
		}
		return true
	})
	return out
}

// Attach stores b in its slot. When the slot is taken the existing binding
// is returned and b is dropped.
func (t *Tree) Attach(b *Binding) (*Binding, bool) {
	n := t.Node(b.Node)
	slot := b.Role.Slot()
	if n == nil || slot >= slotCount {
		return nil, false
	}
	if prev := n.Bindings[slot]; prev != nil {
		return prev, false
	}
	n.Bindings[slot] = b
	return nil, true
}
