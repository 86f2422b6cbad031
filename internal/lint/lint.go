// Package lint holds the validation passes that run over the complete,
// bound namespace tree. Every pass logs through the Environment and keeps
// going; only the Environment's error flag decides whether code is
// generated afterwards.
package lint

import (
	"fmt"

	"cmdforge/internal/binder"
	"cmdforge/internal/element"
	"cmdforge/internal/env"
	"cmdforge/internal/nstree"
	"cmdforge/internal/suggest"
)

// Pass is one independent check. Node runs once per tree node, scope roots
// included; Global runs once per run. Either may be nil.
type Pass struct {
	Name   string
	Doc    string
	Node   func(ctx *Context, id nstree.NodeID)
	Global func(ctx *Context)
}

// Context is what a pass sees.
type Context struct {
	Env    *env.Environment
	Tree   *nstree.Tree
	Roles  *binder.Roles
	Source element.TypeRef
}

// NewContext builds a lint context for the binder options of the run.
func NewContext(e *env.Environment, opts binder.Options) *Context {
	return &Context{
		Env:    e,
		Tree:   e.Tree(),
		Roles:  binder.NewRoles(opts.Runtime),
		Source: opts.SourceType(),
	}
}

// Run executes passes in order. Each pass sees every node before the next
// pass starts.
func Run(ctx *Context, passes []*Pass) {
	for _, p := range passes {
		if p.Global != nil {
			p.Global(ctx)
		}
		if p.Node == nil {
			continue
		}
		for _, sid := range ctx.Tree.Scopes() {
			ctx.Tree.Walk(ctx.Tree.GetScope(sid).Root, func(id nstree.NodeID) bool {
				p.Node(ctx, id)
				return true
			})
		}
	}
}

// Default returns every pass in its standard order.
func Default() []*Pass {
	return []*Pass{
		ArgumentPosition,
		DuplicateAlias,
		DuplicateCommand,
		BindingPattern,
		MethodSignature,
		Accessibility,
	}
}

// Names lists the names of Default passes.
func Names() []string {
	all := Default()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.Name
	}
	return out
}

// UnknownPassError is returned by Lookup for a name no pass has.
type UnknownPassError struct {
	Name string
	Hint string
}

func (e *UnknownPassError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("unknown lint pass %q (did you mean %q?)", e.Name, e.Hint)
	}
	return fmt.Sprintf("unknown lint pass %q", e.Name)
}

// Lookup resolves pass names, keeping their order. A nil or empty list
// selects Default.
func Lookup(names []string) ([]*Pass, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	byName := make(map[string]*Pass)
	for _, p := range Default() {
		byName[p.Name] = p
	}
	out := make([]*Pass, 0, len(names))
	for _, n := range names {
		p, ok := byName[n]
		if !ok {
			return nil, &UnknownPassError{Name: n, Hint: suggest.Closest(n, Names())}
		}
		out = append(out, p)
	}
	return out, nil
}

// bindings iterates the node's bindings in slot order.
func bindings(n *nstree.Node) []*nstree.Binding {
	var out []*nstree.Binding
	for _, s := range nstree.Slots() {
		if b := n.Binding(s); b != nil {
			out = append(out, b)
		}
	}
	return out
}
