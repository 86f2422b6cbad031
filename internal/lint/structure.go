package lint

import (
	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/nstree"
)

// ArgumentPosition rejects commands that start with an argument.
var ArgumentPosition = &Pass{
	Name: "argument-position",
	Doc:  "A command must begin with a literal keyword, never with <argument>.",
	Node: func(ctx *Context, id nstree.NodeID) {
		n := ctx.Tree.Node(id)
		if !n.IsArgument() || !ctx.Tree.IsRoot(n.Parent) {
			return
		}
		ctx.Env.Errorf(diag.LintArgumentFirst, n.Decl,
			"command cannot start with argument %s", n.Identity).
			Emit()
	},
}

// DuplicateAlias rejects aliases shared by siblings or equal to a
// sibling's name. Neither alias is removed; the error is the only effect.
var DuplicateAlias = &Pass{
	Name: "duplicate-alias",
	Doc:  "Sibling literals must not share aliases, and an alias must not equal a sibling's name.",
	Node: func(ctx *Context, id nstree.NodeID) {
		children := ctx.Tree.Children(id)
		if len(children) < 2 {
			return
		}
		names := make(map[string]nstree.NodeID, len(children))
		for _, c := range children {
			names[ctx.Tree.Node(c).Identity.Name] = c
		}
		owners := make(map[string]nstree.NodeID)
		for _, c := range children {
			n := ctx.Tree.Node(c)
			for _, alias := range n.Aliases {
				if other, ok := names[alias]; ok && other != c {
					o := ctx.Tree.Node(other)
					ctx.Env.Errorf(diag.LintDuplicateAlias, n.Decl,
						"alias %q of %q is the name of sibling command %q", alias, ctx.Tree.PathString(c), ctx.Tree.PathString(other)).
						WithNote(o.Decl, "sibling declared here").
						Emit()
					continue
				}
				if first, ok := owners[alias]; ok {
					f := ctx.Tree.Node(first)
					ctx.Env.Errorf(diag.LintDuplicateAlias, n.Decl,
						"alias %q is declared by both %q and %q", alias, ctx.Tree.PathString(first), ctx.Tree.PathString(c)).
						WithNote(f.Decl, "first declared here").
						Emit()
					continue
				}
				owners[alias] = c
			}
		}
	},
}

// DuplicateCommand finds top-level commands declared by several scopes.
// Same-scope collisions merge in the tree, and kind conflicts at one
// position are reported by the merge itself; only names the merge cannot
// see, because they live in different scopes, are checked here.
var DuplicateCommand = &Pass{
	Name: "duplicate-command",
	Doc:  "A top-level command name or alias must be declared by only one type.",
	Global: func(ctx *Context) {
		type claim struct {
			scope nstree.ScopeID
			node  nstree.NodeID
		}
		seen := make(map[string]claim)
		for _, sid := range ctx.Tree.Scopes() {
			scope := ctx.Tree.GetScope(sid)
			for _, c := range ctx.Tree.Children(scope.Root) {
				n := ctx.Tree.Node(c)
				if n.IsArgument() {
					continue
				}
				for _, name := range append([]string{n.Identity.Name}, n.Aliases...) {
					prev, ok := seen[name]
					if !ok {
						seen[name] = claim{scope: sid, node: c}
						continue
					}
					if prev.scope == sid {
						continue
					}
					ctx.Env.Errorf(diag.LintDuplicateCmd, n.Decl,
						"command %q of %s is already declared by %s",
						name, element.Describe(scope.Decl), element.Describe(ctx.Tree.GetScope(prev.scope).Decl)).
						WithNote(ctx.Tree.Node(prev.node).Decl, "first declared here").
						Emit()
				}
			}
		}
	},
}
