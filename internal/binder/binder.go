// Package binder turns host declarations into namespace tree nodes and
// role bindings.
//
// Work happens in two strictly ordered stages. Insert lexes every command
// and bind pattern and grows the tree; Bind then classifies each bound
// element, resolves its parameters and attaches it to its nodes. No binding
// is created before every insertion is done.
package binder

import (
	"fmt"
	"slices"
	"strings"

	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/env"
	"cmdforge/internal/host"
	"cmdforge/internal/nstree"
	"cmdforge/internal/pattern"
	"cmdforge/internal/source"
	"cmdforge/internal/suggest"
)

type Binder struct {
	env       *env.Environment
	opts      Options
	roles     *Roles
	cmdLexer  *pattern.Lexer
	bindLexer *pattern.Lexer

	targets []target
	lets    map[letKey]host.Pattern
}

// target is one bind pattern waiting for the Bind stage.
type target struct {
	scope   nstree.ScopeID
	elem    element.Element
	site    source.Span
	node    nstree.NodeID // NoNode for scope-wide targets
	argName string        // scope-wide: the argument name
	pattern string
}

type letKey struct {
	elem  string
	param string
}

func New(e *env.Environment, opts Options) *Binder {
	opts = opts.Normalized()
	r := e.Reporter()
	return &Binder{
		env:       e,
		opts:      opts,
		roles:     NewRoles(opts.Runtime),
		cmdLexer:  pattern.New(pattern.Options{Policy: opts.CommandPolicy, Reporter: r}),
		bindLexer: pattern.New(pattern.Options{Policy: opts.BindPolicy, Reporter: r}),
		lets:      make(map[letKey]host.Pattern),
	}
}

// Options returns the normalized options the binder runs with.
func (b *Binder) Options() Options { return b.opts }

// Roles exposes the classification table, shared with the lint passes.
func (b *Binder) Roles() *Roles { return b.roles }

// LexerStats sums cache statistics of both lexers.
func (b *Binder) LexerStats() pattern.Stats {
	c, d := b.cmdLexer.Stats(), b.bindLexer.Stats()
	return pattern.Stats{Hits: c.Hits + d.Hits, Misses: c.Misses + d.Misses, Cached: c.Cached + d.Cached}
}

// Insert runs the insertion stage over every declaration. Command
// patterns are inserted first, in declaration order, so they define the
// shape of the tree; bind patterns follow.
func (b *Binder) Insert(decls []host.Declaration) {
	tree := b.env.Tree()
	for _, d := range decls {
		switch d.Kind {
		case host.Commands:
			scope := tree.GetScope(tree.Scope(d.Owner))
			for _, p := range d.Patterns {
				if toks := b.cmdLexer.Lex(p.Text, p.Span); toks != nil {
					tree.Insert(scope.Root, toks, b.env.Reporter())
				}
			}
		case host.Package:
			scope := tree.GetScope(tree.Scope(d.Owner))
			if len(d.Patterns) > 0 {
				scope.Package, scope.PackageSpan = d.Patterns[0].Text, d.Patterns[0].Span
			}
		}
	}
	for _, d := range decls {
		switch d.Kind {
		case host.Binds:
			b.insertBinds(d)
		case host.Let:
			b.recordLet(d)
		}
	}
}

func (b *Binder) insertBinds(d host.Declaration) {
	tree := b.env.Tree()
	sid := tree.Scope(d.Owner)
	for _, p := range d.Patterns {
		toks := b.bindLexer.Lex(p.Text, p.Span)
		if toks == nil {
			continue
		}
		t := target{scope: sid, elem: d.Element, site: p.Span, pattern: pattern.Format(toks)}
		if pattern.IsSingleArgument(toks) {
			t.argName = toks[0].Lexeme
			b.targets = append(b.targets, t)
			continue
		}
		id, ok := tree.Insert(tree.GetScope(sid).Root, toks, b.env.Reporter())
		if !ok {
			continue
		}
		t.node = id
		b.targets = append(b.targets, t)
	}
}

func (b *Binder) recordLet(d host.Declaration) {
	if len(d.Patterns) == 0 {
		return
	}
	p := d.Patterns[0]
	var names []string
	found := false
	for _, prm := range d.Element.Parameters() {
		names = append(names, prm.Name)
		found = found || prm.Name == d.Param
	}
	if !found {
		rep := b.env.Errorf(diag.BindLetUnknownParam, p.Span,
			"%s has no parameter %q", element.Describe(d.Element), d.Param)
		if hint := suggest.Hint(d.Param, names); hint != "" {
			rep.WithNote(p.Span, hint)
		}
		rep.Emit()
		return
	}
	key := letKey{elem: element.Key(d.Element), param: d.Param}
	if prev, dup := b.lets[key]; dup {
		b.env.Errorf(diag.BindLetDuplicate, p.Span,
			"parameter %q of %s already has a let target", d.Param, element.Describe(d.Element)).
			WithNote(prev.Span, "first let target here").
			Emit()
		return
	}
	b.lets[key] = p
}

// Bind runs the binding stage over the targets collected by Insert.
func (b *Binder) Bind() {
	tree := b.env.Tree()
	type verdict struct {
		role nstree.Role
		ok   bool
	}
	seen := make(map[string]verdict)
	for _, t := range b.targets {
		key := element.Key(t.elem)
		v, done := seen[key]
		if !done {
			v.role, v.ok = b.roles.Classify(t.elem)
			seen[key] = v
			if !v.ok {
				b.env.Errorf(diag.BindUnrecognized, t.elem.Location(),
					"unrecognized binding: %s (%s) matches no command role", element.Describe(t.elem), element.Signature(t.elem)).
					WithNote(t.site, "bound here").
					Emit()
			}
		}
		if !v.ok {
			continue
		}
		if t.node.IsValid() {
			b.attach(t, v.role, t.node)
			continue
		}
		nodes := tree.FindArguments(t.scope, t.argName)
		if len(nodes) == 0 {
			b.env.Warnf(diag.BindUnusedTarget, t.site,
				"no command of %s has an argument <%s>", element.Describe(tree.GetScope(t.scope).Decl), t.argName).
				Emit()
			continue
		}
		for _, id := range nodes {
			b.attach(t, v.role, id)
		}
	}
}

func (b *Binder) attach(t target, role nstree.Role, id nstree.NodeID) {
	tree := b.env.Tree()
	bnd := &nstree.Binding{Role: role, Element: t.elem, Node: id, Site: t.site}
	if t.elem.Kind() == element.KindMethod {
		bnd.Params = b.resolveParams(t.elem, id)
	}
	if prev, ok := tree.Attach(bnd); !ok && prev != nil {
		b.env.Errorf(diag.BindSlotTaken, t.site,
			"%s cannot be the %s of %q: %s is already bound there as %s",
			element.Describe(t.elem), role, tree.PathString(id), element.Describe(prev.Element), prev.Role).
			WithNote(prev.Site, "first bound here").
			Emit()
	}
}

func (b *Binder) resolveParams(e element.Element, node nstree.NodeID) []nstree.ParamBinding {
	params := e.Parameters()
	out := make([]nstree.ParamBinding, len(params))
	for i, p := range params {
		out[i] = nstree.ParamBinding{Index: i}
		if let, ok := b.lets[letKey{elem: element.Key(e), param: p.Name}]; ok {
			if id, ok := b.resolveLet(e, p, let, node); ok {
				out[i].Kind, out[i].Target = nstree.ParamSibling, id
			}
			continue
		}
		kind := b.ParamKind(p.Type)
		if kind == nstree.ParamUnresolved {
			b.env.Errorf(diag.BindUnresolvedParam, p.Span,
				"cannot resolve parameter %q (%s) of %s: it is not a contextual parameter and has no let target",
				p.Name, p.Type, element.Describe(e)).
				WithNote(p.Span, fmt.Sprintf("contextual parameters are %s, %s, *%s and *%s",
					b.opts.Source, b.optionalOf(), b.runtimeName("Context"), b.runtimeName("SuggestionsBuilder"))).
				Emit()
		}
		out[i].Kind = kind
	}
	return out
}

// ParamKind resolves a parameter by its type alone.
func (b *Binder) ParamKind(t element.TypeRef) nstree.ParamKind {
	rt := b.opts.Runtime
	switch {
	case t.Equal(b.opts.Source):
		return nstree.ParamSource
	case t.Is(rt, "Optional") && !t.Pointer && len(t.Args) == 1 && t.Args[0].Equal(b.opts.Source):
		return nstree.ParamOptional
	case t.Pointer && t.Is(rt, "Context"):
		return nstree.ParamContext
	case t.Pointer && t.Is(rt, "SuggestionsBuilder"):
		return nstree.ParamBuilder
	}
	return nstree.ParamUnresolved
}

func (b *Binder) runtimeName(name string) string {
	return pathBase(b.opts.Runtime) + "." + name
}

func (b *Binder) optionalOf() string {
	return b.runtimeName("Optional") + "[" + b.opts.Source.String() + "]"
}

func pathBase(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// resolveLet finds the argument node a let pattern names, relative to the
// node the method is bound to.
func (b *Binder) resolveLet(e element.Element, p element.Param, let host.Pattern, node nstree.NodeID) (nstree.NodeID, bool) {
	tree := b.env.Tree()
	toks := b.cmdLexer.Lex(let.Text, let.Span)
	if toks == nil {
		return nstree.NoNode, false
	}
	if pattern.IsSingleArgument(toks) {
		for _, cur := range tree.Ancestors(node) {
			if n := tree.Node(cur); n.IsArgument() && n.Identity.Name == toks[0].Lexeme {
				return cur, true
			}
		}
	} else if id, ok := tree.Lookup(tree.Node(node).Scope, toks); ok && tree.Node(id).IsArgument() && b.isAncestorOrSelf(id, node) {
		return id, true
	}

	var onPath []string
	for _, id := range tree.Path(node) {
		if n := tree.Node(id); n.IsArgument() {
			onPath = append(onPath, n.Identity.Name)
		}
	}
	rep := b.env.Errorf(diag.BindLetUnresolved, let.Span,
		"let target %q of parameter %q in %s is not an argument on the path %q",
		pattern.Format(toks), p.Name, element.Describe(e), tree.PathString(node))
	last := toks[len(toks)-1].Lexeme
	if hint := suggest.Hint(last, onPath); hint != "" {
		rep.WithNote(let.Span, hint)
	}
	rep.Emit()
	return nstree.NoNode, false
}

func (b *Binder) isAncestorOrSelf(anc, node nstree.NodeID) bool {
	return slices.Contains(b.env.Tree().Ancestors(node), anc)
}

// Reset drops lexer caches and pending state between runs.
func (b *Binder) Reset() {
	b.cmdLexer.Reset()
	b.bindLexer.Reset()
	b.targets = b.targets[:0]
	clear(b.lets)
}
