// Package codegen turns a validated namespace tree into Go source that
// builds the same tree with the dispatch runtime.
package codegen

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"cmdforge/internal/binder"
	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/env"
	"cmdforge/internal/nstree"
	"cmdforge/internal/source"
)

// ErrHasErrors is returned when generation is asked for after a stage
// reported an error.
var ErrHasErrors = errors.New("code generation skipped: declarations have errors")

type Options struct {
	Runtime string
	Source  element.TypeRef
}

// Import is one import of a unit.
type Import struct {
	Name string
	Path string
}

// Unit is the generated code of one scope.
type Unit struct {
	Scope   nstree.ScopeID
	Type    string // declaring type
	PkgPath string // import path of the declaring type
	// Package is the package override; "" places the unit next to the type.
	Package     string
	PackageSpan source.Span
	Func        string
	Imports     []Import // sorted by path
	Body        string
	Origin      source.Span
}

// FuncName is the name of the builder function generated for typ.
func FuncName(typ string) string { return "Build" + typ + "Commands" }

// Generate emits one unit per scope that declares commands, in scope
// order. Output depends only on the tree, so equal trees give equal text.
// An unresolvable parameter is a compiler defect and panics with a
// *diag.Fault.
func Generate(e *env.Environment, opts Options) ([]Unit, error) {
	if e.HasError() {
		return nil, ErrHasErrors
	}
	bopts := binder.Options{Runtime: opts.Runtime, Source: opts.Source}.Normalized()
	roles := binder.NewRoles(bopts.Runtime)
	tree := e.Tree()
	var units []Unit
	for _, sid := range tree.Scopes() {
		scope := tree.GetScope(sid)
		if len(tree.Children(scope.Root)) == 0 {
			continue
		}
		g := &unitGen{
			tree:    tree,
			roles:   roles,
			runtime: roles.Runtime(),
			source:  bopts.Source,
			scope:   scope,
			imports: make(map[string]string),
			taken:   make(map[string]string),
		}
		units = append(units, g.unit())
	}
	return units, nil
}

type unitGen struct {
	tree    *nstree.Tree
	roles   *binder.Roles
	runtime string
	source  element.TypeRef
	scope   *nstree.Scope

	buf     strings.Builder
	imports map[string]string // path -> local name
	taken   map[string]string // local name -> path
	next    int
}

func (g *unitGen) unit() Unit {
	decl := g.scope.Decl
	// рантайм импортируется первым, чтобы его имя не зависело от порядка узлов
	rt := g.qual(g.runtime)
	recv := g.typeName(element.TypeRef{Path: decl.Package(), Name: decl.Name()})
	fn := FuncName(decl.Name())

	fmt.Fprintf(&g.buf, "// %s builds the commands declared on %s.\n", fn, decl.Name())
	fmt.Fprintf(&g.buf, "func %s(src *%s) []*%s.Node {\n", fn, recv, rt)
	var roots []string
	for _, c := range g.tree.Children(g.scope.Root) {
		roots = append(roots, g.node(c))
	}
	fmt.Fprintf(&g.buf, "\treturn []*%s.Node{%s}\n}\n", rt, strings.Join(roots, ", "))

	u := Unit{
		Scope:       g.scope.ID,
		Type:        decl.Name(),
		PkgPath:     decl.Package(),
		Package:     g.scope.Package,
		PackageSpan: g.scope.PackageSpan,
		Func:        fn,
		Body:        g.buf.String(),
		Origin:      decl.Location(),
	}
	for p, name := range g.imports {
		u.Imports = append(u.Imports, Import{Name: name, Path: p})
	}
	sort.Slice(u.Imports, func(i, j int) bool { return u.Imports[i].Path < u.Imports[j].Path })
	return u
}

// node emits id and its subtree and returns the local holding it.
func (g *unitGen) node(id nstree.NodeID) string {
	n := g.tree.Node(id)
	g.next++
	local := fmt.Sprintf("n%d", g.next)
	rt := g.qual(g.runtime)

	if n.IsArgument() {
		conv := n.Binding(nstree.SlotArgumentType)
		if conv == nil {
			diag.Faultf("codegen", "argument %q has no argument type", g.tree.PathString(id))
		}
		fmt.Fprintf(&g.buf, "\t%s := %s.Argument(%q, %s)\n", local, rt, n.Identity.Name, g.converter(conv))
	} else {
		fmt.Fprintf(&g.buf, "\t%s := %s.Literal(%q)", local, rt, n.Identity.Name)
		if len(n.Aliases) > 0 {
			quoted := make([]string, len(n.Aliases))
			for i, a := range n.Aliases {
				quoted[i] = fmt.Sprintf("%q", a)
			}
			fmt.Fprintf(&g.buf, ".Alias(%s)", strings.Join(quoted, ", "))
		}
		g.buf.WriteByte('\n')
	}

	for _, slot := range nstree.Slots() {
		if b := n.Binding(slot); b != nil && slot != nstree.SlotArgumentType {
			g.handler(local, b)
		}
	}
	for _, c := range g.tree.Children(id) {
		child := g.node(c)
		fmt.Fprintf(&g.buf, "\t%s.Then(%s)\n", local, child)
	}
	return local
}

func (g *unitGen) converter(b *nstree.Binding) string {
	if b.Element.Kind() == element.KindMethod {
		return fmt.Sprintf("src.%s()", b.Element.Name())
	}
	return "src." + b.Element.Name()
}

// handler emits the closure forwarding one role binding to its element.
func (g *unitGen) handler(local string, b *nstree.Binding) {
	rt := g.qual(g.runtime)
	name := b.Element.Name()
	if b.Element.Kind() == element.KindField {
		switch b.Role {
		case nstree.RoleExecution:
			fmt.Fprintf(&g.buf, "\t%s.Executes(src.%s.Execute)\n", local, name)
		case nstree.RoleCommand:
			fmt.Fprintf(&g.buf, "\t%s.Executes(func(ctx *%s.Context) int {\n\t\tsrc.%s.Run(ctx)\n\t\treturn %s.SingleSuccess\n\t})\n",
				local, rt, name, rt)
		case nstree.RoleRequirement:
			fmt.Fprintf(&g.buf, "\t%s.Requires(src.%s.Test)\n", local, name)
		case nstree.RoleSuggestions:
			fmt.Fprintf(&g.buf, "\t%s.Suggests(src.%s.Suggest)\n", local, name)
		default:
			diag.Faultf("codegen", "field %s bound with role %s", name, b.Role)
		}
		return
	}

	switch b.Role {
	case nstree.RoleExecution:
		call := g.call(b, callExec)
		fmt.Fprintf(&g.buf, "\t%s.Executes(func(ctx *%s.Context) int {\n\t\treturn %s\n\t})\n", local, rt, call)
	case nstree.RoleCommand:
		call := g.call(b, callExec)
		fmt.Fprintf(&g.buf, "\t%s.Executes(func(ctx *%s.Context) int {\n\t\t%s\n\t\treturn %s.SingleSuccess\n\t})\n",
			local, rt, call, rt)
	case nstree.RoleRequirement:
		call := g.call(b, callRequire)
		fmt.Fprintf(&g.buf, "\t%s.Requires(func(source %s.Source) bool {\n\t\treturn %s\n\t})\n", local, rt, call)
	case nstree.RoleSuggestions:
		call := g.call(b, callSuggest)
		fmt.Fprintf(&g.buf, "\t%s.Suggests(func(ctx *%s.Context, builder *%s.SuggestionsBuilder) *%s.Suggestions {\n\t\treturn %s\n\t})\n",
			local, rt, rt, rt, call)
	default:
		diag.Faultf("codegen", "method %s bound with role %s", name, b.Role)
	}
}

// closure kinds differ in which fixed locals are in scope.
type closure uint8

const (
	callExec    closure = iota // ctx
	callSuggest                // ctx, builder
	callRequire                // source
)

func (g *unitGen) call(b *nstree.Binding, in closure) string {
	params := b.Element.Parameters()
	if len(b.Params) != len(params) {
		diag.Faultf("codegen", "%s: %d parameters, %d resolved", element.Describe(b.Element), len(params), len(b.Params))
	}
	args := make([]string, len(b.Params))
	for i, pb := range b.Params {
		args[i] = g.arg(b, params[pb.Index], pb, in)
	}
	return fmt.Sprintf("src.%s(%s)", b.Element.Name(), strings.Join(args, ", "))
}

func (g *unitGen) arg(b *nstree.Binding, p element.Param, pb nstree.ParamBinding, in closure) string {
	rt := g.qual(g.runtime)
	src := "ctx.Source()"
	if in == callRequire {
		src = "source"
	}
	fail := func(why string) string {
		diag.Faultf("codegen", "parameter %q of %s: %s", p.Name, element.Describe(b.Element), why)
		return ""
	}
	switch pb.Kind {
	case nstree.ParamSource:
		if g.source.Is(g.runtime, "Source") && !g.source.Pointer {
			return src
		}
		return fmt.Sprintf("%s.As[%s](%s)", rt, g.typeName(g.source), src)
	case nstree.ParamOptional:
		return fmt.Sprintf("%s.OptionalAs[%s](%s)", rt, g.typeName(g.source), src)
	case nstree.ParamContext:
		if in == callRequire {
			return fail("no call context in a requirement")
		}
		return "ctx"
	case nstree.ParamBuilder:
		if in != callSuggest {
			return fail("no suggestions builder outside suggestion providers")
		}
		return "builder"
	case nstree.ParamSibling:
		if in == callRequire {
			return fail("no argument values in a requirement")
		}
		target := g.tree.Node(pb.Target)
		if target == nil {
			return fail("let target does not exist")
		}
		conv := target.Binding(nstree.SlotArgumentType)
		if conv == nil {
			return fail(fmt.Sprintf("%s has no argument type", target.Identity))
		}
		t, ok := g.roles.ConverterType(conv.Element)
		if !ok {
			return fail(fmt.Sprintf("cannot tell what %s parses to", target.Identity))
		}
		return fmt.Sprintf("%s.Arg[%s](ctx, %q)", rt, g.typeName(t), target.Identity.Name)
	}
	return fail("unresolved")
}

func (g *unitGen) typeName(t element.TypeRef) string {
	return t.Qualified(g.qual)
}

// qual returns the identifier a package is referred to by, importing it
// on first use. The declaring package needs no qualifier unless the unit
// is placed in a package of its own.
func (g *unitGen) qual(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}
	if pkgPath == g.scope.Decl.Package() && g.scope.Package == "" {
		return ""
	}
	if name, ok := g.imports[pkgPath]; ok {
		return name
	}
	base := ImportName(pkgPath)
	name := base
	for i := 2; ; i++ {
		if _, clash := g.taken[name]; !clash && !reserved[name] {
			break
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
	g.imports[pkgPath] = name
	g.taken[name] = pkgPath
	return name
}

// reserved are the identifiers generated code declares itself.
var reserved = map[string]bool{"src": true, "ctx": true, "builder": true, "source": true}

// ImportName derives a package identifier from an import path: the last
// element, skipping a major version suffix, reduced to identifier runes.
func ImportName(pkgPath string) string {
	base := path.Base(pkgPath)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(pkgPath))
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "pkg"
	}
	return strings.ToLower(b.String())
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
