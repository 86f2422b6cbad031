package lint

import (
	"fmt"
	"strings"

	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/nstree"
)

// BindingPattern checks that each bound element has exactly the shape its
// role calls for, and that let parameters match the type their target
// argument parses to.
var BindingPattern = &Pass{
	Name: "binding-pattern",
	Doc:  "Bound elements must match their role's contract exactly; let parameters must have the target argument's type.",
	Node: func(ctx *Context, id nstree.NodeID) {
		n := ctx.Tree.Node(id)
		for _, b := range bindings(n) {
			if b.Role == nstree.RoleArgumentType && !n.IsArgument() {
				ctx.Env.Errorf(diag.LintBindingPattern, b.Site,
					"%s is an argument type but %q is a literal", element.Describe(b.Element), ctx.Tree.PathString(id)).
					Emit()
			}
			if want, ok := expectedShape(ctx, b); !ok {
				ctx.Env.Errorf(diag.LintBindingPattern, b.Element.Location(),
					"%s is bound as %s: expected %s, found %s",
					element.Describe(b.Element), b.Role, want, element.Signature(b.Element)).
					WithNote(b.Site, "bound here").
					Emit()
			}
			checkLetTypes(ctx, b)
		}
	},
}

// expectedShape returns the wanted shape and whether b has it.
func expectedShape(ctx *Context, b *nstree.Binding) (string, bool) {
	rt := ctx.Roles.Runtime()
	short := runtimeQualifier(rt)
	t := b.Element.DeclaredType()
	if b.Element.Kind() == element.KindField {
		iface := map[nstree.Role]string{
			nstree.RoleArgumentType: "ArgumentType[T]",
			nstree.RoleCommand:      "Command",
			nstree.RoleExecution:    "Execution",
			nstree.RoleRequirement:  "Requirement",
			nstree.RoleSuggestions:  "SuggestionProvider",
		}[b.Role]
		want := short + "." + iface
		if t.Pointer {
			return want, false
		}
		if b.Role == nstree.RoleArgumentType {
			_, ok := ctx.Roles.ConverterType(b.Element)
			return want, ok
		}
		return want, true
	}
	switch b.Role {
	case nstree.RoleExecution:
		return "a method returning int", t.Is("", "int") && !t.Pointer
	case nstree.RoleCommand:
		return "a method without results", t.IsVoid()
	case nstree.RoleRequirement:
		return "a method returning bool", t.Is("", "bool") && !t.Pointer
	case nstree.RoleSuggestions:
		return "a method returning *" + short + ".Suggestions", t.Is(rt, "Suggestions") && t.Pointer
	case nstree.RoleArgumentType:
		_, ok := ctx.Roles.ConverterType(b.Element)
		return "a method returning " + short + ".ArgumentType[T]", ok && !t.Pointer
	}
	return "a known role", false
}

func checkLetTypes(ctx *Context, b *nstree.Binding) {
	params := b.Element.Parameters()
	for _, pb := range b.Params {
		if pb.Kind != nstree.ParamSibling || pb.Index >= len(params) {
			continue
		}
		conv := ctx.Tree.Node(pb.Target).Binding(nstree.SlotArgumentType)
		if conv == nil {
			continue // reported by the analyzer
		}
		want, ok := ctx.Roles.ConverterType(conv.Element)
		if !ok {
			continue
		}
		p := params[pb.Index]
		if !p.Type.Equal(want) {
			ctx.Env.Errorf(diag.LintLetTypeMismatch, p.Span,
				"parameter %q of %s has type %s but %s parses to %s",
				p.Name, element.Describe(b.Element), p.Type, ctx.Tree.Node(pb.Target).Identity, want).
				WithNote(conv.Site, "argument type bound here").
				Emit()
		}
	}
}

// MethodSignature checks handler parameters against the calling
// convention of the role.
var MethodSignature = &Pass{
	Name: "method-signature",
	Doc:  "Handler parameters must fit the role's calling convention: each contextual parameter at most once, predicates take only the source, suggestion providers take a builder.",
	Node: func(ctx *Context, id nstree.NodeID) {
		for _, b := range bindings(ctx.Tree.Node(id)) {
			if b.Element.Kind() != element.KindMethod {
				continue
			}
			for _, problem := range signatureProblems(b) {
				ctx.Env.Errorf(diag.LintMethodSignature, b.Element.Location(),
					"%s (%s) cannot be %s: %s", element.Describe(b.Element), element.Signature(b.Element), article(b.Role), problem).
					Emit()
			}
		}
	},
}

func signatureProblems(b *nstree.Binding) []string {
	var problems []string
	count := make(map[nstree.ParamKind]int)
	for _, p := range b.Params {
		count[p.Kind]++
	}
	if count[nstree.ParamUnresolved] > 0 {
		return nil // the binder already reported the parameter
	}
	for _, k := range []nstree.ParamKind{nstree.ParamSource, nstree.ParamOptional, nstree.ParamContext, nstree.ParamBuilder} {
		if count[k] > 1 {
			problems = append(problems, fmt.Sprintf("the %s appears %d times", k, count[k]))
		}
	}
	if count[nstree.ParamSource] > 0 && count[nstree.ParamOptional] > 0 {
		problems = append(problems, "it takes the source both directly and as an optional")
	}
	contextual := count[nstree.ParamSource] + count[nstree.ParamOptional] + count[nstree.ParamContext]
	switch b.Role {
	case nstree.RoleArgumentType:
		if len(b.Params) > 0 {
			problems = append(problems, "argument type providers take no parameters")
		}
	case nstree.RoleRequirement:
		if len(b.Params) != 1 || count[nstree.ParamSource]+count[nstree.ParamOptional] != 1 {
			problems = append(problems, "requirements take exactly one parameter, the source")
		}
	case nstree.RoleSuggestions:
		if count[nstree.ParamBuilder] != 1 {
			problems = append(problems, "suggestion providers need a suggestions builder parameter")
		}
	case nstree.RoleCommand, nstree.RoleExecution:
		if count[nstree.ParamBuilder] > 0 {
			problems = append(problems, "command bodies cannot take a suggestions builder")
		}
		if b.Role == nstree.RoleExecution && contextual == 0 {
			problems = append(problems, "executions need a call context or source parameter")
		}
	}
	return problems
}

// Accessibility requires bound elements to be reachable from generated
// code and not overridable.
var Accessibility = &Pass{
	Name: "accessibility",
	Doc:  "Bound elements must be exported and concrete; bound methods must not be overridable.",
	Node: func(ctx *Context, id nstree.NodeID) {
		for _, b := range bindings(ctx.Tree.Node(id)) {
			mods := b.Element.Modifiers()
			var problems []string
			if !mods.Has(element.Exported) {
				problems = append(problems, "is not exported")
			}
			if mods.Has(element.Abstract) {
				problems = append(problems, "is abstract")
			} else if b.Element.Kind() == element.KindMethod && !mods.Has(element.Final) {
				problems = append(problems, "can be overridden")
			}
			if len(problems) == 0 {
				continue
			}
			ctx.Env.Errorf(diag.LintAccessibility, b.Element.Location(),
				"%s %s", element.Describe(b.Element), strings.Join(problems, " and ")).
				WithNote(b.Site, "bound here").
				Emit()
		}
	},
}

func article(r nstree.Role) string {
	if r == nstree.RoleArgumentType || r == nstree.RoleExecution {
		return "an " + r.String()
	}
	return "a " + r.String()
}

func runtimeQualifier(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
