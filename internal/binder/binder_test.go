package binder

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/env"
	"cmdforge/internal/host"
	"cmdforge/internal/nstree"
	"cmdforge/internal/source"
)

const pkg = "example.com/game"

func ref(t *testing.T, s string) element.TypeRef {
	t.Helper()
	r, err := element.ParseTypeRef(s)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func param(t *testing.T, name, typ string) element.Param {
	return element.Param{Name: name, Type: ref(t, typ)}
}

var warps = &element.Decl{Ident: "Warps", What: element.KindType, Pkg: pkg, Mods: element.Exported}

func method(name string, result element.TypeRef, params ...element.Param) *element.Decl {
	return &element.Decl{Ident: name, What: element.KindMethod, Pkg: pkg, Recv: "Warps",
		Type: result, Params: params, Mods: element.Exported | element.Final}
}

func field(name string, typ element.TypeRef) *element.Decl {
	return &element.Decl{Ident: name, What: element.KindField, Pkg: pkg, Recv: "Warps",
		Type: typ, Mods: element.Exported}
}

func commands(patterns ...string) host.Declaration {
	return host.Declaration{Owner: warps, Element: warps, Kind: host.Commands, Patterns: pats(patterns)}
}

func binds(e element.Element, patterns ...string) host.Declaration {
	return host.Declaration{Owner: warps, Element: e, Kind: host.Binds, Patterns: pats(patterns)}
}

func let(e element.Element, param, target string) host.Declaration {
	return host.Declaration{Owner: warps, Element: e, Kind: host.Let, Param: param, Patterns: pats([]string{target})}
}

func pats(texts []string) []host.Pattern {
	out := make([]host.Pattern, len(texts))
	for i, s := range texts {
		out[i] = host.Pattern{Text: s, Span: source.Span{File: 1, Start: uint32(i * 100), End: uint32(i*100 + len(s))}}
	}
	return out
}

func run(decls ...host.Declaration) *env.Environment {
	e := env.New(0)
	b := New(e, DefaultOptions())
	b.Insert(decls)
	b.Bind()
	return e
}

func nodeAt(t *testing.T, e *env.Environment, path ...string) *nstree.Node {
	t.Helper()
	tree := e.Tree()
	cur := tree.GetScope(tree.Scopes()[0]).Root
	for _, name := range path {
		next, ok := tree.Child(cur, name)
		if !ok {
			t.Fatalf("no node %q below %q", name, tree.PathString(cur))
		}
		cur = next
	}
	return tree.Node(cur)
}

func TestRolePriority(t *testing.T) {
	roles := NewRoles(DefaultRuntime)
	local := element.TypeRef{Path: pkg, Name: "Runner", Supers: []element.TypeRef{{Path: DefaultRuntime, Name: "Execution"}}}
	tests := []struct {
		name string
		elem element.Element
		want nstree.Role
	}{
		{"execution field", field("Run", ref(t, DefaultRuntime+".Execution")), nstree.RoleExecution},
		{"execution through embedding", field("Run", local), nstree.RoleExecution},
		{"command field", field("Run", ref(t, DefaultRuntime+".Command")), nstree.RoleCommand},
		{"argument type field", field("Arg", ref(t, DefaultRuntime+".ArgumentType[int]")), nstree.RoleArgumentType},
		{"requirement field", field("Perm", ref(t, DefaultRuntime+".Requirement")), nstree.RoleRequirement},
		{"suggestion field", field("Names", ref(t, DefaultRuntime+".SuggestionProvider")), nstree.RoleSuggestions},
		{"numeric method", method("Count", ref(t, "int64")), nstree.RoleExecution},
		{"void method", method("Tp", element.Void()), nstree.RoleCommand},
		{"bool method", method("CanTp", ref(t, "bool")), nstree.RoleRequirement},
		{"suggestions method", method("List", ref(t, "*"+DefaultRuntime+".Suggestions")), nstree.RoleSuggestions},
		{"converter method", method("Parser", ref(t, DefaultRuntime+".ArgumentType[string]")), nstree.RoleArgumentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := roles.Classify(tt.elem)
			if !ok || got != tt.want {
				t.Fatalf("Classify = %v %v, want %v", got, ok, tt.want)
			}
		})
	}

	if role, ok := roles.Classify(method("Name", ref(t, "string"))); ok {
		t.Fatalf("string method classified as %v", role)
	}
}

func TestBindEndToEnd(t *testing.T) {
	tp := method("Teleport", element.Void(),
		param(t, "ctx", "*"+DefaultRuntime+".Context"),
		param(t, "src", DefaultRuntime+".Source"))
	conv := field("PlayerArg", ref(t, DefaultRuntime+".ArgumentType[*"+pkg+".Player]"))

	e := run(commands("teleport <player>"), binds(tp, "teleport <player>"), binds(conv, "<player>"))
	if e.HasError() {
		t.Fatalf("unexpected errors: %v", e.Diagnostics().Items())
	}
	if got := e.Tree().Len(); got != 2 {
		t.Fatalf("tree has %d nodes, want 2", got)
	}
	player := nodeAt(t, e, "teleport", "player")
	body := player.Binding(nstree.SlotBody)
	if body == nil || body.Element != element.Element(tp) || body.Role != nstree.RoleCommand {
		t.Fatalf("body binding = %+v", body)
	}
	want := []nstree.ParamBinding{
		{Index: 0, Kind: nstree.ParamContext},
		{Index: 1, Kind: nstree.ParamSource},
	}
	if diff := cmp.Diff(want, body.Params); diff != "" {
		t.Fatalf("params (-want +got):\n%s", diff)
	}
	if arg := player.Binding(nstree.SlotArgumentType); arg == nil || arg.Element != element.Element(conv) {
		t.Fatalf("argument type binding = %+v", arg)
	}
}

func TestLetResolution(t *testing.T) {
	give := method("Give", element.Void(),
		param(t, "ctx", "*"+DefaultRuntime+".Context"),
		param(t, "to", "*"+pkg+".Player"))

	e := run(commands("give <player> <item>"), binds(give, "give <player> <item>"), let(give, "to", "<player>"))
	if e.HasError() {
		t.Fatalf("unexpected errors: %v", e.Diagnostics().Items())
	}
	player := nodeAt(t, e, "give", "player")
	item := nodeAt(t, e, "give", "player", "item")
	ps := item.Binding(nstree.SlotBody).Params
	if ps[1].Kind != nstree.ParamSibling || ps[1].Target != player.ID {
		t.Fatalf("to resolved to %+v, want sibling %d", ps[1], player.ID)
	}

	e = run(commands("give <player> <item>"), binds(give, "give <player> <item>"), let(give, "to", "give <player>"))
	if e.HasError() {
		t.Fatalf("path let failed: %v", e.Diagnostics().Items())
	}
}

func TestLetErrors(t *testing.T) {
	give := method("Give", element.Void(), param(t, "to", "*"+pkg+".Player"))
	tests := []struct {
		name string
		let  host.Declaration
		want diag.Code
	}{
		{"unknown argument", let(give, "to", "<playr>"), diag.BindLetUnresolved},
		{"not on the path", let(give, "to", "take <player>"), diag.BindLetUnresolved},
		{"unknown parameter", let(give, "target", "<player>"), diag.BindLetUnknownParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := run(commands("give <player>", "take <player>"), binds(give, "give <player>"), tt.let)
			codes := e.Diagnostics().Codes()
			if len(codes) == 0 || codes[0] != tt.want {
				t.Fatalf("codes = %v, want first %s", codes, tt.want.ID())
			}
		})
	}

	e := run(commands("give <player>"), binds(give, "give <player>"), let(give, "to", "<playr>"))
	d := e.Diagnostics().Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != `did you mean "player"?` {
		t.Fatalf("notes = %+v", d.Notes)
	}
}

func TestBindErrors(t *testing.T) {
	void := method("Tp", element.Void())
	other := method("Other", element.Void())
	tests := []struct {
		name  string
		decls []host.Declaration
		want  []diag.Code
	}{
		{
			name:  "slot taken",
			decls: []host.Declaration{commands("tp"), binds(void, "tp"), binds(other, "tp")},
			want:  []diag.Code{diag.BindSlotTaken},
		},
		{
			name:  "unrecognized reported once",
			decls: []host.Declaration{commands("a", "b"), binds(method("Name", element.TypeRef{Name: "string"}), "a", "b")},
			want:  []diag.Code{diag.BindUnrecognized},
		},
		{
			name:  "unused scope-wide target",
			decls: []host.Declaration{commands("tp"), binds(field("Arg", element.TypeRef{Path: DefaultRuntime, Name: "ArgumentType", Args: []element.TypeRef{{Name: "int"}}}), "<count>")},
			want:  []diag.Code{diag.BindUnusedTarget},
		},
		{
			name:  "unresolved parameter",
			decls: []host.Declaration{commands("tp"), binds(method("Tp", element.Void(), element.Param{Name: "n", Type: element.TypeRef{Name: "int"}}), "tp")},
			want:  []diag.Code{diag.BindUnresolvedParam},
		},
		{
			name:  "aliases only on the first bind token",
			decls: []host.Declaration{commands("warp set"), binds(void, "warp set|s")},
			want:  []diag.Code{diag.LexAliasNotAllowed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := run(tt.decls...)
			if diff := cmp.Diff(tt.want, e.Diagnostics().Codes()); diff != "" {
				t.Fatalf("codes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParamKind(t *testing.T) {
	b := New(env.New(0), Options{Source: ref(t, "*"+pkg+".Player")})
	tests := map[string]nstree.ParamKind{
		"*" + pkg + ".Player":                                       nstree.ParamSource,
		DefaultRuntime + ".Optional[*" + pkg + ".Player]":           nstree.ParamOptional,
		"*" + DefaultRuntime + ".Context":                           nstree.ParamContext,
		"*" + DefaultRuntime + ".SuggestionsBuilder":                nstree.ParamBuilder,
		DefaultRuntime + ".Context":                                 nstree.ParamUnresolved,
		DefaultRuntime + ".Optional[" + DefaultRuntime + ".Source]": nstree.ParamUnresolved,
	}
	for spelling, want := range tests {
		if got := b.ParamKind(ref(t, spelling)); got != want {
			t.Errorf("ParamKind(%s) = %v, want %v", spelling, got, want)
		}
	}
}

func TestConverterType(t *testing.T) {
	roles := NewRoles(DefaultRuntime)
	direct := field("PlayerArg", ref(t, DefaultRuntime+".ArgumentType[*"+pkg+".Player]"))
	if got, ok := roles.ConverterType(direct); !ok || got.Key() != "*"+pkg+".Player" {
		t.Fatalf("ConverterType = %v %v", got.Key(), ok)
	}
	embedded := field("Items", element.TypeRef{Path: pkg, Name: "ItemType",
		Supers: []element.TypeRef{ref(t, DefaultRuntime+".ArgumentType[string]")}})
	if got, ok := roles.ConverterType(embedded); !ok || got.Key() != "string" {
		t.Fatalf("ConverterType through supers = %v %v", got.Key(), ok)
	}
	if _, ok := roles.ConverterType(method("Tp", element.Void())); ok {
		t.Fatal("void method has a converter type")
	}
}
