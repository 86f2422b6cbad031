package codegen

import (
	"errors"
	"testing"

	"cmdforge/internal/analyze"
	"cmdforge/internal/binder"
	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/env"
	"cmdforge/internal/host"
	"cmdforge/internal/nstree"
)

const (
	pkg = "example.com/game"
	rt  = binder.DefaultRuntime
)

var warps = &element.Decl{Ident: "Warps", What: element.KindType, Pkg: pkg, Mods: element.Exported}

func mustRef(t *testing.T, s string) element.TypeRef {
	t.Helper()
	r, err := element.ParseTypeRef(s)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func decl(owner *element.Decl, kind host.PayloadKind, e element.Element, patterns ...string) host.Declaration {
	d := host.Declaration{Owner: owner, Element: e, Kind: kind}
	for _, p := range patterns {
		d.Patterns = append(d.Patterns, host.Pattern{Text: p})
	}
	return d
}

func method(t *testing.T, name, result string, params ...string) *element.Decl {
	d := &element.Decl{Ident: name, What: element.KindMethod, Pkg: pkg, Recv: "Warps", Mods: element.Exported | element.Final}
	if result != "" {
		d.Type = mustRef(t, result)
	}
	for i := 0; i+1 < len(params); i += 2 {
		d.Params = append(d.Params, element.Param{Name: params[i], Type: mustRef(t, params[i+1])})
	}
	return d
}

func field(t *testing.T, name, typ string) *element.Decl {
	return &element.Decl{Ident: name, What: element.KindField, Pkg: pkg, Recv: "Warps", Type: mustRef(t, typ), Mods: element.Exported}
}

func bound(t *testing.T, opts binder.Options, decls ...host.Declaration) *env.Environment {
	t.Helper()
	e := env.New(0)
	b := binder.New(e, opts)
	b.Insert(decls)
	b.Bind()
	analyze.Run(e)
	if e.HasError() {
		t.Fatalf("unexpected errors: %v", e.Diagnostics().Items())
	}
	return e
}

func teleportDecls(t *testing.T) []host.Declaration {
	tp := method(t, "Teleport", "", "ctx", "*"+rt+".Context", "target", "*"+pkg+".Player")
	return []host.Declaration{
		decl(warps, host.Commands, warps, "teleport <player>"),
		decl(warps, host.Binds, tp, "teleport <player>"),
		{Owner: warps, Element: tp, Kind: host.Let, Param: "target", Patterns: []host.Pattern{{Text: "<player>"}}},
		decl(warps, host.Binds, field(t, "PlayerArg", rt+".ArgumentType[*"+pkg+".Player]"), "<player>"),
	}
}

func TestGenerateTeleport(t *testing.T) {
	decls := teleportDecls(t)
	e := bound(t, binder.DefaultOptions(), decls...)
	units, err := Generate(e, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units", len(units))
	}
	want := `// BuildWarpsCommands builds the commands declared on Warps.
func BuildWarpsCommands(src *Warps) []*dispatch.Node {
	n1 := dispatch.Literal("teleport")
	n2 := dispatch.Argument("player", src.PlayerArg)
	n2.Executes(func(ctx *dispatch.Context) int {
		src.Teleport(ctx, dispatch.Arg[*Player](ctx, "player"))
		return dispatch.SingleSuccess
	})
	n1.Then(n2)
	return []*dispatch.Node{n1}
}
`
	if units[0].Body != want {
		t.Fatalf("body:\n%s\nwant:\n%s", units[0].Body, want)
	}
	if len(units[0].Imports) != 1 || units[0].Imports[0] != (Import{Name: "dispatch", Path: rt}) {
		t.Fatalf("imports = %v", units[0].Imports)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	decls := teleportDecls(t)
	decls = append(decls,
		decl(warps, host.Commands, warps, "home|h|base set", "home list", "spawn"),
		decl(warps, host.Binds, method(t, "List", "int", "ctx", "*"+rt+".Context"), "home list"),
	)
	e := bound(t, binder.DefaultOptions(), decls...)
	first, err := Generate(e, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := Generate(e, Options{})
		if again[0].Body != first[0].Body {
			t.Fatalf("output changed between runs:\n%s\n---\n%s", first[0].Body, again[0].Body)
		}
	}
}

func TestGenerateHandlersAndSourceType(t *testing.T) {
	opts := binder.DefaultOptions()
	opts.Source = mustRef(t, "*"+pkg+".Player")
	e := bound(t, opts,
		decl(warps, host.Commands, warps, "home|h"),
		decl(warps, host.Package, warps, "commands"),
		decl(warps, host.Binds, method(t, "Home", "int", "p", "*"+pkg+".Player"), "home"),
		decl(warps, host.Binds, method(t, "CanHome", "bool", "p", rt+".Optional[*"+pkg+".Player]"), "home"),
		decl(warps, host.Binds, field(t, "Names", rt+".SuggestionProvider"), "home"),
	)
	units, err := Generate(e, Options{Source: opts.Source})
	if err != nil {
		t.Fatal(err)
	}
	want := `// BuildWarpsCommands builds the commands declared on Warps.
func BuildWarpsCommands(src *game.Warps) []*dispatch.Node {
	n1 := dispatch.Literal("home").Alias("h")
	n1.Requires(func(source dispatch.Source) bool {
		return src.CanHome(dispatch.OptionalAs[*game.Player](source))
	})
	n1.Suggests(src.Names.Suggest)
	n1.Executes(func(ctx *dispatch.Context) int {
		return src.Home(dispatch.As[*game.Player](ctx.Source()))
	})
	return []*dispatch.Node{n1}
}
`
	if units[0].Body != want {
		t.Fatalf("body:\n%s\nwant:\n%s", units[0].Body, want)
	}
	if units[0].Package != "commands" || len(units[0].Imports) != 2 {
		t.Fatalf("unit = %+v", units[0])
	}
}

func TestGenerateRefusesOnError(t *testing.T) {
	e := env.New(0)
	e.Errorf(diag.AnaMissingConverter, warps.Span, "boom").Emit()
	if _, err := Generate(e, Options{}); !errors.Is(err, ErrHasErrors) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnresolvedParameterIsFault(t *testing.T) {
	e := env.New(0)
	tree := e.Tree()
	m := method(t, "Tp", "", "n", "int")
	lit := insertLiteral(t, e, "tp")
	tree.Attach(&nstree.Binding{Role: nstree.RoleCommand, Element: m, Node: lit,
		Params: []nstree.ParamBinding{{Index: 0, Kind: nstree.ParamUnresolved}}})

	var err error
	func() {
		defer diag.Recover(&err)
		_, err = Generate(e, Options{})
	}()
	if !errors.Is(err, diag.ErrInternal) {
		t.Fatalf("err = %v", err)
	}
}

func insertLiteral(t *testing.T, e *env.Environment, name string) nstree.NodeID {
	t.Helper()
	b := binder.New(e, binder.DefaultOptions())
	b.Insert([]host.Declaration{decl(warps, host.Commands, warps, name)})
	tree := e.Tree()
	id, ok := tree.Child(tree.GetScope(tree.Scopes()[0]).Root, name)
	if !ok {
		t.Fatalf("literal %q missing", name)
	}
	return id
}

func TestImportName(t *testing.T) {
	cases := map[string]string{
		"cmdforge/pkg/dispatch": "dispatch",
		"example.com/game/v2":   "game",
		"example.com/go-lib":    "golib",
		"example.com/3d":        "_3d",
	}
	for in, want := range cases {
		if got := ImportName(in); got != want {
			t.Errorf("ImportName(%q) = %q, want %q", in, got, want)
		}
	}
}
