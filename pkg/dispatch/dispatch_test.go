package dispatch

import (
	"strconv"
	"testing"
)

type player struct{ name string }

func (p *player) Name() string { return p.name }

type console struct{}

func (console) Name() string { return "console" }

type intType struct{}

func (intType) Parse(r *StringReader) (int, error) { return strconv.Atoi(r.ReadWord()) }

func TestTreeConstruction(t *testing.T) {
	var ran int
	root := Literal("give").Alias("g")
	count := Argument("count", intType{}).
		Executes(func(ctx *Context) int {
			ran = Arg[int](ctx, "count")
			return SingleSuccess
		}).
		Requires(func(source Source) bool { return OptionalAs[*player](source).OrElse(nil) != nil })
	root.Then(count)

	if !root.Matches("g") || root.Matches("x") || root.Usage() != "give|g" {
		t.Fatalf("literal matching broken: %q", root.Usage())
	}
	if count.CanUse(console{}) || !count.CanUse(&player{"alex"}) {
		t.Fatal("requirement not applied")
	}

	v, err := count.Parse(NewStringReader(" 42 rest"))
	if err != nil || v != 42 {
		t.Fatalf("Parse = %v, %v", v, err)
	}
	ctx := NewContext(&player{"alex"}, "give 42")
	ctx.SetArg("count", v)
	if res, err := count.Run(ctx); err != nil || res != SingleSuccess || ran != 42 {
		t.Fatalf("Run = %d, %v (ran %d)", res, err, ran)
	}
	if _, err := root.Run(ctx); err == nil {
		t.Fatal("literal without body ran")
	}
}

func TestAsPanicsOnWrongSource(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("As did not panic")
		}
	}()
	As[*player](console{})
}

func TestSuggestionsBuilder(t *testing.T) {
	b := NewSuggestionsBuilder("tp Al", 3)
	got := b.Suggest("Alex").Suggest("Bob").Suggest("alice").Build()
	if got.Start != 3 || len(got.Items) != 2 {
		t.Fatalf("Build = %+v", got)
	}
}
