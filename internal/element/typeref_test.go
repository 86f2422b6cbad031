package element

import "testing"

func TestParseTypeRef(t *testing.T) {
	cases := []struct {
		in, key, short string
	}{
		{"int", "int", "int"},
		{"*example.com/game.Player", "*example.com/game.Player", "*game.Player"},
		{"cmdforge/pkg/dispatch.Optional[*example.com/game.Player]",
			"cmdforge/pkg/dispatch.Optional[*example.com/game.Player]",
			"dispatch.Optional[*game.Player]"},
		{"m.Pair[int, string]", "m.Pair[int,string]", "m.Pair[int, string]"},
	}
	for _, tc := range cases {
		got, err := ParseTypeRef(tc.in)
		if err != nil {
			t.Fatalf("ParseTypeRef(%q): %v", tc.in, err)
		}
		if got.Key() != tc.key {
			t.Errorf("%q: key %q, want %q", tc.in, got.Key(), tc.key)
		}
		if got.String() != tc.short {
			t.Errorf("%q: string %q, want %q", tc.in, got.String(), tc.short)
		}
	}
}

func TestParseTypeRefErrors(t *testing.T) {
	for _, in := range []string{"", "*", "a/b", "x.Map[int", "x.Map[int]]"} {
		if _, err := ParseTypeRef(in); err == nil {
			t.Errorf("ParseTypeRef(%q) succeeded", in)
		}
	}
}

func TestSignature(t *testing.T) {
	m := &Decl{
		Ident: "Give", What: KindMethod, Recv: "Items",
		Params: []Param{
			{Name: "ctx", Type: TypeRef{Path: "cmdforge/pkg/dispatch", Name: "Context", Pointer: true}},
			{Name: "n", Type: TypeRef{Name: "int"}},
		},
		Type: TypeRef{Name: "int"},
	}
	if got := Signature(m); got != "func(*dispatch.Context, int) int" {
		t.Fatalf("Signature = %q", got)
	}
	if got := Describe(m); got != "method Items.Give" {
		t.Fatalf("Describe = %q", got)
	}
}
