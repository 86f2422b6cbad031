package emit

import (
	"errors"
	"strings"
	"testing"

	"cmdforge/internal/codegen"
	"cmdforge/internal/diag"
)

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Warps":       "warps",
		"PlayerHomes": "player_homes",
		"HTTPServer":  "http_server",
		"Warp2Go":     "warp2_go",
	}
	for in, want := range cases {
		if got := SnakeCase(in); got != want {
			t.Errorf("SnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender(t *testing.T) {
	u := codegen.Unit{
		Type:    "Warps",
		PkgPath: "example.com/game/v2",
		Imports: []codegen.Import{{Name: "dispatch", Path: "cmdforge/pkg/dispatch"}, {Name: "game2", Path: "example.com/other/game"}},
		Body:    "func BuildWarpsCommands(src *Warps) []*dispatch.Node {\nreturn nil\n}\n",
	}
	f, err := Render(u, Options{Header: "source: warps.go"})
	if err != nil {
		t.Fatal(err)
	}
	want := `// Code generated by cmdforge. DO NOT EDIT.
// source: warps.go

package game

import (
	"cmdforge/pkg/dispatch"
	game2 "example.com/other/game"
)

func BuildWarpsCommands(src *Warps) []*dispatch.Node {
	return nil
}
`
	if string(f.Content) != want {
		t.Fatalf("Render:\n%s\nwant:\n%s", f.Content, want)
	}
	if f.Path != "warps_commands.gen.go" {
		t.Fatalf("Path = %q", f.Path)
	}
}

func TestRenderPackageOverride(t *testing.T) {
	u := codegen.Unit{Type: "Warps", PkgPath: "example.com/game", Package: "Cmds-1", Body: "var _ = 1\n"}
	f, err := Render(u, Options{Suffix: ".go"})
	if err != nil {
		t.Fatal(err)
	}
	if f.Package != "cmds1" || !strings.HasPrefix(f.Path, "cmds1") || !strings.Contains(string(f.Content), "package cmds1\n") {
		t.Fatalf("package override not applied: %q %q", f.Package, f.Path)
	}
}

func TestRenderInvalidBodyIsInternal(t *testing.T) {
	_, err := Render(codegen.Unit{Type: "Warps", PkgPath: "x", Body: "func {"}, Options{})
	if !errors.Is(err, diag.ErrInternal) {
		t.Fatalf("err = %v", err)
	}
}
