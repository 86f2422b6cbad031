package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmdforge/internal/diag"
	"cmdforge/internal/lint"
	"cmdforge/internal/pattern"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsResolve(t *testing.T) {
	r, err := Default().Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if r.Binder.CommandPolicy != pattern.Unrestricted || r.Binder.BindPolicy != pattern.FirstTokenOnly {
		t.Fatalf("policies = %v/%v", r.Binder.CommandPolicy, r.Binder.BindPolicy)
	}
	if len(r.Passes) != len(lint.Default()) || r.MaxDiagnostics != 100 {
		t.Fatalf("resolved = %+v", r)
	}
	if r.Binder.Source.Name != "Source" {
		t.Fatalf("source = %v", r.Binder.Source)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, root, `
[generate]
source_type = "*example.com/game.Player"
header = "regenerate with: cmdforge generate"

[lexer]
bind_aliases = "unrestricted"

[lint]
passes = ["accessibility", "argument-position"]
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	r, err := cfg.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if r.Binder.Source.Key() != "*example.com/game.Player" {
		t.Fatalf("source = %s", r.Binder.Source.Key())
	}
	if r.Binder.BindPolicy != pattern.Unrestricted || len(r.Passes) != 2 || r.Passes[0] != lint.Accessibility {
		t.Fatalf("resolved = %+v", r)
	}
	if r.Emit.Suffix != "_commands.gen.go" {
		t.Fatalf("suffix = %q", r.Emit.Suffix)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code diag.Code
		hint string
	}{
		{"unknown lint", "[lint]\npasses = [\"acessibility\"]\n", diag.CfgUnknownLint, "accessibility"},
		{"bad policy", "[lexer]\ncommand_aliases = \"sometimes\"\n", diag.CfgBadPolicy, ""},
		{"unknown key", "[generate]\nruntime_pkg = \"x\"\n", diag.CfgUnknownKey, "generate.runtime_package"},
		{"bad suffix", "[generate]\nfile_suffix = \".txt\"\n", diag.CfgBadValue, ""},
		{"bad source type", "[generate]\nsource_type = \"a/b\"\n", diag.CfgBadValue, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), tt.body)
			_, err := Load(path)
			var cerr *Error
			if !errors.As(err, &cerr) || cerr.Code != tt.code {
				t.Fatalf("err = %v, want code %s", err, tt.code.ID())
			}
			if tt.hint != "" && !strings.Contains(err.Error(), tt.hint) {
				t.Fatalf("error %q lacks hint %q", err, tt.hint)
			}
		})
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Fatalf("Path = %q", cfg.Path)
	}
}
