package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

const warpsSrc = `package game

import "cmdforge/pkg/dispatch"

type Player struct{}

//cmd:command teleport <player>
type Warps struct {
	//cmd:bind <player>
	PlayerArg dispatch.ArgumentType[*Player]
}

//cmd:bind teleport <player>
//cmd:let target <player>
func (w *Warps) Teleport(ctx *dispatch.Context, target *Player) {}
`

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["go.mod"] = "module example.com/game\n\ngo 1.22\n"
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// execute runs the root command with fresh flag values and captures output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestGenerateDryRun(t *testing.T) {
	dir := project(t, map[string]string{"warps.go": warpsSrc})
	stdout, _, err := execute(t, "generate", "--ui", "off", "--no-cache", "--dry-run", "--quiet", dir)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(stdout, "func BuildWarpsCommands(src *Warps) []*dispatch.Node") {
		t.Fatalf("builder missing from output:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "warps_commands.gen.go")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write files: %v", err)
	}
}

func TestGenerateWrites(t *testing.T) {
	dir := project(t, map[string]string{"warps.go": warpsSrc})
	_, stderr, err := execute(t, "generate", "--ui", "off", "--no-cache", dir)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(stderr, "1 file generated, 1 written") {
		t.Fatalf("unexpected summary: %q", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "warps_commands.gen.go")); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestCheckReportsErrors(t *testing.T) {
	src := strings.Replace(warpsSrc, "\t//cmd:bind <player>\n", "", 1)
	dir := project(t, map[string]string{"warps.go": src})
	stdout, _, err := execute(t, "check", "--ui", "off", "--format", "short", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("want errDiagnostics, got %v", err)
	}
	if !strings.Contains(stdout, "ERROR ANA4001:") {
		t.Fatalf("missing ANA4001 in output:\n%s", stdout)
	}
}

func TestCheckWarningsAsErrors(t *testing.T) {
	src := warpsSrc + `
//cmd:bind <nowhere>
func (w *Warps) Unused(ctx *dispatch.Context) {}
`
	dir := project(t, map[string]string{"warps.go": src})
	if _, _, err := execute(t, "check", "--ui", "off", "--quiet", dir); err != nil {
		t.Fatalf("warnings alone must pass: %v", err)
	}
	if _, _, err := execute(t, "check", "--ui", "off", "--quiet", "--warnings-as-errors", dir); !errors.Is(err, errDiagnostics) {
		t.Fatalf("want errDiagnostics, got %v", err)
	}
}

func TestConfigOverrides(t *testing.T) {
	dir := project(t, map[string]string{
		"warps.go":      warpsSrc,
		"cmdforge.toml": "[diagnostics]\nmax = 7\n\n[lint]\npasses = [\"argument-position\"]\n",
	})
	if _, _, err := execute(t, "check", "--ui", "off", "--quiet", dir); err != nil {
		t.Fatalf("check: %v", err)
	}

	req, err := buildRequest(checkCmd, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if req.Config.MaxDiagnostics != 7 || len(req.Config.Passes) != 1 {
		t.Fatalf("config not applied: max=%d passes=%d", req.Config.MaxDiagnostics, len(req.Config.Passes))
	}

	if err := rootCmd.PersistentFlags().Set("max-diagnostics", "3"); err != nil {
		t.Fatal(err)
	}
	req, err = buildRequest(checkCmd, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if req.Config.MaxDiagnostics != 3 {
		t.Fatalf("--max-diagnostics must win over the file, got %d", req.Config.MaxDiagnostics)
	}
}

func TestConfigUnknownKey(t *testing.T) {
	dir := project(t, map[string]string{
		"warps.go":      warpsSrc,
		"cmdforge.toml": "[generate]\nsufix = \"_x.go\"\n",
	})
	_, _, err := execute(t, "check", "--ui", "off", dir)
	if err == nil || !strings.Contains(err.Error(), "CFG6003") {
		t.Fatalf("want unknown key error, got %v", err)
	}
}

func TestReadDiagFormat(t *testing.T) {
	if f, err := readDiagFormat(""); err != nil || f != formatPretty {
		t.Fatalf("empty format = %q, %v", f, err)
	}
	if _, err := readDiagFormat("xml"); err == nil {
		t.Fatalf("xml must be rejected")
	}
}
