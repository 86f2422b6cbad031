package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cmdforge/internal/diag"
	"cmdforge/internal/source"
)

func fixture() (*diag.Bag, *source.FileSet) {
	fs := source.NewFileSetWithBase("/home/user/game")
	id := fs.AddVirtual("/home/user/game/warps.go", []byte("package game\n\n//cmd:bind teleport\nfunc (w *Warps) A() {}\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.BindSlotTaken, source.Span{File: id, Start: 25, End: 33}, "command of \"teleport\" is already bound").
		WithNote(source.Span{File: id, Start: 14, End: 19}, "first bound here"))
	bag.Add(diag.New(diag.SevWarning, diag.BindUnusedTarget, source.Span{File: id, Start: 54, End: 55}, "matches nothing"))
	return bag, fs
}

func TestShort(t *testing.T) {
	bag, fs := fixture()
	want := `/home/user/game/warps.go:3:12: ERROR BND3002: command of "teleport" is already bound
    note: /home/user/game/warps.go:3:1: first bound here
/home/user/game/warps.go:4:21: WARNING BND3005: matches nothing
`
	if diff := cmp.Diff(want, ShortString(bag, fs, PathModeAuto)); diff != "" {
		t.Fatalf("short output mismatch (-want +got):\n%s", diff)
	}
	if got := ShortString(bag, fs, PathModeBasename); !strings.HasPrefix(got, "warps.go:3:12:") {
		t.Fatalf("basename mode: %s", got)
	}
}

func TestPretty(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1, ShowNotes: true})
	want := strings.Join([]string{
		`warps.go:3:12: ERROR BND3002: command of "teleport" is already bound`,
		" 2 | ",
		" 3 | //cmd:bind teleport",
		"   | " + strings.Repeat(" ", 11) + "^~~~~~~~",
		"  note: warps.go:3:1: first bound here",
		" 3 | //cmd:bind teleport",
		"   | ^~~~~",
		"",
		"warps.go:4:21: WARNING BND3005: matches nothing",
		" 3 | //cmd:bind teleport",
		" 4 | func (w *Warps) A() {}",
		"   | " + strings.Repeat(" ", 20) + "^",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := fixture()
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatal("plain output contains escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatal("colored output has no escape codes")
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("w.go", []byte("//cmd:bind 世界 x\n"))
	bag := diag.NewBag(1)
	// "x" после двух широких рун
	bag.Add(diag.NewError(diag.LexIllegalChar, source.Span{File: id, Start: 18, End: 19}, "bad"))
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	lines := strings.Split(buf.String(), "\n")
	if got, want := lines[2], "   | "+strings.Repeat(" ", 16)+"^"; got != want {
		t.Fatalf("caret line = %q, want %q", got, want)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	want := DiagnosticsOutput{
		Count:   1,
		Dropped: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "BND3002",
			Title:    "Role already bound",
			Message:  `command of "teleport" is already bound`,
			Location: LocationJSON{File: "warps.go", StartByte: 25, EndByte: 33, StartLine: 3, StartCol: 12, EndLine: 3, EndCol: 20},
			Notes: []NoteJSON{{
				Message:  "first bound here",
				Location: LocationJSON{File: "warps.go", StartByte: 14, EndByte: 19, StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 6},
			}},
		}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestSarif(t *testing.T) {
	bag, fs := fixture()
	var buf bytes.Buffer
	if err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "cmdforge", ToolVersion: "0.1.0", InvocationArgs: []string{"check"}}); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	run := log.Runs[0]
	if len(run.Results) != 2 || run.Results[0].Level != "error" || run.Results[1].Level != "warning" {
		t.Fatalf("results = %+v", run.Results)
	}
	if got := run.Results[0].Locations[0].Physical; got.Artifact.URI != "warps.go" || got.Region.StartLine != 3 {
		t.Fatalf("location = %+v", got)
	}
	if len(run.Tool.Driver.Rules) != 2 || run.Invocations[0].ExecutionSuccessful {
		t.Fatalf("driver = %+v invocations = %+v", run.Tool.Driver, run.Invocations)
	}
}
