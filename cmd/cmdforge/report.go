package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"cmdforge/internal/compiler"
	"cmdforge/internal/diag"
	"cmdforge/internal/diagfmt"
	"cmdforge/internal/version"
)

type diagFormat string

const (
	formatPretty diagFormat = "pretty"
	formatShort  diagFormat = "short"
	formatJSON   diagFormat = "json"
	formatSarif  diagFormat = "sarif"
)

func readDiagFormat(value string) (diagFormat, error) {
	switch f := diagFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case formatPretty, formatShort, formatJSON, formatSarif:
		return f, nil
	case "":
		return formatPretty, nil
	default:
		return "", fmt.Errorf("unknown format: %s (expected pretty|short|json|sarif)", value)
	}
}

// printDiagnostics renders the run's diagnostics to out. Structured
// formats are written even when empty so consumers always get a document.
func printDiagnostics(out io.Writer, color bool, res *compiler.Result, format diagFormat, fullPath bool) error {
	bag := res.Diagnostics()
	bag.Sort()
	mode := diagfmt.PathModeAuto
	if fullPath {
		mode = diagfmt.PathModeAbsolute
	}
	switch format {
	case formatJSON:
		return diagfmt.JSON(out, bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         mode,
			IncludeNotes:     true,
		})
	case formatSarif:
		return diagfmt.Sarif(out, bag, res.Files, diagfmt.SarifRunMeta{
			ToolName:       "cmdforge",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	case formatShort:
		diagfmt.Short(out, bag, res.Files, mode)
		return nil
	}
	if bag.Len() == 0 {
		return nil
	}
	diagfmt.Pretty(out, bag, res.Files, diagfmt.PrettyOpts{
		Color:     color,
		Context:   1,
		PathMode:  mode,
		ShowNotes: true,
	})
	return nil
}

// summarize prints the one-line outcome of a run.
func summarize(w io.Writer, res *compiler.Result, wrote bool) {
	bag := res.Diagnostics()
	var parts []string
	if n := bag.Count(diag.SevError); n > 0 {
		parts = append(parts, plural(n, "error"))
	}
	if n := res.Env.Warnings(); n > 0 {
		parts = append(parts, plural(n, "warning"))
	}
	switch {
	case res.HasErrors():
		// генерация пропущена, итог уже в счётчиках
	case wrote:
		parts = append(parts, fmt.Sprintf("%s generated, %d written", plural(len(res.Outputs), "file"), len(res.Written)))
	default:
		parts = append(parts, fmt.Sprintf("%s checked", plural(len(res.Decls), "declaration")))
	}
	if res.Cached {
		parts = append(parts, "cached")
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
