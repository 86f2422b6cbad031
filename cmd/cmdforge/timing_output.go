package main

import (
	"fmt"
	"io"

	"cmdforge/internal/compiler"
)

func printTimings(out io.Writer, res *compiler.Result) {
	if out == nil || res == nil || res.Timer == nil {
		return
	}
	if err := res.Timer.WriteSummary(out); err != nil {
		return
	}
	if p, ok := res.Timer.Slowest(); ok && len(res.Timer.Report().Phases) > 1 {
		fmt.Fprintf(out, "  slowest: %s\n", p.Name)
	}
}
