package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"cmdforge/internal/diag"
	"cmdforge/internal/source"
)

// Short prints one line per diagnostic, in bag order:
//
//	path:line:col: SEVERITY CODE: message
//
// Notes are appended as indented lines. The output is stable and is what
// golden tests compare against.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n", location(fs, d.Primary, mode), d.Severity, d.Code.ID(), d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(w, "    note: %s: %s\n", location(fs, n.Span, mode), n.Msg)
		}
	}
}

// ShortString is Short into a string.
func ShortString(bag *diag.Bag, fs *source.FileSet, mode PathMode) string {
	var b strings.Builder
	Short(&b, bag, fs, mode)
	return b.String()
}
