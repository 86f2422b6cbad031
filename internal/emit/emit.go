// Package emit wraps generated units into complete, gofmt'ed Go files.
package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"strings"
	"unicode"

	"cmdforge/internal/codegen"
	"cmdforge/internal/diag"
)

// DefaultSuffix ends the name of every generated file.
const DefaultSuffix = "_commands.gen.go"

type Options struct {
	Suffix string
	// Header is an extra comment line placed after the generated-code notice.
	Header string
}

// File is one rendered unit.
type File struct {
	// Path is relative to the directory of the declaring type.
	Path    string
	Package string
	Content []byte
	Unit    codegen.Unit
}

// Render produces the file for u. A formatting failure means the
// generator produced invalid Go and is reported as an internal error.
func Render(u codegen.Unit, opts Options) (File, error) {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	pkg := PackageName(u)
	var b bytes.Buffer
	b.WriteString("// Code generated by cmdforge. DO NOT EDIT.\n")
	if opts.Header != "" {
		for _, line := range strings.Split(strings.TrimRight(opts.Header, "\n"), "\n") {
			fmt.Fprintf(&b, "// %s\n", line)
		}
	}
	fmt.Fprintf(&b, "\npackage %s\n\n", pkg)
	if len(u.Imports) > 0 {
		b.WriteString("import (\n")
		for _, imp := range u.Imports {
			if imp.Name == codegen.ImportName(imp.Path) {
				fmt.Fprintf(&b, "\t%q\n", imp.Path)
			} else {
				fmt.Fprintf(&b, "\t%s %q\n", imp.Name, imp.Path)
			}
		}
		b.WriteString(")\n\n")
	}
	b.WriteString(u.Body)

	src, err := format.Source(b.Bytes())
	if err != nil {
		return File{}, fmt.Errorf("%w: generated code for %s does not parse: %v", diag.ErrInternal, u.Type, err)
	}
	name := SnakeCase(u.Type) + opts.Suffix
	if u.Package != "" {
		name = filepath.Join(pkg, name)
	}
	return File{Path: name, Package: pkg, Content: src, Unit: u}, nil
}

// PackageName is the package clause of u: the override when present,
// otherwise the name of the declaring package.
func PackageName(u codegen.Unit) string {
	if u.Package != "" {
		return sanitize(u.Package)
	}
	return codegen.ImportName(u.PkgPath)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			if b.Len() == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "commands"
	}
	return b.String()
}

// SnakeCase converts a Go type name to a file name stem: PlayerHomes -> player_homes,
// HTTPServer -> http_server.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
