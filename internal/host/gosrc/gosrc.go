// Package gosrc reads command declarations from comment directives in Go
// source files:
//
//	//cmd:command teleport|tp <player>   on a type: declares a command
//	//cmd:package commands               on a type: generate into ./commands
//	//cmd:bind teleport <player>         on a field or method: bind it
//	//cmd:let target <player>            on a method: point a parameter at an argument
package gosrc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/host"
	"cmdforge/internal/source"
)

// Options tune scanning.
type Options struct {
	// ImportPath of the scanned directory; derived from go.mod when empty.
	ImportPath string
	// Recursive descends into subdirectories, each a package of its own.
	Recursive bool
	// Jobs bounds parallel parsing; <= 0 means GOMAXPROCS.
	Jobs int
	// Skip reports files to leave out, such as earlier generated output.
	Skip func(path string) bool
}

// Package is the scan result of one directory.
type Package struct {
	Dir        string
	ImportPath string
	Files      []source.FileID
}

// Scan loads the Go files under dir into files and returns their
// declarations, package by package in directory order and file by file in
// path order. Directive problems go to r; only I/O failures and
// cancellation are returned as errors.
func Scan(ctx context.Context, dir string, files *source.FileSet, r diag.Reporter, opts Options) ([]host.Declaration, []Package, error) {
	base := opts.ImportPath
	if base == "" {
		var err error
		if base, err = importPathOf(dir); err != nil {
			return nil, nil, err
		}
	}
	dirs, err := packageDirs(dir, opts.Recursive)
	if err != nil {
		return nil, nil, err
	}
	var (
		decls []host.Declaration
		pkgs  []Package
	)
	for _, d := range dirs {
		rel, err := filepath.Rel(dir, d)
		if err != nil {
			return nil, nil, err
		}
		pkg := Package{Dir: d, ImportPath: base}
		if rel != "." {
			pkg.ImportPath = base + "/" + filepath.ToSlash(rel)
		}
		paths, err := goFiles(d, opts.Skip)
		if err != nil {
			return nil, nil, err
		}
		if len(paths) == 0 {
			continue
		}
		for _, p := range paths {
			id, err := files.Load(p)
			if err != nil {
				diag.ReportError(r, diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to read %s: %v", p, err)).Emit()
				continue
			}
			pkg.Files = append(pkg.Files, id)
		}
		got, err := ScanFiles(ctx, files, pkg.Files, pkg.ImportPath, r, opts.Jobs)
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, got...)
		pkgs = append(pkgs, pkg)
	}
	return decls, pkgs, nil
}

// ScanFiles parses already loaded files of one package in parallel and
// merges their results in the order of ids.
func ScanFiles(ctx context.Context, files *source.FileSet, ids []source.FileID, importPath string, r diag.Reporter, jobs int) ([]host.Declaration, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]fileResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(ids)))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = scanFile(files.Get(id), importPath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ifaces := make(map[string][]element.TypeRef)
	var decls []host.Declaration
	for _, res := range results {
		for _, d := range res.diags {
			r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
		for name, embeds := range res.ifaces {
			ifaces[name] = append(ifaces[name], embeds...)
		}
		decls = append(decls, res.decls...)
	}
	linkSupers(decls, importPath, ifaces)
	return decls, nil
}

// importPathOf derives the import path of dir from the nearest go.mod.
func importPathOf(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", dir, err)
	}
	for cur := abs; ; {
		data, err := os.ReadFile(filepath.Join(cur, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return "", fmt.Errorf("%s: no module directive", filepath.Join(cur, "go.mod"))
			}
			rel, err := filepath.Rel(cur, abs)
			if err != nil {
				return "", err
			}
			if rel == "." {
				return mod, nil
			}
			return mod + "/" + filepath.ToSlash(rel), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read go.mod: %w", err)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("no go.mod found above %s; set the import path explicitly", abs)
		}
		cur = parent
	}
}

func packageDirs(root string, recursive bool) ([]string, error) {
	if !recursive {
		return []string{root}, nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}

func goFiles(dir string, skip func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)
		if skip != nil && skip(path) {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// linkSupers fills TypeRef.Supers from interfaces of the package that embed
// other interfaces, so an interface embedding dispatch.Command is
// recognized as one.
func linkSupers(decls []host.Declaration, pkg string, ifaces map[string][]element.TypeRef) {
	if len(ifaces) == 0 {
		return
	}
	var link func(t *element.TypeRef, depth int)
	link = func(t *element.TypeRef, depth int) {
		for i := range t.Args {
			link(&t.Args[i], depth)
		}
		if depth > 8 || t.Path != pkg {
			return
		}
		embeds, ok := ifaces[t.Name]
		if !ok || len(t.Supers) > 0 {
			return
		}
		t.Supers = make([]element.TypeRef, len(embeds))
		copy(t.Supers, embeds)
		for i := range t.Supers {
			link(&t.Supers[i], depth+1)
		}
	}
	done := make(map[*element.Decl]bool)
	for _, d := range decls {
		el, ok := d.Element.(*element.Decl)
		if !ok || done[el] {
			continue
		}
		done[el] = true
		link(&el.Type, 0)
		for i := range el.Params {
			link(&el.Params[i].Type, 0)
		}
	}
}
