// Package compiler runs the whole pipeline over one host: load
// declarations, bind, analyze, lint, generate and write.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cmdforge/internal/analyze"
	"cmdforge/internal/binder"
	"cmdforge/internal/buildpipeline"
	"cmdforge/internal/cache"
	"cmdforge/internal/codegen"
	"cmdforge/internal/config"
	"cmdforge/internal/diag"
	"cmdforge/internal/emit"
	"cmdforge/internal/env"
	"cmdforge/internal/host"
	"cmdforge/internal/host/gosrc"
	"cmdforge/internal/host/manifest"
	"cmdforge/internal/lint"
	"cmdforge/internal/observ"
	"cmdforge/internal/source"
)

// Request configures one run.
type Request struct {
	// Dir is the Go source directory; ignored when Manifest is set.
	Dir string
	// Manifest reads declarations from a YAML file instead of Go sources.
	Manifest   string
	Recursive  bool
	ImportPath string
	Jobs       int
	Config     config.Resolved
	// Write puts generated files next to their declaring types.
	Write bool
	// StopAfter ends the run after the given stage; "" runs everything.
	StopAfter buildpipeline.Stage
	Cache     *cache.Cache
	// Fingerprint is mixed into cache keys (tool version).
	Fingerprint string
	Progress    buildpipeline.ProgressSink
}

// Output is one generated file.
type Output struct {
	Path    string
	Package string
	Content []byte
}

// Result holds everything a run produced. Diagnostics with errors are
// part of a successful Run; the returned error covers I/O, cancellation
// and internal faults only.
type Result struct {
	Files   *source.FileSet
	Env     *env.Environment
	Decls   []host.Declaration
	Units   []codegen.Unit
	Outputs []Output
	// Written lists outputs whose content changed on disk.
	Written []string
	Cached  bool
	Timer   *observ.Timer
	Timings buildpipeline.Timings
}

// Diagnostics returns the run's log.
func (r *Result) Diagnostics() *diag.Bag { return r.Env.Diagnostics() }

// HasErrors reports whether any stage logged an error.
func (r *Result) HasErrors() bool { return r.Env.HasError() }

type run struct {
	ctx     context.Context
	req     Request
	res     *Result
	display []string
}

// Run executes the pipeline.
func Run(ctx context.Context, req Request) (res *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer diag.Recover(&err)

	if req.Config.Passes == nil {
		if req.Config, err = config.Default().Resolve(); err != nil {
			return nil, err
		}
	}
	base := req.Dir
	if req.Manifest != "" {
		base = filepath.Dir(req.Manifest)
	}
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", base, err)
	}

	r := &run{
		ctx: ctx,
		req: req,
		res: &Result{
			Files: source.NewFileSetWithBase(abs),
			Env:   env.New(req.Config.MaxDiagnostics),
			Timer: observ.NewTimer(),
		},
	}
	stages := []struct {
		stage buildpipeline.Stage
		fn    func() (string, error)
	}{
		{buildpipeline.StageLoad, func() (string, error) { return r.load(abs) }},
		{buildpipeline.StageBind, r.bind},
		{buildpipeline.StageAnalyze, r.analyze},
		{buildpipeline.StageLint, r.lint},
		{buildpipeline.StageGenerate, r.generate},
		{buildpipeline.StageWrite, r.write},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}
		if r.res.Cached && st.stage != buildpipeline.StageWrite {
			continue
		}
		if err := r.stage(st.stage, st.fn); err != nil {
			return r.res, err
		}
		if st.stage == req.StopAfter {
			break
		}
	}
	return r.res, nil
}

func (r *run) stage(stage buildpipeline.Stage, fn func() (string, error)) (err error) {
	buildpipeline.Emit(r.req.Progress, r.display, stage, buildpipeline.StatusWorking, nil, 0)
	idx := r.res.Timer.Begin(string(stage))
	start := time.Now()
	note, err := fn()
	elapsed := time.Since(start)
	r.res.Timer.End(idx, note)
	r.res.Timings.Set(stage, elapsed)

	status := buildpipeline.StatusDone
	switch {
	case err != nil:
		status = buildpipeline.StatusError
	case r.res.Cached:
		status = buildpipeline.StatusCached
	case r.res.Env.HasError():
		status = buildpipeline.StatusError
		err = nil
	}
	buildpipeline.Emit(r.req.Progress, r.display, stage, status, err, elapsed)
	return err
}

func (r *run) load(abs string) (string, error) {
	files, rep := r.res.Files, r.res.Env.Reporter()
	var err error
	if r.req.Manifest != "" {
		r.res.Decls, err = manifest.Load(r.req.Manifest, files, rep)
	} else {
		suffix := r.req.Config.Emit.Suffix
		if suffix == "" {
			suffix = emit.DefaultSuffix
		}
		r.res.Decls, _, err = gosrc.Scan(r.ctx, abs, files, rep, gosrc.Options{
			ImportPath: r.req.ImportPath,
			Recursive:  r.req.Recursive,
			Jobs:       r.req.Jobs,
			Skip:       func(p string) bool { return strings.HasSuffix(p, suffix) },
		})
	}
	if err != nil {
		return "", err
	}
	for i := 0; i < files.Len(); i++ {
		r.display = append(r.display, files.DisplayPath(source.FileID(i)))
	}
	buildpipeline.Emit(r.req.Progress, r.display, buildpipeline.StageLoad, buildpipeline.StatusWorking, nil, 0)

	if r.req.Cache != nil && r.req.StopAfter == "" {
		if err := r.restore(); err != nil {
			return "", err
		}
	}
	note := fmt.Sprintf("%d files, %d declarations", files.Len(), len(r.res.Decls))
	if r.res.Cached {
		note += ", cached"
	}
	return note, nil
}

func (r *run) bind() (string, error) {
	b := binder.New(r.res.Env, r.req.Config.Binder)
	b.Insert(r.res.Decls)
	b.Bind()
	st := b.LexerStats()
	return fmt.Sprintf("%d nodes, lexer cache %d/%d", r.res.Env.Tree().Len(), st.Hits, st.Hits+st.Misses), nil
}

func (r *run) analyze() (string, error) {
	return fmt.Sprintf("%d missing converters", analyze.Run(r.res.Env)), nil
}

func (r *run) lint() (string, error) {
	lint.Run(lint.NewContext(r.res.Env, r.req.Config.Binder), r.req.Config.Passes)
	return fmt.Sprintf("%d passes", len(r.req.Config.Passes)), nil
}

func (r *run) generate() (string, error) {
	if r.res.Env.HasError() {
		return "skipped", nil
	}
	units, err := codegen.Generate(r.res.Env, codegen.Options{
		Runtime: r.req.Config.Binder.Runtime,
		Source:  r.req.Config.Binder.Source,
	})
	if err != nil {
		return "", err
	}
	r.res.Units = units
	for _, u := range units {
		f, err := emit.Render(u, r.req.Config.Emit)
		if err != nil {
			return "", err
		}
		dir := r.res.Files.BaseDir()
		if src := r.res.Files.Get(u.Origin.File); src != nil {
			dir = filepath.Dir(filepath.FromSlash(src.Path))
		}
		r.res.Outputs = append(r.res.Outputs, Output{
			Path:    filepath.Join(dir, f.Path),
			Package: f.Package,
			Content: f.Content,
		})
	}
	if err := r.store(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d units", len(units)), nil
}

func (r *run) write() (string, error) {
	if !r.req.Write || r.res.Env.HasError() {
		return "skipped", nil
	}
	for _, out := range r.res.Outputs {
		old, err := os.ReadFile(out.Path)
		if err == nil && bytes.Equal(old, out.Content) {
			continue
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(out.Path), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(out.Path, out.Content, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", out.Path, err)
		}
		r.res.Written = append(r.res.Written, out.Path)
	}
	return fmt.Sprintf("%d written", len(r.res.Written)), nil
}
