package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cmdforge/internal/cache"
	"cmdforge/internal/source"
)

// fingerprint lists every setting that changes the output.
func (r *run) fingerprint() []string {
	cfg := r.req.Config
	passes := make([]string, len(cfg.Passes))
	for i, p := range cfg.Passes {
		passes[i] = p.Name
	}
	return []string{
		"tool=" + r.req.Fingerprint,
		"manifest=" + strconv.FormatBool(r.req.Manifest != ""),
		"import=" + r.req.ImportPath,
		"runtime=" + cfg.Binder.Runtime,
		"source=" + cfg.Binder.Source.Key(),
		"aliases=" + cfg.Binder.CommandPolicy.String() + "/" + cfg.Binder.BindPolicy.String(),
		"passes=" + strings.Join(passes, ","),
		"suffix=" + cfg.Emit.Suffix,
		"header=" + cfg.Emit.Header,
		"max=" + strconv.Itoa(cfg.MaxDiagnostics),
	}
}

func (r *run) key() cache.Digest {
	return cache.Key(r.res.Files, r.fingerprint()...)
}

// restore replaces the run's log and outputs with a cached payload.
// Loading is deterministic, so the cached log already holds the
// diagnostics this load reported.
func (r *run) restore() error {
	var p cache.Payload
	ok, err := r.req.Cache.Get(r.key(), &p)
	if err != nil || !ok {
		// битый кэш не должен ломать сборку
		return nil
	}
	if len(p.Inputs) != r.res.Files.Len() {
		return nil
	}
	for i, path := range p.Inputs {
		if r.res.Files.Get(source.FileID(i)).Path != path {
			return nil
		}
	}
	e := r.res.Env
	e.Reset()
	rep := e.Reporter()
	for _, d := range p.Diagnostics {
		rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
	for _, f := range p.Files {
		r.res.Outputs = append(r.res.Outputs, Output{Path: f.Path, Package: f.Package, Content: f.Content})
	}
	r.res.Cached = true
	return nil
}

// store saves an error-free run.
func (r *run) store() error {
	if r.req.Cache == nil || r.res.Env.HasError() {
		return nil
	}
	p := &cache.Payload{Diagnostics: r.res.Env.Diagnostics().Items()}
	for i := 0; i < r.res.Files.Len(); i++ {
		p.Inputs = append(p.Inputs, r.res.Files.Get(source.FileID(i)).Path)
	}
	for _, out := range r.res.Outputs {
		p.Files = append(p.Files, cache.Entry{Path: out.Path, Package: out.Package, Content: out.Content})
	}
	if err := r.req.Cache.Put(r.key(), p); err != nil {
		return fmt.Errorf("failed to update cache: %w", err)
	}
	return nil
}
