// Package config loads cmdforge.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"cmdforge/internal/binder"
	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/emit"
	"cmdforge/internal/lint"
	"cmdforge/internal/pattern"
	"cmdforge/internal/suggest"
)

// FileName is looked up from the target directory upwards.
const FileName = "cmdforge.toml"

type Config struct {
	Generate    GenerateConfig    `toml:"generate"`
	Lexer       LexerConfig       `toml:"lexer"`
	Lint        LintConfig        `toml:"lint"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`

	// Path is the file the configuration came from; "" for defaults.
	Path string `toml:"-"`
}

type GenerateConfig struct {
	RuntimePackage string `toml:"runtime_package"`
	SourceType     string `toml:"source_type"`
	FileSuffix     string `toml:"file_suffix"`
	Header         string `toml:"header"`
}

type LexerConfig struct {
	CommandAliases string `toml:"command_aliases"`
	BindAliases    string `toml:"bind_aliases"`
}

type LintConfig struct {
	Passes []string `toml:"passes"`
}

type DiagnosticsConfig struct {
	Max int `toml:"max"`
}

func Default() Config {
	return Config{
		Generate: GenerateConfig{
			RuntimePackage: binder.DefaultRuntime,
			FileSuffix:     emit.DefaultSuffix,
		},
		Lexer: LexerConfig{
			CommandAliases: pattern.Unrestricted.String(),
			BindAliases:    pattern.FirstTokenOnly.String(),
		},
		Diagnostics: DiagnosticsConfig{Max: 100},
	}
}

// Error is a configuration problem with its diagnostic code.
type Error struct {
	Path string
	Code diag.Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code.ID(), e.Msg)
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest configuration above startDir, or the
// defaults when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads one file over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		key := undecoded[0].String()
		msg := fmt.Sprintf("unknown key %q", key)
		if hint := suggest.Closest(key, knownKeys); hint != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", hint)
		}
		return Config{}, &Error{Path: path, Code: diag.CfgUnknownKey, Msg: msg}
	}
	cfg.Path = path
	if _, err := cfg.Resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var knownKeys = []string{
	"generate", "generate.runtime_package", "generate.source_type", "generate.file_suffix", "generate.header",
	"lexer", "lexer.command_aliases", "lexer.bind_aliases",
	"lint", "lint.passes",
	"diagnostics", "diagnostics.max",
}

// Resolved is the configuration in the form the pipeline consumes.
type Resolved struct {
	Binder         binder.Options
	Passes         []*lint.Pass
	Emit           emit.Options
	MaxDiagnostics int
}

// Resolve validates values and converts them.
func (c Config) Resolve() (Resolved, error) {
	fail := func(code diag.Code, format string, args ...any) (Resolved, error) {
		return Resolved{}, &Error{Path: c.Path, Code: code, Msg: fmt.Sprintf(format, args...)}
	}
	var r Resolved
	r.Binder = binder.Options{Runtime: strings.TrimSpace(c.Generate.RuntimePackage)}
	if s := strings.TrimSpace(c.Generate.SourceType); s != "" {
		t, err := element.ParseTypeRef(s)
		if err != nil {
			return fail(diag.CfgBadValue, "generate.source_type: %v", err)
		}
		r.Binder.Source = t
	}
	var err error
	if r.Binder.CommandPolicy, err = pattern.ParsePolicy(c.Lexer.CommandAliases); err != nil {
		return fail(diag.CfgBadPolicy, "lexer.command_aliases: %v", err)
	}
	if r.Binder.BindPolicy, err = pattern.ParsePolicy(c.Lexer.BindAliases); err != nil {
		return fail(diag.CfgBadPolicy, "lexer.bind_aliases: %v", err)
	}
	r.Binder = r.Binder.Normalized()

	if r.Passes, err = lint.Lookup(c.Lint.Passes); err != nil {
		return fail(diag.CfgUnknownLint, "lint.passes: %v", err)
	}
	if c.Diagnostics.Max < 0 {
		return fail(diag.CfgBadValue, "diagnostics.max must not be negative, got %d", c.Diagnostics.Max)
	}
	r.MaxDiagnostics = c.Diagnostics.Max
	suffix := c.Generate.FileSuffix
	if suffix != "" && !strings.HasSuffix(suffix, ".go") {
		return fail(diag.CfgBadValue, "generate.file_suffix %q must end in .go", suffix)
	}
	r.Emit = emit.Options{Suffix: suffix, Header: c.Generate.Header}
	return r, nil
}
