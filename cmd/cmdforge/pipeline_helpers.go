package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cmdforge/internal/cache"
	"cmdforge/internal/compiler"
	"cmdforge/internal/config"
	"cmdforge/internal/version"
)

// cacheApp names the directory under the user cache root.
const cacheApp = "cmdforge"

// addPipelineFlags registers the flags shared by generate, check and tree.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("manifest", "", "read declarations from a YAML manifest instead of Go sources")
	cmd.Flags().BoolP("recursive", "r", false, "scan sub-packages too")
	cmd.Flags().String("import-path", "", "import path of the scanned package (default: derived from go.mod)")
	cmd.Flags().Int("jobs", 0, "max parallel file parsers (0=auto)")
}

type globalOptions struct {
	quiet   bool
	timings bool
	ui      uiMode
}

func readGlobalOptions(cmd *cobra.Command) (globalOptions, error) {
	var opts globalOptions
	var err error
	flags := cmd.Root().PersistentFlags()
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	return opts, nil
}

// buildRequest reads the pipeline flags and the configuration into a
// compiler request. Flags win over cmdforge.toml.
func buildRequest(cmd *cobra.Command, args []string) (compiler.Request, error) {
	var req compiler.Request
	req.Dir = "."
	if len(args) > 0 {
		req.Dir = args[0]
	}

	var err error
	if req.Manifest, err = cmd.Flags().GetString("manifest"); err != nil {
		return req, fmt.Errorf("failed to get manifest flag: %w", err)
	}
	if req.Recursive, err = cmd.Flags().GetBool("recursive"); err != nil {
		return req, fmt.Errorf("failed to get recursive flag: %w", err)
	}
	if req.ImportPath, err = cmd.Flags().GetString("import-path"); err != nil {
		return req, fmt.Errorf("failed to get import-path flag: %w", err)
	}
	if req.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return req, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if req.Jobs < 0 {
		return req, fmt.Errorf("--jobs must not be negative, got %d", req.Jobs)
	}

	if req.Manifest == "" {
		st, err := os.Stat(req.Dir)
		if err != nil {
			return req, fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			return req, fmt.Errorf("%s is not a directory", req.Dir)
		}
	}

	cfg, err := loadConfig(cmd, configStart(req))
	if err != nil {
		return req, err
	}
	if req.Config, err = cfg.Resolve(); err != nil {
		return req, err
	}
	req.Fingerprint = version.Fingerprint()
	return req, nil
}

func configStart(req compiler.Request) string {
	if req.Manifest != "" {
		return filepath.Dir(req.Manifest)
	}
	return req.Dir
}

// loadConfig honours --config, otherwise discovers cmdforge.toml upwards
// from dir. --max-diagnostics overrides the file only when set explicitly.
func loadConfig(cmd *cobra.Command, dir string) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(dir)
	}
	if err != nil {
		return config.Config{}, err
	}
	if flags.Changed("max-diagnostics") {
		if cfg.Diagnostics.Max, err = flags.GetInt("max-diagnostics"); err != nil {
			return config.Config{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	return cfg, nil
}

// openCache returns nil when the cache is disabled or unavailable; a
// broken cache never fails the run.
func openCache(cmd *cobra.Command, quiet bool) *cache.Cache {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil || noCache {
		return nil
	}
	c, err := cache.Open(cacheApp)
	if err != nil {
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache disabled: %v\n", err)
		}
		return nil
	}
	return c
}
