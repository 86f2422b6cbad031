package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cmdforge/internal/compiler"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [dir]",
	Short: "Generate command builders for a package",
	Long: `Generate scans a Go package (or a YAML manifest) for command declarations
and writes one builder file next to every declaring type`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	addPipelineFlags(generateCmd)
	generateCmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json|sarif)")
	generateCmd.Flags().Bool("dry-run", false, "print generated files instead of writing them")
	generateCmd.Flags().Bool("watch", false, "regenerate on every source change until interrupted")
	generateCmd.Flags().Bool("no-cache", false, "disable the persistent result cache")
	generateCmd.Flags().Bool("fullpath", false, "emit absolute file paths in diagnostics")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	globals, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readDiagFormat(formatValue)
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if watch && dryRun {
		return fmt.Errorf("--watch and --dry-run cannot be used together")
	}

	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}
	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	req.Write = !dryRun
	req.Cache = openCache(cmd, globals.quiet)

	if watch {
		return watchGenerate(cmd, req, format, globals, fullPath)
	}

	res, err := runPipeline(cmd.Context(), "cmdforge generate", req, globals.ui, globals.quiet)
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), useColor(cmd, os.Stderr), res, format, fullPath); err != nil {
		return err
	}
	if dryRun && !res.HasErrors() {
		if err := printOutputs(cmd, res.Outputs); err != nil {
			return err
		}
	}
	if !globals.quiet && format == formatPretty {
		summarize(cmd.ErrOrStderr(), res, !dryRun)
	}
	if globals.timings {
		printTimings(cmd.ErrOrStderr(), res)
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func watchGenerate(cmd *cobra.Command, req compiler.Request, format diagFormat, globals globalOptions, fullPath bool) error {
	out := cmd.ErrOrStderr()
	if !globals.quiet {
		fmt.Fprintf(out, "watching %s (Ctrl-C to stop)\n", configStart(req))
	}
	var printErr error
	err := compiler.Watch(cmd.Context(), req, func(res *compiler.Result, runErr error) {
		if runErr != nil {
			if !errors.Is(runErr, cmd.Context().Err()) {
				fmt.Fprintf(out, "error: %v\n", runErr)
			}
			return
		}
		if err := printDiagnostics(cmd.ErrOrStderr(), useColor(cmd, os.Stderr), res, format, fullPath); err != nil && printErr == nil {
			printErr = err
		}
		if !globals.quiet {
			fmt.Fprintf(out, "[%s] ", time.Now().Format(time.TimeOnly))
			summarize(out, res, true)
		}
		if globals.timings {
			printTimings(out, res)
		}
	})
	if err != nil {
		return err
	}
	return printErr
}

func printOutputs(cmd *cobra.Command, outputs []compiler.Output) error {
	w := cmd.OutOrStdout()
	for i, o := range outputs {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "// ==> %s <==\n", o.Path); err != nil {
			return err
		}
		if _, err := w.Write(o.Content); err != nil {
			return err
		}
	}
	return nil
}
