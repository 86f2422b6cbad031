package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [dir]",
	Short: "Report diagnostics without writing generated files",
	Long:  `Check runs every stage up to generation and prints diagnostics; nothing is written to disk`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addPipelineFlags(checkCmd)
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	checkCmd.Flags().Bool("warnings-as-errors", false, "exit with a failure status on warnings too")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// runCheck exits non-zero when any diagnostic is an error, or a warning
// under --warnings-as-errors. The cache is never consulted.
func runCheck(cmd *cobra.Command, args []string) error {
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
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
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
	// структурированный вывод не смешиваем с TUI
	mode := globals.ui
	if format != formatPretty {
		mode = uiModeOff
	}
	res, err := runPipeline(cmd.Context(), "cmdforge check", req, mode, globals.quiet)
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd.OutOrStdout(), useColor(cmd, os.Stdout), res, format, fullPath); err != nil {
		return err
	}
	if !globals.quiet && format == formatPretty {
		summarize(cmd.ErrOrStderr(), res, false)
	}
	if globals.timings {
		printTimings(cmd.ErrOrStderr(), res)
	}
	if res.HasErrors() || (warningsAsErrors && res.Env.Warnings() > 0) {
		return errDiagnostics
	}
	return nil
}
