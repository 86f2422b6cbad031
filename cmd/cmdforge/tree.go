package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cmdforge/internal/buildpipeline"
)

var treeCmd = &cobra.Command{
	Use:   "tree [flags] [dir]",
	Short: "Print the namespace tree built from declarations",
	Long:  `Tree binds every declaration and prints each scope's merged command tree with its bindings`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTree,
}

func init() {
	addPipelineFlags(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	globals, err := readGlobalOptions(cmd)
	if err != nil {
		return err
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
	req.StopAfter = buildpipeline.StageBind

	res, err := runPipeline(cmd.Context(), "cmdforge tree", req, uiModeOff, globals.quiet)
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), useColor(cmd, os.Stderr), res, formatPretty, false); err != nil {
		return err
	}
	if err := res.Env.Tree().Dump(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to print tree: %w", err)
	}
	if globals.timings {
		printTimings(cmd.ErrOrStderr(), res)
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}
