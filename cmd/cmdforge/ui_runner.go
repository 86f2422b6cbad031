package main

import (
	"context"
	"os"

	"cmdforge/internal/buildpipeline"
	"cmdforge/internal/compiler"
	"cmdforge/internal/ui"
)

type runOutcome struct {
	result *compiler.Result
	err    error
}

func runWithUI(ctx context.Context, title string, req compiler.Request) (*compiler.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := compiler.Run(ctx, reqCopy)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	uiErr := ui.Run(title, events, os.Stdout)
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

// runPipeline выбирает между TUI и тихим прогоном.
func runPipeline(ctx context.Context, title string, req compiler.Request, mode uiMode, quiet bool) (*compiler.Result, error) {
	if shouldUseTUI(mode, quiet) {
		return runWithUI(ctx, title, req)
	}
	return compiler.Run(ctx, req)
}
