// Package main provides the entry point for the curator CLI tool.
package main

import (
	"context"
	"os"

	"github.com/openshelf/curator/cmd/curator/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	application, err := app.New(version, commit, date)
	if err != nil {
		app.ExitOnError(err)
	}

	// Signal-aware context so a Ctrl-C ends the run gracefully: workers
	// drain, already-applied results stay committed.
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
