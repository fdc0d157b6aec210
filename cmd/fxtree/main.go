// Command fxtree multiplies a batch of complex fixed-point values through a
// balanced binary tree whose layer widths grow so that no product overflows.
//
// Usage:
//
//	fxtree                                  # reduce the built-in 8-value sample
//	fxtree -values '(1,0),(0,1)' -width 4   # reduce inline values
//	fxtree -inputs batch.yaml -backend parallel -compare emulator
//	fxtree -server -port 8080               # serve POST /reduce
//	fxtree -calibrate                       # time the parallel backend's thresholds
package main

import (
	"context"
	"os"

	"github.com/agbru/fxtree/internal/app"
	apperrors "github.com/agbru/fxtree/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}

	app.ConfigureLogging(application.Config, os.Stderr)
	os.Exit(application.Run(context.Background(), os.Stdout))
}
