package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/genrestats/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "genrestats",
		Usage:    "Collect, aggregate and validate Spotify genre statistics",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		if stage := shared.Stage(err); stage != "" {
			logger.Fatal("run failed", "stage", stage, "error", err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
