package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/triagekit/triage/pkg/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cobra has already reported the error
	if err := cli.ExecuteWithVersion(ctx, version); err != nil {
		stop()
		os.Exit(1)
	}
}
