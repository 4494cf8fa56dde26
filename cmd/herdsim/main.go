package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"herd-sim/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, newViewCommand); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		os.Exit(1)
	}
}
