package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvallerand/footgraph/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cli.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
