package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/aptedu/scholarx/app/client"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := client.Initialize(ctx)

	client.Start(ctx, app)
}
