package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"emberfall/server/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.DefaultConfig()); err != nil {
		log.Fatalf("%v", err)
	}
}
