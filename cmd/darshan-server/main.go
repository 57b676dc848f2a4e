package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mandirapp/daily-darshan/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
