package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ddanilovs/campuslink/internal/client"
	"github.com/ddanilovs/campuslink/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	app, err := client.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
