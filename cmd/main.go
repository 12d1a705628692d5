package main

import (
	"context"
	"log"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/app"
	"github.com/fjod/go_cart/shop-service/internal/config"
)

func main() {
	log.Println("shop-service starting...")

	cfg := config.MustLoad()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("Stopped with error: %v", err)
	}
}
