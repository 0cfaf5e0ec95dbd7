package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/raid-guild/x402-tip-links/bootstrap"
)

func main() {
	// Load .env for local development, the environment wins over the file
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap api runtime: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run api: %v", err)
	}
}
