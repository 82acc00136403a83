package main

import (
	"context"
	"log"

	"github.com/campusnotes/campusnotes/internal/identity/app"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; env vars win in deployment.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
