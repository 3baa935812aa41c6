package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dataprobe/internal/config"
	"dataprobe/internal/container"

	"github.com/joho/godotenv"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig, version)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting DataProbe %s on port %s", version, appConfig.Server.Port)
	if err := appContainer.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
