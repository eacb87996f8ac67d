package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glucolog/backend/config"
	"github.com/glucolog/backend/internal/database"
	"github.com/glucolog/backend/internal/server"
	"github.com/glucolog/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Optional collaborators: a missing one disables its feature, it does
	// not prevent startup.
	cache, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, analysis cache disabled: %v", err)
		cache = nil
	}

	s3Config, err := config.NewS3Config(context.Background(), cfg.S3Bucket)
	if err != nil {
		log.Printf("S3 unavailable, export sharing disabled: %v", err)
		s3Config = nil
	}

	var llm service.LLMClient
	if llmService, err := service.NewLLMService(); err != nil {
		log.Printf("Language model unavailable, chat degraded: %v", err)
	} else {
		llm = llmService
	}

	srv := server.New(cfg, db, cache, s3Config, llm)

	errChan := make(chan error, 1)
	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
