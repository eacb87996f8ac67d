package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/glucolog/backend/config"
	"github.com/glucolog/backend/internal/api"
	"github.com/glucolog/backend/internal/router"
	"github.com/glucolog/backend/internal/service"
)

// Server represents the HTTP server and its wired dependencies.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New assembles services, handlers and routes into a runnable server.
// The Redis client, S3 config and LLM client are all optional; the
// corresponding features degrade when they are nil.
func New(cfg *config.Config, db *gorm.DB, cache *redis.Client, s3Config *config.S3Config, llm service.LLMClient) *Server {
	authService := service.NewAuthService(db, cfg.JWTSecret)
	readingService := service.NewReadingService(db, cache)
	exportService := service.NewExportService(s3Config)

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Reading: api.NewReadingHandler(readingService),
		Analyze: api.NewAnalyzeHandler(),
		Chat:    api.NewChatHandler(llm, readingService),
		Export:  api.NewExportHandler(readingService, exportService),
	}

	engine := router.SetupRouter(handlers, authService, cfg.CORSOrigins)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}
}

// Handler exposes the routing tree, mainly for tests that drive the
// server through httptest instead of a real listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
