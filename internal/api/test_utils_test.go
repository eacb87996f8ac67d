package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/glucolog/backend/internal/api"
	"github.com/glucolog/backend/internal/database"
	"github.com/glucolog/backend/internal/middleware"
	"github.com/glucolog/backend/internal/models"
	"github.com/glucolog/backend/internal/router"
	"github.com/glucolog/backend/internal/service"
)

// MockLLM is a canned LLMClient for handler tests.
type MockLLM struct {
	Reply    string
	Err      error
	LastSent string
}

func (m *MockLLM) Chat(ctx context.Context, message string) (string, error) {
	m.LastSent = message
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// TestEnv holds the in-memory database and wired services for one test.
type TestEnv struct {
	DB          *gorm.DB
	AuthService *service.AuthService
	Readings    *service.ReadingService
	LLM         *MockLLM
	Router      *gin.Engine
}

// SetupTestEnv builds the full router over an in-memory SQLite database.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A single connection keeps every query on the same in-memory store.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	authService := service.NewAuthService(db, "test-secret")
	readingService := service.NewReadingService(db, nil)
	mockLLM := &MockLLM{Reply: "test reply"}

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Reading: api.NewReadingHandler(readingService),
		Analyze: api.NewAnalyzeHandler(),
		Chat:    api.NewChatHandler(mockLLM, readingService),
		Export:  api.NewExportHandler(readingService, service.NewExportService(nil)),
	}

	var validator middleware.TokenValidator = authService
	engine := router.SetupRouter(handlers, validator, []string{"http://localhost:3000"})

	return &TestEnv{
		DB:          db,
		AuthService: authService,
		Readings:    readingService,
		LLM:         mockLLM,
		Router:      engine,
	}
}

// CreateTestUser inserts a user and returns its id and a valid token.
func (e *TestEnv) CreateTestUser(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()

	token, err := e.AuthService.Register("Test User", email, "password123")
	if err != nil {
		t.Fatalf("failed to register test user: %v", err)
	}
	claims, err := e.AuthService.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate test token: %v", err)
	}
	return claims.UserID, token
}

// CreateTestReading persists a reading directly through the service.
func (e *TestEnv) CreateTestReading(t *testing.T, userID uuid.UUID, input service.ReadingInput) *models.Reading {
	t.Helper()

	reading, err := e.Readings.Create(context.Background(), userID, input)
	if err != nil {
		t.Fatalf("failed to create test reading: %v", err)
	}
	return reading
}

// PerformRequest issues a request against the test router, optionally with a
// JSON body and bearer token.
func (e *TestEnv) PerformRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
