package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration (optional; analysis cache degrades without it)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Allowed CORS origins, comma separated
	CORSOrigins []string

	// Export sharing bucket; empty disables S3 uploads
	S3Bucket string
}

// LoadConfig builds a Config from environment variables, falling back to
// Docker secrets for sensitive values in production.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		ServerHost:    getEnv("SERVER_HOST", "0.0.0.0"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "glucolog"),
		DBName:        getEnv("DB_NAME", "glucolog"),
		DBSSLMode:     getEnv("DB_SSL_MODE", "disable"),
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getSecret("REDIS_PASSWORD", "redis_password"),
		DBPassword:    getSecret("DB_PASSWORD", "db_password"),
		JWTSecret:     getSecret("JWT_SECRET", "jwt_secret"),
		S3Bucket:      getEnv("S3_BUCKET_NAME", ""),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", db, err)
		}
		cfg.RedisDB = n
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the values a running server cannot do without are set.
func (c *Config) Validate() error {
	required := map[string]string{
		"DB_HOST":     c.DBHost,
		"DB_PORT":     c.DBPort,
		"DB_USER":     c.DBUser,
		"DB_NAME":     c.DBName,
		"JWT_SECRET":  c.JWTSecret,
		"SERVER_PORT": c.ServerPort,
	}
	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ValidationError{Fields: missing}
	}
	if IsProduction() && c.DBSSLMode == "disable" {
		return fmt.Errorf("DB_SSL_MODE must not be 'disable' in production")
	}
	return nil
}

// ValidationError lists configuration fields that are required but unset.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Fields, ", "))
}

// getEnv returns the environment variable or a default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getSecret prefers the environment variable and falls back to a Docker
// secret file of the given name under SECRETS_DIR (default /run/secrets).
func getSecret(envKey, secretName string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, secretName)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
