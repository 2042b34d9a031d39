package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	DatabasePath    string
	UploadDir       string
	JWTSecret       string
	TokenTTL        time.Duration
	AllowedOrigins  []string
	SeedCategories  []string
	DefaultPageSize int
	MaxPageSize     int
}

// Load loads configuration from the environment (and a .env file when
// present) or sets defaults.
func Load() (*Config, error) {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ttlDays, err := strconv.Atoi(getEnv("TOKEN_TTL_DAYS", "7"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:      port,
		DatabasePath:    getEnv("DATABASE_PATH", "./inkwell.db"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        time.Duration(ttlDays) * 24 * time.Hour,
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGIN", "http://localhost:3000")),
		SeedCategories:  splitList(getEnv("SEED_CATEGORIES", "")),
		DefaultPageSize: 6,
		MaxPageSize:     50,
	}
	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
