package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariables struct {
	// All variables
	GO_ENV       string
	DB_DRIVER    string // postgres or memory
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET         string
	JWT_ISSUER         string
	JWT_EXPIRY_MINUTES int
	// Redis Configuration
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       string
	// Observability
	LOG_LEVEL  string
	SENTRY_DSN string
	// HTTP
	ALLOWED_ORIGINS string
	CRON_ENABLED    bool
	// Seeding
	ADMIN_EMAIL    string
	ADMIN_PASSWORD string
	// Object storage for profile pictures (any S3-compatible endpoint)
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	SPACES_CDN_URL    string
}

func Get() (*EnvironmentVariables, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	expiry, err := strconv.Atoi(os.Getenv("JWT_EXPIRY_MINUTES"))
	if err != nil || expiry <= 0 {
		expiry = 24 * 60
	}

	envVariables := &EnvironmentVariables{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_DRIVER:    strings.ToLower(getOr("DB_DRIVER", "postgres")),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getOr("DB_HOST", "localhost"),
		DB_PORT:      getOr("DB_PORT", "5432"),
		DB_SSL_MODE:  getOr("DB_SSL_MODE", "disable"),
		PORT:         port,
		// JWT
		JWT_SECRET:         os.Getenv("JWT_SECRET"),
		JWT_ISSUER:         getOr("JWT_ISSUER", "curriculum-tracker"),
		JWT_EXPIRY_MINUTES: expiry,
		// Redis
		REDIS_URL:      os.Getenv("REDIS_URL"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       os.Getenv("REDIS_DB"),
		// Observability
		LOG_LEVEL:  getOr("LOG_LEVEL", "info"),
		SENTRY_DSN: os.Getenv("SENTRY_DSN"),
		// HTTP
		ALLOWED_ORIGINS: getOr("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false",
		// Seeding
		ADMIN_EMAIL:    os.Getenv("ADMIN_EMAIL"),
		ADMIN_PASSWORD: os.Getenv("ADMIN_PASSWORD"),
		// Spaces
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     getOr("SPACES_REGION", "nyc3"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
		SPACES_CDN_URL:    os.Getenv("SPACES_CDN_URL"),
	}

	return envVariables, nil
}

// IsProduction reports whether GO_ENV is production
func (e *EnvironmentVariables) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
