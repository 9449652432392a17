package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env        string
	Port       string
	JWTSecret  string
	SessionTTL time.Duration
	UploadsDir string
	Database   DatabaseConfig
	LDAP       LDAPConfig
	Redis      RedisConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Silent   bool
}

// LDAPConfig holds directory server configuration. When Server is empty
// the API falls back to local password authentication.
type LDAPConfig struct {
	Server       string
	BindDN       string
	BindPassword string
	SearchBases  []string
	Domain       string
}

// RedisConfig holds session store configuration. When Addr is empty the
// API keeps sessions in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttlHours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB must be an integer")
	}

	return &Config{
		Env:        getEnv("APP_ENV", "development"),
		Port:       getEnv("PORT", "3001"),
		JWTSecret:  jwtSecret,
		SessionTTL: time.Duration(ttlHours) * time.Hour,
		UploadsDir: getEnv("UPLOADS_DIR", "./uploads"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "transferplus"),
			Silent:   getEnv("DB_SILENT", "false") == "true",
		},
		LDAP: LDAPConfig{
			Server:       os.Getenv("LDAP_SERVER"),
			BindDN:       os.Getenv("LDAP_BIND_DN"),
			BindPassword: os.Getenv("LDAP_BIND_PASSWORD"),
			SearchBases:  splitList(os.Getenv("LDAP_SEARCH_BASES")),
			Domain:       os.Getenv("LDAP_DOMAIN"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList parses a semicolon separated list, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
