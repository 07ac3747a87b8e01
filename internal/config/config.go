package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// JWT settings
	JWTSecret string

	// Token lifetimes
	AuthCodeExpiration     time.Duration // authorization code lifetime (default: 10m)
	AccessTokenExpiration  time.Duration // access token lifetime (default: 1h)
	RefreshTokenExpiration time.Duration // refresh token lifetime (default: 720h = 30 days)

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Redis (optional; used for rate limiting when set)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitEnabled bool
	RateLimitRate    string // ulule/limiter formatted rate, e.g. "60-M"

	// Metrics
	MetricsEnabled bool

	// Audit
	AuditEnabled    bool          // write audit logs (default: true)
	AuditBufferSize int           // audit channel capacity (default: 1000)
	AuditRetention  time.Duration // how long audit rows are kept (default: 2160h = 90 days)

	// Maintenance
	SweepInterval time.Duration // expired token sweep cadence (default: 10m)

	// Registration
	OpenRegistration bool // allow unauthenticated dynamic client registration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "authcore.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:  getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),

		AuthCodeExpiration:     getEnvDuration("AUTH_CODE_EXPIRATION", 10*time.Minute),
		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", time.Hour),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 720*time.Hour),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRate:    getEnv("RATE_LIMIT_RATE", "60-M"),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		AuditEnabled:    getEnvBool("AUDIT_ENABLED", true),
		AuditBufferSize: getEnvInt("AUDIT_BUFFER_SIZE", 1000),
		AuditRetention:  getEnvDuration("AUDIT_RETENTION", 2160*time.Hour),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),

		OpenRegistration: getEnvBool("OPEN_REGISTRATION", true),
	}
}

// Validate checks settings that would make the server unusable or unsafe
func (c *Config) Validate() error {
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is required for driver %s", c.DatabaseDriver)
	}
	if strings.Contains(c.JWTSecret, "change-in-production") && os.Getenv("GIN_MODE") == "release" {
		return fmt.Errorf("JWT_SECRET must be set in release mode")
	}
	if c.AccessTokenExpiration <= 0 || c.RefreshTokenExpiration <= 0 || c.AuthCodeExpiration <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
