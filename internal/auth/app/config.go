package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/otoshop/otoshop/pkg/jwtx"
)

type Config struct {
	Issuer string // Optional: issuer claim for tokens (default: otoshop)

	JWTSecret string // Optional: single HS256 secret, used as generation "k1"
	JWTKeys   string // Optional: "kid:secret,kid:secret"; last entry signs. Wins over JWTSecret

	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 7d)

	CookieSecure  bool // Optional: mark the refresh cookie Secure (default: true outside dev)
	RefreshInBody bool // Optional: also return the refresh token in the login body (default: false)

	SeedAdmin     bool   // Optional: create the default admin on startup (default: true)
	AdminPassword string // Optional: password for the seeded admin (default: admin)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile          string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	return Config{
		Issuer:              getEnvOrDefault("AUTH_ISSUER", "otoshop"),
		JWTSecret:           os.Getenv("AUTH_JWT_SECRET"),
		JWTKeys:             os.Getenv("AUTH_JWT_KEYS"),
		AccessTTL:           getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:          getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		CookieSecure:        getEnvBoolOrDefault("AUTH_COOKIE_SECURE", env != "dev"),
		RefreshInBody:       getEnvBoolOrDefault("AUTH_REFRESH_IN_BODY", false),
		SeedAdmin:           getEnvBoolOrDefault("AUTH_SEED_ADMIN", true),
		AdminPassword:       getEnvOrDefault("AUTH_ADMIN_PASSWORD", "admin"),
		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:          getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports configuration that must stop startup.
func (c Config) Validate() error {
	var errs []error

	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TTL must be positive"))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("AUTH_REFRESH_TTL must be positive"))
	}
	if c.RefreshTTL > 0 && c.AccessTTL > c.RefreshTTL {
		errs = append(errs, errors.New("AUTH_ACCESS_TTL must not exceed AUTH_REFRESH_TTL"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.Env == "prod" && c.JWTSecret == "" && c.JWTKeys == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET or AUTH_JWT_KEYS is required in prod"))
	}
	if c.SeedAdmin && c.AdminPassword == "" {
		errs = append(errs, errors.New("AUTH_ADMIN_PASSWORD must not be empty when seeding"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
