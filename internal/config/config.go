package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the env file named by CONSCIENCE_ENV (".env" when unset) and
// then its .secret sidecar if one exists. Missing files are not an error;
// after loading, all config is flat env vars read through os.Getenv.
func Load() error {
	envFile := os.Getenv("CONSCIENCE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// stringEnv returns the variable's value, or fallback when unset.
func stringEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// intEnv returns the variable parsed as a positive int, or fallback.
func intEnv(name string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// floatEnv returns the variable parsed as a positive float, or fallback.
func floatEnv(name string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

// durationEnv returns the variable parsed as a positive duration, or fallback.
func durationEnv(name string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(name))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ServerPort is the port the HTTP server listens on. Defaults to 8080.
func ServerPort() int {
	return intEnv("SERVER_PORT", 8080)
}

// ServerAddr renders ServerPort as a listen address.
func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DataDir is the base directory holding the per-layer memory indices.
// Defaults to "./data".
func DataDir() string {
	return stringEnv("DATA_DIR", "./data")
}

// DatabaseURL is the Postgres URL backing rule persistence. Empty means
// rules live in memory only for the process lifetime.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the static bearer key protecting the API routes. Empty means
// the routes are served without authentication.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS is the sustained per-IP request rate. Defaults to 100.
func RateLimitRPS() float64 {
	return floatEnv("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst is the per-IP burst allowance. Defaults to 20.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// OptimizeInterval is how often the index optimizer sweeps the layers.
// Defaults to 1h.
func OptimizeInterval() time.Duration {
	return durationEnv("FTS_OPTIMIZE_INTERVAL", time.Hour)
}

// LogLevel selects the zap level (debug, info, warn, error). Defaults to
// "info".
func LogLevel() string {
	return stringEnv("LOG_LEVEL", "info")
}
