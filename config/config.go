package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	// DataDir is the root for file-based caches (institutional JSON
	// tables, the SQLite bar store).
	DataDir string

	// Worker pool sizes for the daily scanners and the intraday scanner.
	ScanWorkers     int
	IntradayWorkers int

	// Cache lifetimes. Market TTLs apply while the session is open,
	// off-hours TTLs apply otherwise.
	ScanTTLMarket     time.Duration
	ScanTTLOffHours   time.Duration
	IntradayTTLMarket time.Duration
	IntradayTTLOff    time.Duration

	// HTTPTimeout bounds every outbound data-source request.
	HTTPTimeout time.Duration

	// CategoryOverridePath points at the YAML file of manual
	// symbol-to-sector overrides. Optional.
	CategoryOverridePath string
}

var AppConfig *Config

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		DataDir:              getEnv("DATA_DIR", "data"),
		ScanWorkers:          getEnvInt("SCAN_WORKERS", 50),
		IntradayWorkers:      getEnvInt("INTRADAY_WORKERS", 20),
		ScanTTLMarket:        getEnvDuration("SCAN_TTL_MARKET", 5*time.Minute),
		ScanTTLOffHours:      getEnvDuration("SCAN_TTL_OFF_HOURS", time.Hour),
		IntradayTTLMarket:    getEnvDuration("INTRADAY_TTL_MARKET", 90*time.Second),
		IntradayTTLOff:       getEnvDuration("INTRADAY_TTL_OFF_HOURS", 30*time.Minute),
		HTTPTimeout:          getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		CategoryOverridePath: getEnv("CATEGORY_OVERRIDE_PATH", "config/categories.yaml"),
	}

	AppConfig = config
	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
