// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go.ngs.io/pollen-api/internal/adapter/store/silam"
	"go.ngs.io/pollen-api/internal/scheduler"
	"go.ngs.io/pollen-api/internal/usecase"
)

// Config holds the server settings.
type Config struct {
	Port string

	SILAMURL   string // NCSS endpoint or file:// path
	SILAMEmail string // optional, sent to the data provider

	StaleAfter      time.Duration
	RefreshInterval time.Duration
	FetchTimeout    time.Duration

	CORSAllowedOrigins []string // empty allows all origins

	RateLimitRPS   float64
	RateLimitBurst int

	ForecastHours int
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from environment variables, applying defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		SILAMURL:   getEnv("SILAM_URL", silam.DefaultBaseURL),
		SILAMEmail: os.Getenv("SILAM_EMAIL"),
	}

	var err error
	if cfg.StaleAfter, err = getDuration("STALE_AFTER", usecase.DefaultStaleAfter); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration("REFRESH_INTERVAL", scheduler.DefaultInterval); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", usecase.DefaultFetchTimeout); err != nil {
		return nil, err
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	rps := getEnv("RATE_LIMIT_RPS", "20")
	if cfg.RateLimitRPS, err = strconv.ParseFloat(rps, 64); err != nil || cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", rps)
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.ForecastHours, err = getInt("FORECAST_HOURS", usecase.DefaultForecastHours); err != nil {
		return nil, err
	}
	if cfg.ForecastHours > silam.MinTimeSteps {
		return nil, fmt.Errorf("FORECAST_HOURS must not exceed %d", silam.MinTimeSteps)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}
