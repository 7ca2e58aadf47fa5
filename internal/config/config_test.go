package config

import (
	"testing"
	"time"

	"go.ngs.io/pollen-api/internal/adapter/store/silam"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SILAM_URL", "SILAM_EMAIL", "STALE_AFTER", "REFRESH_INTERVAL", "FETCH_TIMEOUT",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "FORECAST_HOURS",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SILAMURL != silam.DefaultBaseURL {
		t.Errorf("SILAMURL = %q", cfg.SILAMURL)
	}
	if cfg.SILAMEmail != "" {
		t.Errorf("SILAMEmail = %q, want empty", cfg.SILAMEmail)
	}
	if cfg.StaleAfter != 12*time.Hour || cfg.RefreshInterval != 10*time.Second || cfg.FetchTimeout != 5*time.Minute {
		t.Errorf("durations = %v / %v / %v", cfg.StaleAfter, cfg.RefreshInterval, cfg.FetchTimeout)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Errorf("CORSAllowedOrigins = %v, want nil", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.ForecastHours != 72 {
		t.Errorf("ForecastHours = %d", cfg.ForecastHours)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("SILAM_URL", "file:///tmp/silam.nc")
	t.Setenv("SILAM_EMAIL", "ops@example.com")
	t.Setenv("STALE_AFTER", "6h")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("FORECAST_HOURS", "48")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "3000" || cfg.SILAMURL != "file:///tmp/silam.nc" || cfg.SILAMEmail != "ops@example.com" {
		t.Errorf("unexpected strings: %+v", cfg)
	}
	if cfg.StaleAfter != 6*time.Hour || cfg.RefreshInterval != time.Minute {
		t.Errorf("durations = %v / %v", cfg.StaleAfter, cfg.RefreshInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.ForecastHours != 48 {
		t.Errorf("RateLimitRPS = %v, ForecastHours = %d", cfg.RateLimitRPS, cfg.ForecastHours)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"STALE_AFTER":      "soon",
		"REFRESH_INTERVAL": "-10s",
		"FETCH_TIMEOUT":    "0s",
		"RATE_LIMIT_RPS":   "fast",
		"RATE_LIMIT_BURST": "0",
		"FORECAST_HOURS":   "120",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("%s=%s: expected error", key, value)
			}
		})
	}
}
