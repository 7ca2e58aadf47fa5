// Package main provides the pollen API HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.ngs.io/pollen-api/internal/adapter/store/silam"
	"go.ngs.io/pollen-api/internal/adapter/timezone"
	"go.ngs.io/pollen-api/internal/config"
	httpHandler "go.ngs.io/pollen-api/internal/http"
	"go.ngs.io/pollen-api/internal/scheduler"
	"go.ngs.io/pollen-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("pollen-api version %s\n", version)
		return
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting Pollen API server...")
	log.Printf("Port: %s", cfg.Port)
	log.Printf("SILAM source: %s", cfg.SILAMURL)
	log.Printf("Snapshot stale after %s, checked every %s", cfg.StaleAfter, cfg.RefreshInterval)

	client := silam.NewClient(silam.ClientConfig{
		BaseURL: cfg.SILAMURL,
		Email:   cfg.SILAMEmail,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without an initial snapshot there is nothing to serve.
	cache, err := usecase.NewSnapshotCache(ctx, client, usecase.CacheConfig{
		StaleAfter:   cfg.StaleAfter,
		FetchTimeout: cfg.FetchTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to load initial forecast: %v", err)
	}

	refresher := scheduler.New(cache, cfg.RefreshInterval)
	if err := refresher.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer refresher.Stop()

	zones, err := timezone.NewFinder()
	if err != nil {
		log.Fatalf("Failed to load time zones: %v", err)
	}

	forecastUC := usecase.NewForecastUseCase(cache, zones, cfg.ForecastHours)

	// Setup router.
	router := httpHandler.SetupRouter(forecastUC, cache, httpHandler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		log.Printf("Health check: http://localhost:%s/health", cfg.Port)
		log.Printf("API endpoints:")
		log.Printf("  - GET /v1/pollen")
		log.Printf("  - GET /metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Pollen API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  pollen-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from .env):")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  SILAM_URL               SILAM NCSS endpoint or file:// path (default: FMI THREDDS)")
	fmt.Println("  SILAM_EMAIL             Contact e-mail sent to the data provider (optional)")
	fmt.Println("  STALE_AFTER             Snapshot lifetime (default: 12h)")
	fmt.Println("  REFRESH_INTERVAL        Staleness check interval (default: 10s)")
	fmt.Println("  FETCH_TIMEOUT           Timeout for one download (default: 5m)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  RATE_LIMIT_RPS          API requests per second, 0 disables (default: 20)")
	fmt.Println("  RATE_LIMIT_BURST        API burst size (default: 40)")
	fmt.Println("  FORECAST_HOURS          Length of returned series (default: 72)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  pollen-api")
	fmt.Println()
	fmt.Println("  # Serve a generated grid")
	fmt.Println("  go run ./cmd/grid-generator -out ./data/silam/pollen.nc")
	fmt.Println("  SILAM_URL=file://$PWD/data/silam/pollen.nc pollen-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                          Health check and snapshot status")
	fmt.Println("  GET /v1/pollen?lat=&lon=[&tz=]       72-hour pollen forecast")
	fmt.Println("  GET /metrics                         Prometheus metrics")
	fmt.Println()
}
