// Package main provides the cross-section API HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.ngs.io/xsec-api/internal/app"
	"go.ngs.io/xsec-api/internal/config"
	httpHandler "go.ngs.io/xsec-api/internal/http"
	"go.ngs.io/xsec-api/internal/logging"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("xsec-api version %s\n", version)
		return
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	logging.Info("Starting cross-section API server",
		"version", version,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"hitran", cfg.HITRANBaseURL)

	a, err := app.New(cfg)
	if err != nil {
		logging.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error("Failed to close line store", "error", err)
		}
	}()

	if cfg.TableName != "" {
		logging.Warn("All fetches share one table, concurrent queries are serialized", "table", cfg.TableName)
	}

	// Setup router.
	router := httpHandler.SetupRouter(a.UseCase, httpHandler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Upstream fetches can take as long as the HITRAN timeout.
		WriteTimeout: cfg.HITRANTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info("Server listening", "addr", server.Addr)
		logging.Info("API endpoints",
			"xsec", "GET /v1/xsec",
			"spectrum", "GET /v1/spectrum",
			"isotopologues", "GET /v1/isotopologues",
			"tables", "GET|DELETE /v1/tables",
			"health", "GET /health",
			"metrics", "GET /metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
		}
		return
	}
	logging.Info("Server exited gracefully")
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Cross-section API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  xsec-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -env PATH      Load environment from PATH (default: .env, ignored if missing)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_DIR                Line table directory (default: ./data)")
	fmt.Println("  STORE_BACKEND           local or sqlite (default: local)")
	fmt.Println("  SQLITE_PATH             SQLite database path (default: $DATA_DIR/lines.db)")
	fmt.Println("  HITRAN_BASE_URL         HITRAN server (default: https://hitran.org)")
	fmt.Println("  HITRAN_API_KEY          HITRAN API key")
	fmt.Println("  HITRAN_TIMEOUT          Upstream request timeout (default: 2m)")
	fmt.Println("  HITRAN_RATE             Upstream requests per second (default: 1)")
	fmt.Println("  XSEC_TABLE              Fetch every request into this one table (optional)")
	fmt.Println("  ISOTOPOLOGUES_PATH      JSON file of additional isotopologues (optional)")
	fmt.Println("  PARTITION_SUMS_PATH     JSON file of tabulated partition sums (optional)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println("  LOG_FORMAT              text or json (default: text)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  RATE_LIMIT_RPS          Per-client token refill rate, 0 disables (default: 5)")
	fmt.Println("  RATE_LIMIT_BURST        Per-client token bucket size (default: 20)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  xsec-api")
	fmt.Println()
	fmt.Println("  # Start server on custom port with a SQLite store")
	fmt.Println("  PORT=3000 STORE_BACKEND=sqlite xsec-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET    /health               Health check")
	fmt.Println("  GET    /metrics              Prometheus metrics")
	fmt.Println("  GET    /v1/xsec              Cross section at one wavelength")
	fmt.Println("  GET    /v1/spectrum          Absorption coefficient over a window")
	fmt.Println("  GET    /v1/isotopologues     List known isotopologues")
	fmt.Println("  GET    /v1/tables            List stored line tables")
	fmt.Println("  DELETE /v1/tables/:name      Drop a stored line table")
	fmt.Println()
}
