/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timeportal server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load TOML config
  2. Initialize SQLite store (cache, documents, mirror)
  3. Start the background sync worker
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  TOML config file path (optional, defaults apply without it)
  -listen  Listen address, overrides config (default from config: :8080)
  -db      SQLite database path, overrides config
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Drain the sync worker queue
  4. Close the database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/timeportal.db"

  # Run with a config file
  ./server -config=timeportal.toml

  # Run on a different port
  ./server -listen=:3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/timeportal/api"
	"github.com/warp/timeportal/config"
	"github.com/warp/timeportal/entry"
	"github.com/warp/timeportal/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "TOML config file path")
	listen := flag.String("listen", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Background worker mirroring entry edits into the database
	syncer := entry.NewSyncer(store, cfg.SyncAttempts, cfg.SyncBackoffDuration())
	syncer.Start()
	defer syncer.Stop()

	// Initialize handler and router
	handler := api.NewHandler(cfg, store.Cache(), store, syncer)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Listen)
		log.Printf("API available at http://localhost%s/api", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
