/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the equipment withdrawal ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load .env + environment
  2. Build the zap logger
  3. Initialize SQLite store
  4. Connect the optional Redis stock cache
  5. Create ledger, handler, admin gate and router
  6. Schedule the stock audit
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     .env file to load (default: .env if present)
  -port    HTTP server port, overrides APP_PORT
  -db      SQLite database path, overrides DB_PATH
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the stock audit
  4. Close Redis and database connections

EXAMPLES:
  ./server -db="./data/equipment.db"
  REDIS_ADDR=localhost:6379 ./server -port=3000

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warp/equipment-ledger/api"
	"github.com/warp/equipment-ledger/config"
	"github.com/warp/equipment-ledger/logging"
	"github.com/warp/equipment-ledger/store/rediscache"
	"github.com/warp/equipment-ledger/store/sqlite"
	"github.com/warp/equipment-ledger/withdrawal"
)

func main() {
	// Flags
	envFile := flag.String("env", "", "env file to load")
	port := flag.Int("port", 0, "HTTP server port (overrides APP_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logging.Must(logging.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		baseLogger.Fatal("failed to initialize database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	ledger := withdrawal.NewLedger(store, store, logging.Named(baseLogger, "ledger"))

	// Optional Redis stock cache
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			baseLogger.Warn("redis unavailable, stock cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rdb.Close()
		} else {
			ledger.Cache = rediscache.New(rdb, cfg.Redis.Prefix, cfg.Redis.TTL)
			defer rdb.Close()
			baseLogger.Info("stock cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	// Admin gate
	hash := cfg.Admin.PasswordHash
	if hash == "" && cfg.Admin.Password != "" {
		if hash, err = api.HashPassword(cfg.Admin.Password); err != nil {
			baseLogger.Fatal("failed to hash admin password", zap.Error(err))
		}
	}
	gate := api.NewAdminGate(hash, logging.Named(baseLogger, "admin"))
	if !gate.Enabled() {
		baseLogger.Warn("no admin password configured, master data writes are open")
	}

	handler := api.NewHandler(store, ledger, logging.Named(baseLogger, "http"))
	router := api.NewRouter(handler, gate, cfg.Server.CORSOrigins)

	// Stock audit
	audit := api.NewStockAudit(ledger, cfg.Audit.CronSchedule, logging.Named(baseLogger, "audit"))
	if err := audit.Start(); err != nil {
		baseLogger.Fatal("failed to schedule stock audit", zap.Error(err))
	}
	defer audit.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		baseLogger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	baseLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		baseLogger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	baseLogger.Info("server stopped")
}
