// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"vitrine_backend/internal/config"
	"vitrine_backend/internal/platform/database"
	"vitrine_backend/internal/platform/logger"
	"vitrine_backend/internal/session"

	"go.uber.org/zap"
)

func main() {
	purgeSessionsCmd := flag.NewFlagSet("purge-sessions", flag.ExitOnError)

	if len(os.Args) > 1 && os.Args[1] == "purge-sessions" {
		purgeSessionsCmd.Parse(os.Args[2:])

		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("FATAL: Failed to load configuration for purge: %v", err)
		}
		appLogger, err := logger.New(cfg)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger for purge: %v", err)
		}
		db, err := database.NewGORM(cfg)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to initialize database for purge", zap.Error(err))
		}
		sqlDB, _ := db.DB()
		defer sqlDB.Close()

		store := session.NewStore(session.NewGORMRepository(db), cfg, appLogger)
		purged, err := store.SweepExpired(context.Background())
		if err != nil {
			appLogger.Fatal("FATAL: Session purge failed", zap.Error(err))
		}
		appLogger.Info("Session purge completed successfully.", zap.Int64("sessions_purged", purged))
		return
	}

	// Default: Start server
	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	}

	log.Println("INFO: Server exiting.")
}
