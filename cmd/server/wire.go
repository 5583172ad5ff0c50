// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"log"

	"vitrine_backend/internal/app"
	"vitrine_backend/internal/config"
	"vitrine_backend/internal/flow"
	"vitrine_backend/internal/jobs"
	"vitrine_backend/internal/nav"
	"vitrine_backend/internal/platform/database"
	"vitrine_backend/internal/platform/logger"
	"vitrine_backend/internal/session"
	"vitrine_backend/internal/shared"
	"vitrine_backend/internal/upstream"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		provideCleanup,

		// Session Store
		session.NewGORMRepository,
		session.NewStore,
		wire.Bind(new(shared.Store), new(*session.Store)),
		session.NewHandler,

		// Upstream marketplace client
		upstream.NewClient,
		wire.Bind(new(shared.UpstreamClient), new(*upstream.Client)),

		// Login and onboarding flow
		flow.NewCoordinator,
		flow.NewHandler,

		// Header navigation
		nav.NewService,
		nav.NewHandler,

		// Jobs
		jobs.NewSessionSweepJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
