// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vitrine_backend/internal/common"
	"vitrine_backend/internal/config"
	"vitrine_backend/internal/flow"
	"vitrine_backend/internal/jobs"
	"vitrine_backend/internal/middleware"
	"vitrine_backend/internal/nav"
	"vitrine_backend/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	sessionHandler *session.Handler
	flowHandler    *flow.Handler
	navHandler     *nav.Handler

	// Jobs
	sessionSweepJob *jobs.SessionSweepJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	store *session.Store,
	sessionHandler *session.Handler,
	flowHandler *flow.Handler,
	navHandler *nav.Handler,
	sessionSweepJob *jobs.SessionSweepJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// Schema for the session records; sqlite deployments have no external
	// migration step.
	if err := db.AutoMigrate(&session.ClientSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session schema: %w", err)
	}

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Every route needs the client identity; sessions are keyed by it.
	router.Use(middleware.ClientCookie(cfg, logger.Named("ClientCookie")))

	adminRoleMW := middleware.RoleAuthMiddleware(store, logger.Named("RoleAuth"), common.RoleAdmin)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Vitrine session gateway is healthy!"})
	})

	v1 := router.Group("/api/v1")

	sessionHandler.RegisterRoutes(v1, adminRoleMW)
	flowHandler.RegisterRoutes(v1)
	navHandler.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:      httpServer,
		router:          router,
		cfg:             cfg,
		logger:          logger,
		sessionHandler:  sessionHandler,
		flowHandler:     flowHandler,
		navHandler:      navHandler,
		sessionSweepJob: sessionSweepJob,
	}, nil
}

func (s *Server) Start() error {
	if s.sessionSweepJob != nil {
		if err := s.sessionSweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start session sweep job", zap.Error(err))
		}
	} else {
		s.logger.Info("Session sweep job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sessionSweepJob != nil {
		s.sessionSweepJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
