// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
	"github.com/drraj1965/neurohealthhub-sub000/internal/firebase"
	"github.com/drraj1965/neurohealthhub-sub000/internal/middleware"
	"github.com/drraj1965/neurohealthhub-sub000/internal/netmon"
	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/reconcile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/registration"
	"github.com/drraj1965/neurohealthhub-sub000/internal/role"
	"github.com/drraj1965/neurohealthhub-sub000/internal/verification"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Handlers
	registrationHandler *registration.Handler
	verificationHandler *verification.Handler
	profileHandler      *profile.Handler
	networkHandler      *netmon.Handler
	reconcileHandler    *reconcile.Handler

	// Background components
	monitor      *netmon.Monitor
	orchestrator *reconcile.Orchestrator
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	registrationHandler *registration.Handler,
	verificationHandler *verification.Handler,
	profileHandler *profile.Handler,
	networkHandler *netmon.Handler,
	reconcileHandler *reconcile.Handler,
	monitor *netmon.Monitor,
	orchestrator *reconcile.Orchestrator,
	firebaseService *firebase.Service,
	resolver *role.Resolver,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Create middleware instances
	authMW := middleware.AuthMiddleware(firebaseService, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(resolver, common.RoleAdmin)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "NeuroHealthHub identity API is healthy!"})
	})

	v1 := router.Group("/api/v1")

	// Public surfaces: registration capture and the verification landing
	// page endpoint hit from emailed links (no session exists yet there).
	registrationHandler.RegisterRoutes(v1)
	verificationHandler.RegisterRoutes(v1)

	// Profile reads require an authenticated caller.
	profileHandler.RegisterRoutes(v1, authMW)

	// Network state is readable by anyone on the deployment's network; the
	// probe hint is cheap and rate-limited by the probe timeout itself.
	networkHandler.RegisterRoutes(v1)

	// Operator-only reconciliation queue inspection.
	adminGroup := v1.Group("/admin", authMW, adminRoleMW)
	reconcileHandler.RegisterRoutes(adminGroup)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:          httpServer,
		router:              router,
		cfg:                 cfg,
		logger:              logger,
		registrationHandler: registrationHandler,
		verificationHandler: verificationHandler,
		profileHandler:      profileHandler,
		networkHandler:      networkHandler,
		reconcileHandler:    reconcileHandler,
		monitor:             monitor,
		orchestrator:        orchestrator,
	}, nil
}

func (s *Server) Start() error {
	if err := s.monitor.SetupAndStart(); err != nil {
		s.logger.Error("Failed to setup and start network monitor", zap.Error(err))
		return err
	}
	s.orchestrator.Start()

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
	s.orchestrator.Stop()
	s.monitor.Stop()
	return s.httpServer.Shutdown(ctx)
}
