package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"facegate/internal/config"
	"facegate/internal/handler"
	"facegate/internal/middleware"
	"facegate/internal/service"
	"facegate/internal/storage"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	db         *gorm.DB
	redis      *redis.Client
	assets     *storage.AssetStore
	publisher  *service.Publisher
	wsHub      *handler.WSHub
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, assets *storage.AssetStore, publisher *service.Publisher) *Server {
	return &Server{
		config:    cfg,
		db:        db,
		redis:     redisClient,
		assets:    assets,
		publisher: publisher,
	}
}

// Setup initializes services, handlers and routes.
func (s *Server) Setup() {
	// The hub observes dispatched signals and broker state changes
	s.wsHub = handler.NewWSHub()
	go s.wsHub.Run()
	go s.wsHub.WatchPublisher(s.publisher.Events())

	// Initialize services
	authService := service.NewAuthService(s.db)
	presenceService := service.NewPresenceService(s.redis)
	dispatcher := service.NewSignalDispatcher(s.publisher, s.wsHub)
	operatorService := service.NewOperatorService(s.db, s.assets, dispatcher, presenceService)
	reportService := service.NewReportService(s.db, s.assets.Dir())
	syncService := service.NewSyncService(s.db, s.assets)

	// Initialize handlers
	adminHandler := handler.NewAdminHandler(authService, s.config)
	operatorHandler := handler.NewOperatorHandler(operatorService)
	reportHandler := handler.NewReportHandler(reportService)
	syncHandler := handler.NewSyncHandler(syncService)

	// Setup Gin router
	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded face images
	s.router.Static("/uploads", s.assets.Dir())

	// Health
	s.router.GET("/", s.health)
	s.router.GET("/health", s.health)

	// Sync exchange, consumed by the remote peer
	s.router.GET("/sync/all", syncHandler.Export)
	s.router.POST("/sync/all", syncHandler.Import)

	// Live signal feed
	s.router.GET("/ws/signals", s.wsHub.HandleSignals)

	// Public endpoints used by the on-site terminal
	s.router.POST("/api/admin/create", adminHandler.Create)
	s.router.POST("/api/admin/login", adminHandler.Login)
	s.router.POST("/api/operators/login", operatorHandler.Login)
	s.router.POST("/api/operators/logout", operatorHandler.Logout)

	// Protected routes
	api := s.router.Group("/api")
	api.Use(middleware.Auth(s.config.JWTSecret))
	{
		api.GET("/admin/me", adminHandler.Me)
		api.POST("/admin/reset-database", adminHandler.ResetDatabase)

		api.POST("/operators", operatorHandler.Create)
		api.GET("/operators", operatorHandler.List)
		api.GET("/operators/:operator_id", operatorHandler.Get)
		api.PUT("/operators/:operator_id", operatorHandler.Update)
		api.DELETE("/operators/:operator_id", operatorHandler.Delete)

		api.GET("/reports/:operator_id", reportHandler.Get)
		api.GET("/reports/:operator_id/export", reportHandler.Export)
	}
}

func (s *Server) health(c *gin.Context) {
	health := gin.H{
		"status": "healthy",
		"mqtt":   s.publisher.State().String(),
	}

	if sqlDB, err := s.db.DB(); err == nil && sqlDB.Ping() == nil {
		health["database"] = "connected"
	} else {
		health["database"] = "disconnected"
	}

	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()).Err(); err == nil {
			health["redis"] = "connected"
		} else {
			health["redis"] = "disconnected"
		}
	} else {
		health["redis"] = "disabled"
	}

	c.JSON(200, health)
}

// Run starts the HTTP server. It blocks until Shutdown is called or the
// listener fails.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	log.Printf("[Server] HTTP server listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// GetRouter returns the gin router for testing.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Shutdown gracefully shuts down the server, draining in-flight requests
// before stopping the hub and the publisher.
func (s *Server) Shutdown() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("[Server] HTTP server shutdown error: %v", err)
		} else {
			log.Println("[Server] HTTP server stopped")
		}
	}
	if s.wsHub != nil {
		s.wsHub.Stop()
		log.Println("[Server] WebSocket hub stopped")
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
		log.Println("[Server] Signal publisher stopped")
	}
}
