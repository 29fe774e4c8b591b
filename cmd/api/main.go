package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"facegate/internal/agent"
	"facegate/internal/config"
	"facegate/internal/database"
	"facegate/internal/server"
	"facegate/internal/service"
	"facegate/internal/storage"

	_ "facegate/docs"
)

// @title Facegate API
// @version 1.0
// @description Access-control backend for machine operators: shift check-ins, machine lock signaling over MQTT, and edge-cloud synchronization.

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	log.Println("[API] Starting Facegate API Server...")

	// Load configuration
	cfg := config.Load()

	// Connect to database (postgres on the cloud, sqlite on the edge)
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[API] Failed to connect to database: %v", err)
	}
	log.Println("[API] Connected to database")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("[API] Failed to migrate database: %v", err)
	}
	log.Println("[API] Database migrated")

	// Seed the default admin on first start
	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[API] Failed to hash default admin password: %v", err)
	}
	if err := database.SeedDefaultAdmin(db, cfg.DefaultAdminUsername, string(hashed)); err != nil {
		log.Fatalf("[API] Failed to seed default admin: %v", err)
	}

	// Connect to Redis (optional presence cache)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("[API] Redis unavailable, presence cache disabled: %v", err)
			redisClient = nil
		} else {
			log.Println("[API] Connected to Redis")
			defer redisClient.Close()
		}
		cancel()
	}

	// Asset storage for face images
	assets, err := storage.NewAssetStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("[API] Failed to prepare upload dir: %v", err)
	}
	log.Printf("[API] Upload directory ready: %s", cfg.UploadDir)

	// Connect the signal publisher. A dead broker must not block startup;
	// publishes will retry with the bounded reconnect.
	publisher := service.NewPublisher(cfg.MQTT)
	if err := publisher.Connect(); err != nil {
		log.Printf("[API] MQTT broker unavailable at startup: %v", err)
	}

	// Create and setup server
	srv := server.NewServer(cfg, db, redisClient, assets, publisher)
	srv.Setup()

	// On the edge, the sync agent runs inside the API process
	agentCtx, stopAgent := context.WithCancel(context.Background())
	defer stopAgent()
	if cfg.Sync.PeerURL != "" {
		syncService := service.NewSyncService(db, assets)
		go agent.New(db, syncService, cfg.Sync.PeerURL, cfg.Sync.Interval).Run(agentCtx)
	}

	// Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	go func() {
		if err := srv.Run(addr); err != nil {
			log.Fatalf("[API] Failed to start server: %v", err)
		}
	}()
	log.Printf("[API] Server ready on %s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("[API] Shutting down...")

	stopAgent()
	srv.Shutdown()
	log.Println("[API] Server stopped")
}
