// syncagent runs the edge-cloud synchronization loop on its own, for
// deployments where the API server and the sync schedule are operated
// separately.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"facegate/internal/agent"
	"facegate/internal/config"
	"facegate/internal/database"
	"facegate/internal/service"
	"facegate/internal/storage"
)

func main() {
	log.Println("[Agent] Starting Facegate sync agent...")

	cfg := config.Load()
	if cfg.Sync.PeerURL == "" {
		log.Fatal("[Agent] SYNC_PEER_URL is required")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Agent] Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("[Agent] Failed to migrate database: %v", err)
	}

	assets, err := storage.NewAssetStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("[Agent] Failed to prepare upload dir: %v", err)
	}

	syncService := service.NewSyncService(db, assets)
	a := agent.New(db, syncService, cfg.Sync.PeerURL, cfg.Sync.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cancel()
	log.Println("[Agent] Stopped")
}
