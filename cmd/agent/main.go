package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/xelth-com/eckposgo/internal/agent"
	"github.com/xelth-com/eckposgo/internal/config"
)

func main() {
	godotenv.Load()

	serverURL := envOr("POS_SERVER_URL", "http://localhost:3310")
	tenantID := os.Getenv("POS_TENANT_ID")
	deviceID := os.Getenv("POS_DEVICE_ID")
	deviceToken := os.Getenv("POS_DEVICE_TOKEN")
	dbPath := envOr("POS_AGENT_DB", "./pos_agent.db")

	if tenantID == "" || deviceID == "" || deviceToken == "" {
		log.Fatal("POS_TENANT_ID, POS_DEVICE_ID and POS_DEVICE_TOKEN are required (register the device first)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := agent.OpenStore(ctx, dbPath)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer store.Close()

	syncCfg := config.LoadSyncConfig()
	client := agent.NewClient(serverURL, tenantID, deviceToken)
	service := agent.NewSyncService(store, client, syncCfg, deviceID)

	// One immediate round on startup, then the interval loop
	if result, err := service.SyncOnce(ctx); err != nil {
		log.Printf("⚠️ Initial sync failed (continuing offline): %v", err)
	} else {
		log.Printf("✅ Initial sync: %d pushed, %d pulled", result.Pushed, result.Pulled)
	}

	go service.Run(ctx)

	log.Printf("🚀 POS agent running (device %s, server %s)", deviceID, serverURL)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-shutdown
	log.Printf("⚠️  Received signal: %v. Shutting down...", sig)
	cancel()

	log.Println("✅ Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
