package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/devstudio/devstudio-server/internal/api"
	"github.com/devstudio/devstudio-server/internal/auth"
	"github.com/devstudio/devstudio-server/internal/config"
	"github.com/devstudio/devstudio-server/internal/db"
	"github.com/devstudio/devstudio-server/internal/db/repository"
	"github.com/devstudio/devstudio-server/internal/service"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/devstudio/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("DevStudio Server\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	log.Printf("Starting DevStudio Server %s (commit: %s)", Version, Commit)

	// Load configuration
	log.Printf("Loading configuration from %s", *configPath)
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Printf("Connecting to database: %s", cfg.Database.Path)
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	log.Printf("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories and services
	adminRepo := repository.NewAdminRepository(database.DB)
	inviteRepo := repository.NewInviteRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.GetTokenTTL())
	adminService := service.NewAdminService(adminRepo, inviteRepo, tokens, cfg.GetInviteValidity())

	// Seed an initial admin in development if none exists
	if !cfg.IsProduction() {
		seeded, err := adminService.SeedInitialAdmin(
			cfg.Bootstrap.Username,
			cfg.Bootstrap.Password,
			cfg.Bootstrap.Email,
		)
		if err != nil {
			log.Printf("Warning: could not seed admin: %v", err)
		} else if seeded {
			log.Printf("Seeded initial admin %q (dev only)", cfg.Bootstrap.Username)
		}
	}

	// Create HTTP server
	server := api.NewServer(cfg, database, adminService, tokens, auditRepo)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.Server.ListenAddr)
		if err := server.Run(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("DevStudio Server is running (env: %s)", cfg.Environment)

	// Wait for interrupt signal
	<-quit
	log.Printf("Shutting down server...")

	database.Close()

	log.Printf("Server stopped")
}
