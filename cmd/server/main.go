package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/proofid/proofid/internal/config"
	"github.com/proofid/proofid/internal/database"
	"github.com/proofid/proofid/internal/handler"
	"github.com/proofid/proofid/internal/idv"
	"github.com/proofid/proofid/internal/logger"
	"github.com/proofid/proofid/internal/middleware"
	"github.com/proofid/proofid/internal/repository"
	"github.com/proofid/proofid/internal/router"
	"github.com/proofid/proofid/internal/service"
	"github.com/proofid/proofid/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting ProofID server")

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Connect to Redis
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("connected to Redis")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	mfaRepo := repository.NewMFARepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Verification sessions live in Redis with a bounded lifetime
	sessions := session.NewStore(rdb, cfg.Idv.SessionTTL)

	// Initialize the identity proofing vendor client
	agent := idv.NewHTTPAgent(cfg.Idv.Vendor, log)
	log.Info().Str("vendor_url", cfg.Idv.Vendor.URL).Msg("proofing agent initialized")

	// Initialize services
	backupCodes := service.NewBackupCodeService(mfaRepo, eventRepo, cfg, log)
	totpSvc := service.NewTOTPService(userRepo, mfaRepo, eventRepo, cfg, log)
	personalKey := service.NewPersonalKeyService(userRepo, eventRepo, cfg, log)

	webauthnSvc, err := service.NewWebauthnService(mfaRepo, eventRepo, rdb, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize WebAuthn service")
	}
	if cfg.MFA.WebAuthn.RPID != "" {
		log.Info().Str("rp_id", cfg.MFA.WebAuthn.RPID).Msg("WebAuthn service initialized")
	}

	// Initialize handlers
	h := handler.New(db, rdb, log, cfg, userRepo, mfaRepo, eventRepo, sessions, agent, backupCodes, totpSvc, personalKey, webauthnSvc)

	// Initialize middleware
	mw := middleware.New(rdb, log, cfg)

	// Set up router
	r := router.New(h, mw)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
