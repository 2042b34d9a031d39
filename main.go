package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/api"
	"github.com/avdeluca/inkwell-be/internal/auth"
	"github.com/avdeluca/inkwell-be/internal/config"
	"github.com/avdeluca/inkwell-be/internal/database"
	"github.com/avdeluca/inkwell-be/internal/logger"
	"github.com/avdeluca/inkwell-be/internal/maintenance"
	"github.com/avdeluca/inkwell-be/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Ensure the upload directory exists
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	postService := services.NewPostService(db)
	uploadService := services.NewUploadService(cfg.UploadDir)

	if len(cfg.SeedCategories) > 0 {
		if err := categoryService.SeedCategories(cfg.SeedCategories); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed categories")
		}
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// Set up and run the background upload sweeper
	sweeper := maintenance.NewSweeper(db, cfg.UploadDir)
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(cfg, tokens, userService, categoryService, postService, uploadService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
