package main

import (
	"context"
	"fmt"
	"os"

	redisclient "github.com/soulhub/soulhub-backend/internal/clients/redis"
	"github.com/soulhub/soulhub-backend/internal/db"
	"github.com/soulhub/soulhub-backend/internal/handlers"
	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/middleware"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/search"
	"github.com/soulhub/soulhub-backend/internal/server"
	"github.com/soulhub/soulhub-backend/internal/services"
	"github.com/soulhub/soulhub-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	patchRepo := repos.NewPatchRepo(thePG, log)
	patchFileRepo := repos.NewPatchFileRepo(thePG, log)
	patchRatingRepo := repos.NewPatchRatingRepo(thePG, log)

	// Change bus (optional; without REDIS_ADDR the index is local-only)
	var changeBus redisclient.ChangeBus
	if os.Getenv("REDIS_ADDR") != "" {
		changeBus, err = redisclient.NewChangeBus(log)
		if err != nil {
			log.Warn("Could not init redis change bus, continuing without", "error", err)
			changeBus = nil
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	searchIndex := search.NewIndex(log)
	searchService := services.NewSearchService(thePG, log, searchIndex, patchRepo, patchFileRepo, changeBus)
	userService := services.NewUserService(thePG, log, userRepo)
	patchService := services.NewPatchService(thePG, log, patchRepo, patchFileRepo, userRepo, searchService)
	fileService := services.NewFileService(thePG, log, patchRepo, patchFileRepo, searchService)
	ratingService := services.NewRatingService(thePG, log, patchRepo, userRepo, patchRatingRepo)
	exportService := services.NewExportService(thePG, log, patchRepo, patchFileRepo)

	// Cold-start index build, then mirror peer updates
	ctx := context.Background()
	if err := searchService.ReindexAll(ctx); err != nil {
		log.Warn("Initial index build failed, searches start empty", "error", err)
	}
	if err := searchService.StartForwarder(ctx); err != nil {
		log.Warn("Change bus forwarder failed to start", "error", err)
	}

	// Handlers
	userHandler := handlers.NewUserHandler(log, userService)
	patchHandler := handlers.NewPatchHandler(log, patchService, ratingService, exportService)
	spFileHandler := handlers.NewSPFileHandler(log, fileService)
	searchHandler := handlers.NewSearchHandler(log, searchService)
	requestLog := middleware.NewRequestLogMiddleware(log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		UserHandler:   userHandler,
		PatchHandler:  patchHandler,
		SPFileHandler: spFileHandler,
		SearchHandler: searchHandler,
		RequestLog:    requestLog,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
