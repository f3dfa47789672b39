package main

import (
	"alcyxob/coach-app/internal/api"
	"alcyxob/coach-app/internal/config"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/repository/mongo"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// repositories is the full persistence surface the services need.
type repositories struct {
	users          repository.UserRepository
	programs       repository.ProgramRepository
	days           repository.ProgramDayRepository
	items          repository.ProgramItemRepository
	clientPrograms repository.ClientProgramRepository
	overrides      repository.OverrideRepository
	completions    repository.CompletionRepository
}

// @title Coach Program API
// @version 1.0
// @description Coach-authored programs, per-client overrides, completion tracking and activity feeds.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Coach App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatalf("FATAL: jwt.secret (JWT_SECRET) must be set")
	}
	log.Printf("Configuration loaded (database driver: %s).", cfg.Database.Driver)

	// --- Persistence ---
	var repos repositories
	switch cfg.Database.Driver {
	case "memory":
		log.Println("WARN: Using the in-memory store; data is lost on restart.")
		store := memory.NewStore()
		repos = repositories{
			users:          store.Users(),
			programs:       store.Programs(),
			days:           store.ProgramDays(),
			items:          store.ProgramItems(),
			clientPrograms: store.ClientPrograms(),
			overrides:      store.Overrides(),
			completions:    store.Completions(),
		}
	case "mongo":
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Println("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.Println("Database connection established.")

		// Unique indexes must exist before the first write.
		log.Println("Ensuring database indexes...")
		idxCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		mongo.EnsureIndexes(idxCtx, appDB)
		cancel()

		repos = repositories{
			users:          mongo.NewMongoUserRepository(appDB),
			programs:       mongo.NewMongoProgramRepository(appDB),
			days:           mongo.NewMongoProgramDayRepository(appDB),
			items:          mongo.NewMongoProgramItemRepository(appDB),
			clientPrograms: mongo.NewMongoClientProgramRepository(appDB),
			overrides:      mongo.NewMongoOverrideRepository(appDB),
			completions:    mongo.NewMongoCompletionRepository(appDB),
		}
	default:
		log.Fatalf("FATAL: Unknown database driver %q", cfg.Database.Driver)
	}

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Services ---
	log.Println("Initializing services...")
	access := service.NewAccessResolver(repos.users, repos.programs, repos.items, repos.clientPrograms, repos.overrides)
	services := api.Services{
		Auth:  service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Coach: service.NewCoachService(access, repos.users),
		Program: service.NewProgramService(access, repos.programs, repos.days, repos.items,
			repos.clientPrograms, repos.overrides, repos.completions),
		Assignment: service.NewAssignmentService(access, repos.users, repos.days, repos.items,
			repos.clientPrograms, repos.overrides, repos.completions),
		Override:   service.NewOverrideService(access, repos.days, repos.items, repos.overrides, repos.completions),
		Completion: service.NewCompletionService(access, repos.days, repos.items, repos.overrides, repos.completions),
		Feed: service.NewFeedService(access, repos.users, repos.days, repos.items, repos.clientPrograms,
			repos.overrides, repos.completions, cfg.Feed.Limit),
		Media: service.NewMediaService(access, repos.items, repos.clientPrograms, fileStorage, cfg.S3.PresignExpiry),
	}

	// --- Initialize Gin Engine ---
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, services)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
