package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/meeting-intelligence-team/meeting-intelligence/pkg/validator"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/adapter/handler"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/adapter/repository"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/cache"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/database"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/queue"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/storage"
	meetinguse "github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/meeting"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
	searchuse "github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/search"
	pkgai "github.com/meeting-intelligence-team/meeting-intelligence/pkg/ai"
	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize object storage
	log.Println("🪣 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	insightsRepo := repository.NewInsightsRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	// Initialize pipeline plumbing shared with the worker
	broker := queue.NewRedisBroker(redisClient, 2*cfg.Pipeline.HardTimeout, logger)
	guard := pipeline.NewIdempotencyGuard(
		cache.NewRedisStore(redisClient),
		cfg.Pipeline.ProcessingTTL,
		cfg.Pipeline.CompletedTTL,
	)
	deadLetters := queue.NewDeadLetterList(redisClient, cfg.Pipeline.DeadLetterCap)

	// Initialize services
	log.Println("✨ Initializing services...")
	meetingService := meetinguse.NewService(
		meetingRepo,
		transcriptRepo,
		insightsRepo,
		minioClient,
		broker,
		guard,
		cfg.Server.MaxUploadBytes,
		logger,
	)

	embedder := pkgai.NewEmbeddingClient(cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
	searchService := searchuse.NewService(chunkRepo, meetingRepo, embedder, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(
		cfg,
		handler.NewMeetingHandler(meetingService, logger),
		handler.NewSearchHandler(searchService, logger),
		handler.NewAdminHandler(deadLetters, logger),
		map[string]handler.Pinger{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
