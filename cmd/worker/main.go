package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/adapter/repository"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/cache"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/database"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/queue"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/infrastructure/storage"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
	pkgai "github.com/meeting-intelligence-team/meeting-intelligence/pkg/ai"
	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	log.Println("🔧 Initializing worker dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

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
	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	insightsRepo := repository.NewInsightsRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	// Initialize AI clients
	log.Println("🤖 Initializing AI clients...")
	transcriber := pkgai.NewAssemblyAIClient(cfg.Assembly.APIKey, cfg.Assembly.LanguageCode, logger)
	groqClient := pkgai.NewGroqClient(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.Model)
	extractor := pkgai.NewGroqInsightExtractor(groqClient, logger)
	embedder := pkgai.NewEmbeddingClient(cfg.Embedding.BaseURL, cfg.Embedding.Dimension)

	// Initialize pipeline plumbing
	broker := queue.NewRedisBroker(redisClient, 2*cfg.Pipeline.HardTimeout, logger)
	guard := pipeline.NewIdempotencyGuard(
		cache.NewRedisStore(redisClient),
		cfg.Pipeline.ProcessingTTL,
		cfg.Pipeline.CompletedTTL,
	)
	deadLetters := queue.NewDeadLetterList(redisClient, cfg.Pipeline.DeadLetterCap)

	policy := pipeline.RetryPolicy{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		BaseDelay:   cfg.Pipeline.BaseDelay,
		MaxDelay:    cfg.Pipeline.MaxDelay,
	}

	runnerCfg := pipeline.DefaultRunnerConfig()
	runnerCfg.Workers = cfg.Pipeline.WorkerCount
	runnerCfg.SoftTimeout = cfg.Pipeline.SoftTimeout
	runnerCfg.HardTimeout = cfg.Pipeline.HardTimeout

	runner := pipeline.NewRunner(
		broker,
		guard,
		policy,
		meetingRepo,
		deadLetters,
		logger,
		runnerCfg,
		pipeline.NewTranscribeStage(meetingRepo, transcriptRepo, transcriber, minioClient, logger),
		pipeline.NewInsightsStage(transcriptRepo, insightsRepo, extractor, logger),
		pipeline.NewEmbeddingsStage(
			meetingRepo,
			transcriptRepo,
			chunkRepo,
			embedder,
			pipeline.NewChunker(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap),
			logger,
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker.Start(ctx)
	runner.Start(ctx)

	log.Printf("🚀 Worker running with %d workers", runnerCfg.Workers)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down worker...")
	cancel()
	runner.Stop()
	broker.Stop()
	log.Println("✅ Worker stopped gracefully")
}
