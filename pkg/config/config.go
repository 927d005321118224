package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Pipeline  PipelineConfig
	Assembly  AssemblyConfig
	Groq      GroqConfig
	Embedding EmbeddingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	MaxUploadBytes  int64    `envconfig:"MAX_UPLOAD_BYTES" default:"524288000"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"meeting_intelligence"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string        `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"MINIO_BUCKET" default:"recordings"`
	UseSSL          bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	PresignExpiry   time.Duration `envconfig:"MINIO_PRESIGN_EXPIRY" default:"4h"`
}

// PipelineConfig holds worker and retry tuning
type PipelineConfig struct {
	WorkerCount   int           `envconfig:"PIPELINE_WORKERS" default:"4"`
	MaxAttempts   int           `envconfig:"PIPELINE_MAX_ATTEMPTS" default:"3"`
	BaseDelay     time.Duration `envconfig:"PIPELINE_BASE_DELAY" default:"10s"`
	MaxDelay      time.Duration `envconfig:"PIPELINE_MAX_DELAY" default:"10m"`
	ProcessingTTL time.Duration `envconfig:"PIPELINE_PROCESSING_TTL" default:"1h"`
	CompletedTTL  time.Duration `envconfig:"PIPELINE_COMPLETED_TTL" default:"24h"`
	SoftTimeout   time.Duration `envconfig:"PIPELINE_SOFT_TIMEOUT" default:"55m"`
	HardTimeout   time.Duration `envconfig:"PIPELINE_HARD_TIMEOUT" default:"1h"`
	ChunkSize     int           `envconfig:"PIPELINE_CHUNK_SIZE" default:"500"`
	ChunkOverlap  int           `envconfig:"PIPELINE_CHUNK_OVERLAP" default:"50"`
	DeadLetterCap int64         `envconfig:"PIPELINE_DEAD_LETTER_CAP" default:"1000"`
}

// AssemblyConfig holds AssemblyAI configuration
type AssemblyConfig struct {
	APIKey       string `envconfig:"ASSEMBLYAI_API_KEY" default:""`
	LanguageCode string `envconfig:"ASSEMBLYAI_LANGUAGE" default:""`
}

// GroqConfig holds Groq LLM configuration
type GroqConfig struct {
	APIKey  string `envconfig:"GROQ_API_KEY" default:""`
	BaseURL string `envconfig:"GROQ_API_URL" default:"https://api.groq.com"`
	Model   string `envconfig:"GROQ_MODEL" default:"llama-3.1-70b-versatile"`
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	BaseURL   string `envconfig:"EMBEDDING_SERVICE_URL" default:"http://localhost:8090"`
	Dimension int    `envconfig:"EMBEDDING_DIMENSION" default:"384"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Pipeline.BaseDelay <= 0 || c.Pipeline.MaxDelay < c.Pipeline.BaseDelay {
		return fmt.Errorf("pipeline delays misconfigured: base=%s max=%s", c.Pipeline.BaseDelay, c.Pipeline.MaxDelay)
	}
	if c.Pipeline.HardTimeout < c.Pipeline.SoftTimeout {
		return fmt.Errorf("PIPELINE_HARD_TIMEOUT must not be below PIPELINE_SOFT_TIMEOUT")
	}
	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf("PIPELINE_CHUNK_OVERLAP must be smaller than PIPELINE_CHUNK_SIZE")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
