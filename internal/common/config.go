package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Index   IndexConfig
	LLM     LLMConfig
	Extract ExtractConfig
	Ingest  IngestConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// IndexConfig holds chunking and similarity-index configuration
type IndexConfig struct {
	ChromaURL      string
	Collection     string
	RegistryPath   string
	EmbeddingModel string
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
}

// LLMConfig holds completion-service configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// ExtractConfig holds orchestration ceilings and retry policy
type ExtractConfig struct {
	RequestsPerMinute   int
	TokensPerMinute     int
	MaxTokensPerRequest int
	MaxFieldsPerBatch   int
	RetryAttempts       int
	RetryBaseDelay      time.Duration
	RunTimeout          time.Duration
}

// IngestConfig holds upload and watch-directory configuration
type IngestConfig struct {
	WatchDir     string
	Workers      int
	QueueSize    int
	MaxUploadMB  int
	EmbedRetries int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Index: IndexConfig{
			ChromaURL:      getEnv("CHROMA_URL", "http://localhost:8000"),
			Collection:     getEnv("CHROMA_COLLECTION", "docbrief"),
			RegistryPath:   getEnv("INDEX_DB_PATH", "./docbrief.db"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			ChunkSize:      getEnvAsInt("CHUNK_SIZE", 800),
			ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 150),
			TopK:           getEnvAsInt("RETRIEVAL_TOP_K", 6),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Extract: ExtractConfig{
			RequestsPerMinute:   getEnvAsInt("REQUESTS_PER_MINUTE", 30),
			TokensPerMinute:     getEnvAsInt("TOKENS_PER_MINUTE", 60000),
			MaxTokensPerRequest: getEnvAsInt("MAX_TOKENS_PER_REQUEST", 4000),
			MaxFieldsPerBatch:   getEnvAsInt("MAX_FIELDS_PER_BATCH", 4),
			RetryAttempts:       getEnvAsInt("RETRY_ATTEMPTS", 3),
			RetryBaseDelay:      getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
			RunTimeout:          getEnvAsDuration("EXTRACT_TIMEOUT", 5*time.Minute),
		},
		Ingest: IngestConfig{
			WatchDir:     getEnv("WATCH_DIR", ""),
			Workers:      getEnvAsInt("INGEST_WORKERS", 2),
			QueueSize:    getEnvAsInt("INGEST_QUEUE_SIZE", 64),
			MaxUploadMB:  getEnvAsInt("MAX_UPLOAD_MB", 32),
			EmbedRetries: getEnvAsInt("EMBED_RETRIES", 3),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. Only credential and ceiling
// problems are fatal; everything else has a workable default.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return NewAppError("CONFIG_ERROR", "CHUNK_OVERLAP must be smaller than CHUNK_SIZE", ErrInvalidInput)
	}
	if c.Extract.RequestsPerMinute <= 0 || c.Extract.TokensPerMinute <= 0 {
		return NewAppError("CONFIG_ERROR", "rate-limit ceilings must be positive", ErrInvalidInput)
	}
	return nil
}
