// Package config loads service configuration from environment variables
// with defaults and validation. A .env file is loaded by main before this
// runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"resumerag/types"
)

type Config struct {
	// Server settings
	ServerAddr  string
	FrontendDir string

	// Vector store settings
	StoreBackend string // "milvus" or "pgvector"
	Collection   string
	EmbeddingDim int

	MilvusAddr     string
	MilvusUsername string
	MilvusPassword string
	MilvusAPIKey   string

	PgHost   string
	PgPort   int
	PgUser   string
	PgPass   string
	PgDBName string

	// Embedder settings
	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string
	OllamaURL         string
	OpenAIKey         string

	// Chunking settings
	ChunkSize     int
	ChunkOverlap  int
	ChunkMaxBytes int

	// Match explainer settings
	LLMProvider string // "openai" or "gemini"
	LLMModel    string
	GeminiKey   string
	GeminiModel string
	GeminiURL   string

	// Resume loader settings; the watcher only runs when SourceDir is set
	SourceDir      string
	ArchiveDir     string
	BadDir         string
	MonitoringTime time.Duration
	CropTop        float64
	CropBottom     float64

	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		FrontendDir: os.Getenv("FRONTEND_DIR"),

		StoreBackend: getEnv("STORE_BACKEND", "milvus"),
		Collection:   getEnv("COLLECTION_NAME", "resumes"),
		EmbeddingDim: getEnvInt("EMBEDDING_DIM", 384),

		MilvusAddr:     getEnv("MILVUS_ADDR", "localhost:19530"),
		MilvusUsername: os.Getenv("MILVUS_USERNAME"),
		MilvusPassword: os.Getenv("MILVUS_PASSWORD"),
		MilvusAPIKey:   os.Getenv("MILVUS_API_KEY"),

		PgHost:   getEnv("PG_HOST", "localhost"),
		PgPort:   getEnvInt("PG_PORT", 5432),
		PgUser:   getEnv("PG_USER", "postgres"),
		PgPass:   os.Getenv("PG_PASS"),
		PgDBName: getEnv("PG_DB_NAME", "resumes"),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "all-minilm"),
		OllamaURL:         getEnv("OLLAMA_EMBEDDING_URL", "http://localhost:11434/api/embed"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),

		ChunkSize:     getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 50),
		ChunkMaxBytes: getEnvInt("CHUNK_MAX_BYTES", 2048),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMModel:    getEnv("LLM_MODEL", "gpt-4o-mini"),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel: getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiURL:   getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),

		SourceDir:      os.Getenv("LOADER_SOURCE_DIR"),
		ArchiveDir:     getEnv("LOADER_ARCHIVE_DIR", "archive"),
		BadDir:         getEnv("LOADER_BAD_DIR", "bad"),
		MonitoringTime: getEnvDuration("LOADER_MONITORING_TIME", 3*time.Second),
		CropTop:        getEnvFloat("PDF_CROP_TOP", 0),
		CropBottom:     getEnvFloat("PDF_CROP_BOTTOM", 0),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "milvus", "pgvector":
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", types.ErrConfiguration, c.StoreBackend)
	}
	switch c.EmbeddingProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown EMBEDDING_PROVIDER %q", types.ErrConfiguration, c.EmbeddingProvider)
	}
	switch c.LLMProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", types.ErrConfiguration, c.LLMProvider)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIM must be positive, got %d", types.ErrConfiguration, c.EmbeddingDim)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", types.ErrConfiguration, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: CHUNK_OVERLAP must not be negative, got %d", types.ErrConfiguration, c.ChunkOverlap)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
