package config

import (
	"os"
	"strconv"
	"strings"
)

// Config carries every runtime setting for the pipeline. It is built once
// at startup and passed to constructors explicitly; nothing reads the
// environment after Load returns.
type Config struct {
	// HTTP API
	ListenAddr string

	// Chroma vector store
	ChromaHost     string
	ChromaPort     int
	CollectionName string

	// Embeddings
	CohereAPIKey   string
	OpenAIAPIKey   string
	EmbeddingModel string

	// Seeding
	SeedFile string

	// Optional integrations; each feature is disabled when its setting
	// is empty.
	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string
	KafkaTopic    string
	S3Bucket      string
	S3Region      string
	S3Prefix      string

	// ExtractContent enables readability extraction for items whose feed
	// entry carries no encoded content.
	ExtractContent bool
}

// DefaultSeedFile is the well-known seed list used by the auto-seed check.
const DefaultSeedFile = "default_seed_websites.txt"

// Load builds a Config from the process environment, applying defaults
// for anything unset.
func Load() Config {
	cfg := Config{
		ListenAddr:     ":" + getEnvOrDefault("PORT", "8080"),
		ChromaHost:     getEnvOrDefault("CHROMA_HOST", "localhost"),
		ChromaPort:     getEnvIntOrDefault("CHROMA_PORT", 8000),
		CollectionName: getEnvOrDefault("CHROMA_COLLECTION", "articles"),
		CohereAPIKey:   os.Getenv("COHERE_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel: os.Getenv("EMBEDDING_MODEL"),
		SeedFile:       getEnvOrDefault("SEED_FILE", DefaultSeedFile),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		KafkaTopic:     getEnvOrDefault("KAFKA_TOPIC", "newsvec.articles.ingested"),
		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		ExtractContent: strings.EqualFold(os.Getenv("EXTRACT_CONTENT"), "true"),
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if prefix := strings.TrimSpace(os.Getenv("S3_PREFIX")); prefix != "" {
		cfg.S3Prefix = strings.Trim(prefix, "/") + "/"
	}

	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
