package main

import (
	"context"
	"log"
	"time"

	"newsvec/api"
	"newsvec/articles"
	"newsvec/common"
	"newsvec/config"
	"newsvec/embedder"
	"newsvec/events"
	"newsvec/rssfeeds"
	"newsvec/seeding"
	"newsvec/vectorstore"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()
	cfg := config.Load()

	emb := embedder.New(func() (embedder.Provider, error) {
		return embedder.NewProviderFromConfig(embedder.ProviderConfig{
			CohereAPIKey: cfg.CohereAPIKey,
			OpenAIAPIKey: cfg.OpenAIAPIKey,
			Model:        cfg.EmbeddingModel,
		})
	})
	if err := emb.Initialize(); err != nil {
		log.Printf("Warning: %v. Search and ingestion will fail until restart with credentials.", err)
	}

	store := vectorstore.New(vectorstore.Config{
		Host:           cfg.ChromaHost,
		Port:           cfg.ChromaPort,
		CollectionName: cfg.CollectionName,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.EnsureCollection(ctx); err != nil {
		log.Printf("Warning: vector store unavailable: %v. Serving empty results until it recovers.", err)
	}
	cancel()

	repo := articles.NewRepository(store, emb)
	ingestor := rssfeeds.NewIngestor(repo, ingestOptions(cfg)...)
	seeder := seeding.NewSeeder(rssfeeds.NewDiscoverer(), ingestor, repo, cfg.SeedFile)

	// Best-effort bootstrap: populate an empty corpus in the background
	// while the API comes up.
	go seeder.AutoSeedIfEmpty(context.Background())

	router := api.NewRouter(api.RouterConfig{
		Articles:        repo,
		Seeder:          seeder,
		CollectionName:  cfg.CollectionName,
		DefaultSeedFile: cfg.SeedFile,
	})

	log.Printf("Starting API server on %s", cfg.ListenAddr)
	log.Println("API endpoints available:")
	log.Println("  GET  /api/health")
	log.Println("  GET  /api/articles")
	log.Println("  GET  /api/articles/search")
	log.Println("  GET  /api/stats")
	log.Println("  POST /api/seed")

	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// ingestOptions enables the optional integrations that are configured.
func ingestOptions(cfg config.Config) []rssfeeds.IngestorOption {
	var opts []rssfeeds.IngestorOption

	if cache := rssfeeds.NewLinkCache(cfg.RedisAddr, cfg.RedisPassword); cache != nil {
		opts = append(opts, rssfeeds.WithLinkCache(cache))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Printf("Warning: Kafka publisher disabled: %v", err)
		} else {
			opts = append(opts, rssfeeds.WithNotifier(publisher))
		}
	}

	if cfg.S3Bucket != "" {
		s3c, err := common.NewS3(context.Background(), common.S3Config{Region: cfg.S3Region})
		if err != nil {
			log.Printf("Warning: S3 archive disabled: %v", err)
		} else {
			opts = append(opts, rssfeeds.WithNotifier(common.NewArchiver(s3c, cfg.S3Bucket, cfg.S3Prefix)))
		}
	}

	if cfg.ExtractContent {
		opts = append(opts, rssfeeds.WithContentExtraction())
	}

	return opts
}
