// Command seed runs a one-shot seeding pass over a site-list file.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"newsvec/articles"
	"newsvec/config"
	"newsvec/embedder"
	"newsvec/rssfeeds"
	"newsvec/seeding"
	"newsvec/vectorstore"

	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "", "path to newline-delimited site list (default: configured seed file)")
	flag.Parse()

	log.SetOutput(os.Stderr)
	_ = godotenv.Load()
	cfg := config.Load()

	seedFile := *file
	if seedFile == "" {
		seedFile = cfg.SeedFile
	}

	// An explicit seed run needs a readable file up front, unlike the
	// best-effort auto-seed check.
	if _, err := os.Stat(seedFile); err != nil {
		log.Fatalf("Seed file not found: %s", seedFile)
	}

	emb := embedder.New(func() (embedder.Provider, error) {
		return embedder.NewProviderFromConfig(embedder.ProviderConfig{
			CohereAPIKey: cfg.CohereAPIKey,
			OpenAIAPIKey: cfg.OpenAIAPIKey,
			Model:        cfg.EmbeddingModel,
		})
	})
	if err := emb.Initialize(); err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	store := vectorstore.New(vectorstore.Config{
		Host:           cfg.ChromaHost,
		Port:           cfg.ChromaPort,
		CollectionName: cfg.CollectionName,
	})

	ctx := context.Background()
	if err := store.EnsureCollection(ctx); err != nil {
		log.Printf("Warning: vector store unavailable: %v. Articles will be skipped until it recovers.", err)
	}

	repo := articles.NewRepository(store, emb)
	ingestor := rssfeeds.NewIngestor(repo)
	seeder := seeding.NewSeeder(rssfeeds.NewDiscoverer(), ingestor, repo, cfg.SeedFile)

	log.Println("Starting RSS feed seeding from websites...")
	if err := seeder.SeedFromFile(ctx, seedFile); err != nil {
		log.Fatalf("Error during seeding: %v", err)
	}
	log.Println("RSS feed seeding completed successfully!")
}
