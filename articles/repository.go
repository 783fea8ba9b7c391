// Package articles maps domain articles onto vector-store records and
// serves semantic search over them.
package articles

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"newsvec/embedder"
	"newsvec/types"
	"newsvec/vectorstore"
)

// Store is the slice of vector-store functionality the repository needs.
type Store interface {
	UpsertBatch(ctx context.Context, records []vectorstore.Record) error
	GetByFilter(ctx context.Context, field, value string, limit int) ([]vectorstore.Record, error)
	GetPage(ctx context.Context, limit int) ([]vectorstore.Record, error)
	QueryNearest(ctx context.Context, embedding []float32, k int) ([]vectorstore.Record, error)
	Count(ctx context.Context) (int, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Repository persists articles as embedded records and answers
// link-lookup, listing, and similarity-ranked search.
type Repository struct {
	store    Store
	embedder Embedder
}

// NewRepository wires a repository over the given store and embedder.
func NewRepository(store Store, emb Embedder) *Repository {
	return &Repository{store: store, embedder: emb}
}

// UpsertMany embeds and batch-writes the given articles, returning the
// subset that was actually persisted. Articles whose embedding fails are
// skipped and logged; an uninitialized embedder fails the whole call. An
// unavailable store degrades to a logged no-op with an empty persisted
// set, so callers must not treat the input as stored.
func (r *Repository) UpsertMany(ctx context.Context, arts []types.Article) ([]types.Article, error) {
	if len(arts) == 0 {
		return nil, nil
	}

	embedded := make([]types.Article, 0, len(arts))
	records := make([]vectorstore.Record, 0, len(arts))
	for i := range arts {
		a := &arts[i]

		text := a.EmbeddingText()
		vec, err := r.embedder.Embed(ctx, text)
		if err != nil {
			if errors.Is(err, embedder.ErrNotReady) {
				return nil, fmt.Errorf("cannot upsert articles: %w", err)
			}
			log.Printf("Warning: skipping article %s (%s): %v", a.ID, a.Link, err)
			continue
		}

		records = append(records, vectorstore.Record{
			ID:        a.ID,
			Document:  text,
			Embedding: vec,
			Metadata:  metadataFromArticle(a),
		})
		embedded = append(embedded, *a)
	}

	if len(records) == 0 {
		return nil, nil
	}

	if err := r.store.UpsertBatch(ctx, records); err != nil {
		if errors.Is(err, vectorstore.ErrUnavailable) {
			log.Printf("Warning: vector store unavailable, skipping upsert of %d articles", len(records))
			return nil, nil
		}
		return nil, err
	}
	return embedded, nil
}

// FindByLink returns the article with the given link, or nil when the
// link is unknown or the store is degraded.
func (r *Repository) FindByLink(ctx context.Context, link string) (*types.Article, error) {
	records, err := r.store.GetByFilter(ctx, "link", link, 1)
	if err != nil {
		if errors.Is(err, vectorstore.ErrUnavailable) {
			return nil, nil
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	a := articleFromRecord(records[0])
	return &a, nil
}

// Search returns up to limit articles for the query, sorted ascending by
// distance. An empty or whitespace query degrades to an unranked listing
// in store order with zero distances. Only a non-positive limit is an
// input error; a degraded store yields an empty slice.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]types.Article, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit %d: must be positive", limit)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx, limit)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("cannot embed search query: %w", err)
	}

	records, err := r.store.QueryNearest(ctx, vec, limit)
	if err != nil {
		if errors.Is(err, vectorstore.ErrUnavailable) {
			log.Println("Warning: vector store unavailable, returning empty search results")
			return []types.Article{}, nil
		}
		return nil, err
	}

	results := make([]types.Article, 0, len(records))
	for _, rec := range records {
		a := articleFromRecord(rec)
		a.Distance = rec.Distance
		results = append(results, a)
	}

	// Store-native ordering is not guaranteed across backends, so the
	// ranking is enforced here. Stable to keep tie order deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results, nil
}

// List returns up to limit articles in store order with zero distances.
func (r *Repository) List(ctx context.Context, limit int) ([]types.Article, error) {
	records, err := r.store.GetPage(ctx, limit)
	if err != nil {
		if errors.Is(err, vectorstore.ErrUnavailable) {
			log.Println("Warning: vector store unavailable, returning empty listing")
			return []types.Article{}, nil
		}
		return nil, err
	}

	results := make([]types.Article, 0, len(records))
	for _, rec := range records {
		results = append(results, articleFromRecord(rec))
	}
	return results, nil
}

// Count returns the corpus size.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func metadataFromArticle(a *types.Article) vectorstore.Metadata {
	return vectorstore.Metadata{
		Title:          a.Title,
		Link:           a.Link,
		Creator:        a.Creator,
		PubDate:        a.PubDate.UTC().Format(time.RFC3339),
		Description:    a.Description,
		ContentEncoded: a.ContentEncoded,
		Thumbnail:      a.Thumbnail,
	}
}

func articleFromRecord(rec vectorstore.Record) types.Article {
	a := types.Article{
		ID:             rec.ID,
		Title:          rec.Metadata.Title,
		Link:           rec.Metadata.Link,
		Creator:        rec.Metadata.Creator,
		Description:    rec.Metadata.Description,
		ContentEncoded: rec.Metadata.ContentEncoded,
		Thumbnail:      rec.Metadata.Thumbnail,
	}
	if ts, err := time.Parse(time.RFC3339, rec.Metadata.PubDate); err == nil {
		a.PubDate = ts
	}
	return a
}
