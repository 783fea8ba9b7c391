// Package vectorstore wraps the Chroma vector database REST API (v2)
// behind a uniform record shape.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// ErrUnavailable marks operations attempted while the backing engine is
// unreachable or the collection cannot be established. Callers are
// expected to degrade (empty reads, skipped writes) rather than abort.
var ErrUnavailable = errors.New("vector store unavailable")

// Store talks to a single named Chroma collection. The collection handle
// is established lazily and re-attempted on every operation until it
// succeeds, so a backend that comes up late is picked up without a
// restart.
type Store struct {
	baseURL        string
	tenant         string
	database       string
	collectionName string
	httpClient     *http.Client

	mu           sync.Mutex
	collectionID string
}

// Config holds connection settings for the Chroma backend.
type Config struct {
	Host           string
	Port           int
	CollectionName string
}

// Metadata is the fixed per-record schema persisted alongside each
// embedding. Timestamps are ISO-8601 strings since Chroma metadata only
// holds primitive scalars.
type Metadata struct {
	Title          string `json:"title"`
	Link           string `json:"link"`
	Creator        string `json:"creator"`
	PubDate        string `json:"pubDate"`
	Description    string `json:"description"`
	ContentEncoded string `json:"contentEncoded"`
	Thumbnail      string `json:"thumbnail,omitempty"`
}

// Record is the uniform result shape every store operation speaks.
// Chroma returns flat lists from get and list-of-lists from query; both
// are normalized into []Record before leaving this package.
type Record struct {
	ID        string
	Document  string
	Embedding []float32
	Metadata  Metadata
	// Distance is populated by QueryNearest only.
	Distance float32
}

// New creates a Store handle. No network traffic happens until
// EnsureCollection is called.
func New(cfg Config) *Store {
	return &Store{
		baseURL:        fmt.Sprintf("http://%s:%d/api/v2", cfg.Host, cfg.Port),
		tenant:         "default_tenant",
		database:       "default_database",
		collectionName: cfg.CollectionName,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// CollectionName returns the configured collection name.
func (s *Store) CollectionName() string { return s.collectionName }

// Ready reports whether the collection handle has been established.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionID != ""
}

// EnsureCollection gets or creates the collection. It is idempotent and
// safe to retry; callers treat failure as "store degraded", not fatal.
func (s *Store) EnsureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID != "" {
		return nil
	}

	// Try to get an existing collection first.
	url := fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", s.baseURL, s.tenant, s.database, s.collectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusOK {
		defer resp.Body.Close()
		var result struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to parse collection response: %w", err)
		}
		log.Printf("Using existing collection: %s", s.collectionName)
		s.collectionID = result.ID
		return nil
	}
	resp.Body.Close()

	log.Printf("Creating new collection: %s", s.collectionName)
	createURL := fmt.Sprintf("%s/tenants/%s/databases/%s/collections", s.baseURL, s.tenant, s.database)
	payload := map[string]interface{}{
		"name": s.collectionName,
		"metadata": map[string]interface{}{
			"description": "RSS article vector embeddings",
		},
		"get_or_create": true,
	}

	body, err := s.postJSON(ctx, createURL, payload)
	if err != nil {
		return err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse create response: %w, body: %s", err, string(body))
	}

	s.collectionID = result.ID
	return nil
}

// collectionURL returns the base URL for collection operations
func (s *Store) collectionURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", s.baseURL, s.tenant, s.database, s.collectionID)
}

// ensure retries collection establishment before an operation. Any
// failure reads as ErrUnavailable so callers branch on a single error.
func (s *Store) ensure(ctx context.Context) error {
	if err := s.EnsureCollection(ctx); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// UpsertBatch writes records keyed by ID; re-upserting an existing ID
// overwrites the same record. An empty batch is a no-op.
func (s *Store) UpsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensure(ctx); err != nil {
		return err
	}

	ids := make([]string, len(records))
	documents := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	metadatas := make([]Metadata, len(records))

	for i, rec := range records {
		ids[i] = rec.ID
		documents[i] = rec.Document
		embeddings[i] = rec.Embedding
		metadatas[i] = rec.Metadata
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
		"metadatas":  metadatas,
	}

	url := fmt.Sprintf("%s/upsert", s.collectionURL())
	if _, err := s.postJSON(ctx, url, payload); err != nil {
		return fmt.Errorf("failed to upsert %d records: %w", len(records), err)
	}

	log.Printf("Upserted %d records into collection %s", len(records), s.collectionName)
	return nil
}

// getResponse is Chroma's flat shape for /get.
type getResponse struct {
	IDs       []string   `json:"ids"`
	Documents []string   `json:"documents"`
	Metadatas []Metadata `json:"metadatas"`
}

// GetByFilter returns records whose metadata field equals value, at most
// limit of them.
func (s *Store) GetByFilter(ctx context.Context, field, value string, limit int) ([]Record, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"where":   map[string]interface{}{field: map[string]interface{}{"$eq": value}},
		"limit":   limit,
		"include": []string{"metadatas", "documents"},
	}
	return s.get(ctx, payload)
}

// GetPage returns up to limit records in store-native order.
func (s *Store) GetPage(ctx context.Context, limit int) ([]Record, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"limit":   limit,
		"include": []string{"metadatas", "documents"},
	}
	return s.get(ctx, payload)
}

func (s *Store) get(ctx context.Context, payload map[string]interface{}) ([]Record, error) {
	url := fmt.Sprintf("%s/get", s.collectionURL())
	body, err := s.postJSON(ctx, url, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	var result getResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse get response: %w", err)
	}

	records := make([]Record, 0, len(result.IDs))
	for i, id := range result.IDs {
		rec := Record{ID: id}
		if i < len(result.Documents) {
			rec.Document = result.Documents[i]
		}
		if i < len(result.Metadatas) {
			rec.Metadata = result.Metadatas[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// queryResponse is Chroma's list-of-lists shape for /query; the outer
// index is per query embedding, of which we always send one.
type queryResponse struct {
	IDs       [][]string   `json:"ids"`
	Distances [][]float32  `json:"distances"`
	Documents [][]string   `json:"documents"`
	Metadatas [][]Metadata `json:"metadatas"`
}

// QueryNearest returns up to k records closest to the given embedding,
// ascending by distance.
func (s *Store) QueryNearest(ctx context.Context, embedding []float32, k int) ([]Record, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"query_embeddings": [][]float32{embedding},
		"n_results":        k,
		"include":          []string{"metadatas", "documents", "distances"},
	}

	url := fmt.Sprintf("%s/query", s.collectionURL())
	body, err := s.postJSON(ctx, url, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	var result queryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	if len(result.IDs) == 0 {
		return nil, nil
	}

	ids := result.IDs[0]
	records := make([]Record, 0, len(ids))
	for i, id := range ids {
		rec := Record{ID: id}
		if len(result.Documents) > 0 && i < len(result.Documents[0]) {
			rec.Document = result.Documents[0][i]
		}
		if len(result.Metadatas) > 0 && i < len(result.Metadatas[0]) {
			rec.Metadata = result.Metadatas[0][i]
		}
		if len(result.Distances) > 0 && i < len(result.Distances[0]) {
			rec.Distance = result.Distances[0][i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ensure(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/count", s.collectionURL())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("failed to count records: %s", string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// postJSON sends a JSON payload and returns the response body. Transport
// failures map to ErrUnavailable so callers can branch on errors.Is.
func (s *Store) postJSON(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("chroma request failed (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
