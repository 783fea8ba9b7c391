package embedder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"sync"
)

const (
	// MaxInputChars bounds inference cost for long article bodies.
	MaxInputChars = 512
)

// ErrNotReady is returned when Embed is called before a successful
// Initialize.
var ErrNotReady = errors.New("embedding model not initialized")

// Provider abstracts a text->embedding backend. Implementations return
// one vector per input text.
type Provider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Embedder wraps a Provider with input sanitization and output
// normalization. The provider is loaded lazily by Initialize; Embed fails
// closed until that has succeeded.
type Embedder struct {
	mu          sync.Mutex
	provider    Provider
	newProvider func() (Provider, error)
}

// New creates an Embedder that will obtain its provider from the given
// factory on the first successful Initialize.
func New(newProvider func() (Provider, error)) *Embedder {
	return &Embedder{newProvider: newProvider}
}

// NewWithProvider creates an already-initialized Embedder around an
// existing provider.
func NewWithProvider(p Provider) *Embedder {
	return &Embedder{provider: p}
}

// Initialize loads the embedding provider exactly once. Calling it again
// after success is a no-op; a failed attempt may be retried.
func (e *Embedder) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.provider != nil {
		return nil
	}
	if e.newProvider == nil {
		return errors.New("no embedding provider configured")
	}

	p, err := e.newProvider()
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	e.provider = p
	log.Printf("Embedding provider ready: %s", p.ModelName())
	return nil
}

// Ready reports whether Initialize has completed successfully.
func (e *Embedder) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.provider != nil
}

// ModelName returns the active model identifier, or "" before Initialize.
func (e *Embedder) ModelName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.provider == nil {
		return ""
	}
	return e.provider.ModelName()
}

// Embed sanitizes the input, runs inference, and returns the
// L2-normalized vector. It returns ErrNotReady before initialization.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	provider := e.provider
	e.mu.Unlock()

	if provider == nil {
		return nil, ErrNotReady
	}

	clean := Sanitize(text)

	vectors, err := provider.EmbedTexts(ctx, []string{clean})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, errors.New("embedding provider returned no vector")
	}

	vec := vectors[0]
	normalize(vec)
	return vec, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips HTML tags, collapses whitespace, trims, and caps the
// text at MaxInputChars.
func Sanitize(text string) string {
	clean := tagRe.ReplaceAllString(text, " ")
	clean = strings.Join(strings.Fields(clean), " ")

	runes := []rune(clean)
	if len(runes) > MaxInputChars {
		clean = strings.TrimSpace(string(runes[:MaxInputChars]))
	}
	return clean
}

// normalize scales the vector to unit L2 length in place so that cosine
// similarity and Euclidean distance rank identically over stored vectors.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
