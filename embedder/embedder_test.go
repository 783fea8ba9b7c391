package embedder

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"
	"strings"
	"testing"
)

// hashProvider derives a deterministic vector from the input text so
// tests can assert determinism without a real model.
type hashProvider struct {
	dim   int
	calls []string
}

func (p *hashProvider) ModelName() string { return "hash-test-model" }

func (p *hashProvider) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		p.calls = append(p.calls, text)
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, p.dim)
		for j := range vec {
			vec[j] = float32(sum[j%len(sum)]) + 1
		}
		out[i] = vec
	}
	return out, nil
}

type failingProvider struct{}

func (failingProvider) ModelName() string { return "failing-model" }

func (failingProvider) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("inference backend exploded")
}

func TestEmbedBeforeInitializeFailsClosed(t *testing.T) {
	e := New(func() (Provider, error) {
		return &hashProvider{dim: 8}, nil
	})

	if _, err := e.Embed(context.Background(), "hello"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady before Initialize, got %v", err)
	}
}

func TestInitializeLoadsProviderOnce(t *testing.T) {
	factoryCalls := 0
	e := New(func() (Provider, error) {
		factoryCalls++
		return &hashProvider{dim: 8}, nil
	})

	for i := 0; i < 3; i++ {
		if err := e.Initialize(); err != nil {
			t.Fatalf("initialize failed: %v", err)
		}
	}

	if factoryCalls != 1 {
		t.Fatalf("expected factory to run once, ran %d times", factoryCalls)
	}
	if !e.Ready() {
		t.Fatal("expected embedder to be ready after Initialize")
	}
}

func TestInitializeFailureCanBeRetried(t *testing.T) {
	attempts := 0
	e := New(func() (Provider, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("credentials missing")
		}
		return &hashProvider{dim: 8}, nil
	})

	if err := e.Initialize(); err == nil {
		t.Fatal("expected first Initialize to fail")
	}
	if e.Ready() {
		t.Fatal("embedder must not be ready after failed Initialize")
	}
	if err := e.Initialize(); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewWithProvider(&hashProvider{dim: 16})

	first, err := e.Embed(context.Background(), "gossip about gophers")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	second, err := e.Embed(context.Background(), "gossip about gophers")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("dimension mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vectors differ at index %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestEmbedNormalizesToUnitLength(t *testing.T) {
	e := NewWithProvider(&hashProvider{dim: 32})

	vec, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Fatalf("expected unit-length vector, got norm %f", math.Sqrt(sum))
	}
}

func TestEmbedWrapsProviderFailure(t *testing.T) {
	e := NewWithProvider(failingProvider{})

	_, err := e.Embed(context.Background(), "boom")
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	if errors.Is(err, ErrNotReady) {
		t.Fatal("provider failure must not read as not-ready")
	}
}

func TestEmbedSanitizesInputBeforeInference(t *testing.T) {
	p := &hashProvider{dim: 8}
	e := NewWithProvider(p)

	if _, err := e.Embed(context.Background(), "<p>Hello   <b>world</b></p>\n\t "); err != nil {
		t.Fatalf("embed failed: %v", err)
	}

	if len(p.calls) != 1 {
		t.Fatalf("expected one provider call, got %d", len(p.calls))
	}
	if p.calls[0] != "Hello world" {
		t.Fatalf("expected sanitized input %q, got %q", "Hello world", p.calls[0])
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"strips tags", "<h1>Title</h1><p>Body</p>", "Title Body"},
		{"collapses whitespace", "a  b\n\nc\t d", "a b c d"},
		{"trims", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.input); got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSanitizeCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 400)
	got := Sanitize(long)
	if len([]rune(got)) > MaxInputChars {
		t.Fatalf("expected at most %d chars, got %d", MaxInputChars, len([]rune(got)))
	}
	if strings.HasSuffix(got, " ") {
		t.Fatal("capped text must not end in whitespace")
	}
}
