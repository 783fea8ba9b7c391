package rssfeeds

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"newsvec/types"

	"github.com/mmcdole/gofeed"
)

// Repository is the article persistence surface ingestion depends on.
// UpsertMany reports the subset it actually persisted; a degraded store
// persists nothing without raising.
type Repository interface {
	FindByLink(ctx context.Context, link string) (*types.Article, error)
	UpsertMany(ctx context.Context, articles []types.Article) ([]types.Article, error)
}

// LinkSeenCache is an optional fast path over links already known to be
// persisted. Ingestion adds links only after confirmed persistence, so a
// cache hit never hides an article the store lost.
type LinkSeenCache interface {
	Seen(ctx context.Context, link string) bool
	Add(ctx context.Context, link string)
}

// Notifier receives every newly ingested article. Failures must be
// handled inside the notifier; ingestion does not abort on them.
type Notifier interface {
	ArticleIngested(ctx context.Context, article *types.Article)
}

// Ingestor fetches one feed at a time, filters out known links, and
// hands the remainder to the repository as a single batch.
type Ingestor struct {
	repo           Repository
	parser         *gofeed.Parser
	cache          LinkSeenCache
	notifiers      []Notifier
	extractContent bool
}

// IngestorOption customizes an Ingestor.
type IngestorOption func(*Ingestor)

// WithLinkCache adds a fast-path seen-link cache in front of the
// repository lookup.
func WithLinkCache(cache LinkSeenCache) IngestorOption {
	return func(ing *Ingestor) { ing.cache = cache }
}

// WithNotifier registers a listener for newly ingested articles.
func WithNotifier(n Notifier) IngestorOption {
	return func(ing *Ingestor) {
		if n != nil {
			ing.notifiers = append(ing.notifiers, n)
		}
	}
}

// WithContentExtraction fills in missing article bodies from the source
// pages before upserting.
func WithContentExtraction() IngestorOption {
	return func(ing *Ingestor) { ing.extractContent = true }
}

// NewIngestor creates an Ingestor over the given repository.
func NewIngestor(repo Repository, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		repo:   repo,
		parser: gofeed.NewParser(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest fetches and parses the feed, skips items without a link and
// items whose link is already stored, and batch-upserts the rest.
// Fetch/parse errors are returned so the caller can isolate the feed;
// an empty item list is a no-op.
func (ing *Ingestor) Ingest(ctx context.Context, feedURL string) error {
	feed, err := ing.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}

	log.Printf("Processing %d items from %s", len(feed.Items), feedURL)

	var newArticles []types.Article
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			log.Printf("Warning: skipping item without link (title: %q)", item.Title)
			continue
		}

		if ing.cache != nil && ing.cache.Seen(ctx, link) {
			continue
		}

		existing, err := ing.repo.FindByLink(ctx, link)
		if err != nil {
			log.Printf("Warning: could not check for existing article %s: %v", link, err)
			continue
		}
		if existing != nil {
			// First write wins; no update-in-place.
			log.Printf("Article already exists: %s", item.Title)
			if ing.cache != nil {
				ing.cache.Add(ctx, link)
			}
			continue
		}

		newArticles = append(newArticles, articleFromItem(item, link))
	}

	if len(newArticles) == 0 {
		log.Printf("No new articles in %s", feedURL)
		return nil
	}

	if ing.extractContent {
		ExtractMissingContent(newArticles)
	}

	log.Printf("Batch inserting %d new articles...", len(newArticles))
	stored, err := ing.repo.UpsertMany(ctx, newArticles)
	if err != nil {
		return fmt.Errorf("failed to store articles from %s: %w", feedURL, err)
	}
	if len(stored) < len(newArticles) {
		log.Printf("Warning: %d of %d articles from %s were not persisted; they will be retried on the next run",
			len(newArticles)-len(stored), len(newArticles), feedURL)
	}

	// Only confirmed-persisted articles count as seen or ingested.
	for i := range stored {
		if ing.cache != nil {
			ing.cache.Add(ctx, stored[i].Link)
		}
		for _, n := range ing.notifiers {
			n.ArticleIngested(ctx, &stored[i])
		}
	}

	return nil
}

func articleFromItem(item *gofeed.Item, link string) types.Article {
	creator := ""
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		creator = item.DublinCoreExt.Creator[0]
	} else if item.Author != nil {
		creator = item.Author.Name
	}

	pubDate := time.Now()
	if item.PublishedParsed != nil {
		pubDate = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		pubDate = *item.UpdatedParsed
	}

	thumbnail := ""
	if item.Image != nil {
		thumbnail = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "image/") {
				thumbnail = enc.URL
				break
			}
		}
	}

	return types.Article{
		ID:             types.GenerateID(link),
		Title:          item.Title,
		Link:           link,
		Creator:        creator,
		PubDate:        pubDate,
		Description:    item.Description,
		ContentEncoded: item.Content,
		Thumbnail:      thumbnail,
	}
}
