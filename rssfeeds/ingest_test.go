package rssfeeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsvec/types"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>Test Feed</title>
<link>https://a.example</link>
<description>fixture</description>
%s
</channel>
</rss>`

const itemOne = `<item>
<title>First article</title>
<link>https://a.example/1</link>
<dc:creator>Alice</dc:creator>
<pubDate>Mon, 02 Mar 2026 15:04:05 GMT</pubDate>
<description>first description</description>
<content:encoded><![CDATA[<p>first body</p>]]></content:encoded>
</item>`

const itemTwo = `<item>
<title>Second article</title>
<link>https://a.example/2</link>
<description>second description</description>
</item>`

const itemThree = `<item>
<title>Third article</title>
<link>https://a.example/3</link>
</item>`

const itemNoLink = `<item>
<title>Orphan without link</title>
<description>should never be stored</description>
</item>`

// fakeRepo is an in-memory Repository keyed by link. With degraded set
// it behaves like a repository over an unavailable store: lookups find
// nothing and upserts persist nothing, without raising.
type fakeRepo struct {
	byLink   map[string]types.Article
	upserts  int
	degraded bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byLink: make(map[string]types.Article)}
}

func (f *fakeRepo) FindByLink(_ context.Context, link string) (*types.Article, error) {
	if f.degraded {
		return nil, nil
	}
	if a, ok := f.byLink[link]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeRepo) UpsertMany(_ context.Context, arts []types.Article) ([]types.Article, error) {
	f.upserts++
	if f.degraded {
		return nil, nil
	}
	for _, a := range arts {
		f.byLink[a.Link] = a
	}
	return arts, nil
}

// fakeLinkCache is an in-memory LinkSeenCache.
type fakeLinkCache struct {
	links map[string]struct{}
}

func newFakeLinkCache() *fakeLinkCache {
	return &fakeLinkCache{links: make(map[string]struct{})}
}

func (c *fakeLinkCache) Seen(_ context.Context, link string) bool {
	_, ok := c.links[link]
	return ok
}

func (c *fakeLinkCache) Add(_ context.Context, link string) {
	c.links[link] = struct{}{}
}

type recordingNotifier struct {
	ids []string
}

func (n *recordingNotifier) ArticleIngested(_ context.Context, a *types.Article) {
	n.ids = append(n.ids, a.ID)
}

func serveFeeds(t *testing.T, feeds map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items, ok := feeds[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, items)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestStoresNewArticles(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemOne + itemNoLink + itemTwo})
	repo := newFakeRepo()

	if err := NewIngestor(repo).Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(repo.byLink) != 2 {
		t.Fatalf("expected 2 stored articles, got %d", len(repo.byLink))
	}

	first := repo.byLink["https://a.example/1"]
	if first.ID != types.GenerateID("https://a.example/1") {
		t.Fatalf("ID must be derived from the link, got %q", first.ID)
	}
	if first.Creator != "Alice" {
		t.Fatalf("expected dc:creator to win, got %q", first.Creator)
	}
	if first.Description != "first description" {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if first.ContentEncoded != "<p>first body</p>" {
		t.Fatalf("unexpected content %q", first.ContentEncoded)
	}
	want := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	if !first.PubDate.Equal(want) {
		t.Fatalf("expected pubDate %v, got %v", want, first.PubDate)
	}
}

func TestIngestSkipsItemsWithoutLink(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemNoLink})
	repo := newFakeRepo()

	if err := NewIngestor(repo).Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(repo.byLink) != 0 {
		t.Fatalf("linkless items must never be stored, got %d", len(repo.byLink))
	}
	if repo.upserts != 0 {
		t.Fatal("empty batch must not reach the repository")
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemOne + itemTwo})
	repo := newFakeRepo()
	ing := NewIngestor(repo)

	for i := 0; i < 2; i++ {
		if err := ing.Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
			t.Fatalf("ingest pass %d failed: %v", i+1, err)
		}
	}

	if len(repo.byLink) != 2 {
		t.Fatalf("re-ingesting must not add duplicates, got %d articles", len(repo.byLink))
	}
	if repo.upserts != 1 {
		t.Fatalf("second pass must not upsert, got %d batches", repo.upserts)
	}
}

func TestIngestDeduplicatesAcrossFeeds(t *testing.T) {
	srv := serveFeeds(t, map[string]string{
		"/a.xml": itemOne + itemTwo,
		"/b.xml": itemOne + itemThree,
	})
	repo := newFakeRepo()
	ing := NewIngestor(repo)

	if err := ing.Ingest(context.Background(), srv.URL+"/a.xml"); err != nil {
		t.Fatalf("ingest a failed: %v", err)
	}
	if err := ing.Ingest(context.Background(), srv.URL+"/b.xml"); err != nil {
		t.Fatalf("ingest b failed: %v", err)
	}

	if len(repo.byLink) != 3 {
		t.Fatalf("expected exactly 3 stored articles, got %d", len(repo.byLink))
	}
}

func TestIngestDefaultsMissingPubDateToNow(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemTwo})
	repo := newFakeRepo()

	before := time.Now()
	if err := NewIngestor(repo).Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	after := time.Now()

	got := repo.byLink["https://a.example/2"].PubDate
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected pubDate to default to ingestion time, got %v", got)
	}
}

func TestIngestReturnsFetchErrors(t *testing.T) {
	srv := serveFeeds(t, map[string]string{})
	repo := newFakeRepo()

	if err := NewIngestor(repo).Ingest(context.Background(), srv.URL+"/missing.xml"); err == nil {
		t.Fatal("expected error for missing feed")
	}
}

func TestIngestNotifiesForNewArticlesOnly(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemOne + itemTwo})
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	ing := NewIngestor(repo, WithNotifier(notifier))

	if err := ing.Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(notifier.ids) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.ids))
	}

	if err := ing.Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if len(notifier.ids) != 2 {
		t.Fatalf("already-known articles must not notify again, got %d", len(notifier.ids))
	}
}

func TestIngestSkipsLinksAlreadyCached(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemOne + itemTwo})
	repo := newFakeRepo()
	cache := newFakeLinkCache()
	cache.Add(context.Background(), "https://a.example/1")

	ing := NewIngestor(repo, WithLinkCache(cache))
	if err := ing.Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(repo.byLink) != 1 {
		t.Fatalf("cached link must be skipped, got %d stored articles", len(repo.byLink))
	}
	if _, ok := repo.byLink["https://a.example/2"]; !ok {
		t.Fatal("uncached article should still be stored")
	}
}

func TestIngestDoesNotCacheOrNotifyUnstoredArticles(t *testing.T) {
	srv := serveFeeds(t, map[string]string{"/feed.xml": itemOne + itemTwo})
	repo := newFakeRepo()
	repo.degraded = true
	cache := newFakeLinkCache()
	notifier := &recordingNotifier{}
	ing := NewIngestor(repo, WithLinkCache(cache), WithNotifier(notifier))

	if err := ing.Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("degraded ingest must not raise, got %v", err)
	}
	if len(cache.links) != 0 {
		t.Fatalf("unstored links must never enter the seen cache, got %d", len(cache.links))
	}
	if len(notifier.ids) != 0 {
		t.Fatalf("unstored articles must not notify, got %d notifications", len(notifier.ids))
	}

	// Once the store recovers, the same feed must ingest in full.
	repo.degraded = false
	if err := ing.Ingest(context.Background(), srv.URL+"/feed.xml"); err != nil {
		t.Fatalf("ingest after recovery failed: %v", err)
	}
	if len(repo.byLink) != 2 {
		t.Fatalf("expected both articles stored after recovery, got %d", len(repo.byLink))
	}
	if len(cache.links) != 2 {
		t.Fatalf("persisted links should now be cached, got %d", len(cache.links))
	}
	if len(notifier.ids) != 2 {
		t.Fatalf("expected 2 notifications after recovery, got %d", len(notifier.ids))
	}
}
