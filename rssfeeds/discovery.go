// Package rssfeeds finds syndication feeds for arbitrary websites and
// ingests their items into the article repository.
package rssfeeds

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// commonFeedPaths are probed against the site origin before falling back
// to scraping the homepage HTML.
var commonFeedPaths = []string{
	"/feed",
	"/rss",
	"/feed.xml",
	"/rss.xml",
	"/feed/",
	"/rss/",
}

const (
	probeTimeout = 5 * time.Second
	pageTimeout  = 10 * time.Second
)

// Discoverer locates candidate feed URLs for a website.
type Discoverer struct {
	probeClient *http.Client
	pageClient  *http.Client
}

// NewDiscoverer creates a Discoverer with short probe and page timeouts.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		probeClient: &http.Client{Timeout: probeTimeout},
		pageClient:  &http.Client{Timeout: pageTimeout},
	}
}

// Discover returns a deduplicated list of feed URLs for the site. It
// probes the conventional feed paths first and only scrapes the homepage
// HTML when none of them answered. Errors are logged per site; a broken
// site yields an empty list, never an error.
func (d *Discoverer) Discover(ctx context.Context, siteURL string) []string {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		log.Printf("Warning: invalid site URL %q: %v", siteURL, err)
		return nil
	}

	candidates := d.probeCommonPaths(ctx, base)

	if len(candidates) == 0 {
		candidates = d.scrapeFeedLinks(ctx, base, siteURL)
	}

	return dedupe(candidates)
}

// probeCommonPaths issues HEAD requests for every conventional path
// concurrently; the probes are independent and idempotent. Results keep
// the path-list order regardless of response timing.
func (d *Discoverer) probeCommonPaths(ctx context.Context, base *url.URL) []string {
	origin := fmt.Sprintf("%s://%s", base.Scheme, base.Host)
	hits := make([]string, len(commonFeedPaths))

	var wg sync.WaitGroup
	for i, path := range commonFeedPaths {
		wg.Add(1)
		go func(i int, feedURL string) {
			defer wg.Done()

			req, err := http.NewRequestWithContext(ctx, http.MethodHead, feedURL, nil)
			if err != nil {
				return
			}
			resp, err := d.probeClient.Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				hits[i] = feedURL
			}
		}(i, origin+path)
	}
	wg.Wait()

	candidates := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit != "" {
			candidates = append(candidates, hit)
		}
	}
	return candidates
}

// scrapeFeedLinks fetches the homepage and collects feed references from
// <link> elements with a feed MIME type and from anchors whose href
// mentions rss or feed.
func (d *Discoverer) scrapeFeedLinks(ctx context.Context, base *url.URL, siteURL string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		log.Printf("Warning: could not build request for %s: %v", siteURL, err)
		return nil
	}

	resp, err := d.pageClient.Do(req)
	if err != nil {
		log.Printf("Warning: could not fetch HTML for %s: %v", siteURL, err)
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("Warning: could not parse HTML for %s: %v", siteURL, err)
		return nil
	}

	var candidates []string
	collect := func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if resolved := resolveURL(base, href); resolved != "" {
			candidates = append(candidates, resolved)
		}
	}

	doc.Find(`link[type="application/rss+xml"], link[type="application/atom+xml"]`).Each(collect)
	doc.Find(`a[href*="rss"], a[href*="feed"]`).Each(collect)

	return candidates
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
