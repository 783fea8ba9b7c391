// Package seeding drives bulk ingestion from a curated list of sites.
package seeding

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

// Discoverer finds candidate feed URLs for a site.
type Discoverer interface {
	Discover(ctx context.Context, siteURL string) []string
}

// Ingestor processes one feed URL.
type Ingestor interface {
	Ingest(ctx context.Context, feedURL string) error
}

// Counter reports the corpus size.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Seeder walks a site list through discovery and ingestion. One worker
// handles sites and feeds sequentially; failures are isolated at the
// site and feed level.
type Seeder struct {
	discoverer      Discoverer
	ingestor        Ingestor
	counter         Counter
	defaultSeedFile string
}

// NewSeeder wires a Seeder. defaultSeedFile is used by AutoSeedIfEmpty.
func NewSeeder(d Discoverer, ing Ingestor, c Counter, defaultSeedFile string) *Seeder {
	return &Seeder{
		discoverer:      d,
		ingestor:        ing,
		counter:         c,
		defaultSeedFile: defaultSeedFile,
	}
}

// SeedFromFile reads newline-delimited site URLs, skipping blank lines
// and lines starting with '#', and runs discovery plus ingestion for
// each site. An unreadable file is a hard error; everything below the
// file level is logged and skipped.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var sites []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sites = append(sites, line)
	}

	log.Printf("Processing %d websites from %s", len(sites), path)

	for _, site := range sites {
		log.Printf("--- Processing website: %s ---", site)

		feeds := s.discoverer.Discover(ctx, site)
		if len(feeds) == 0 {
			log.Printf("No RSS feeds found for %s", site)
			continue
		}

		log.Printf("Found %d RSS feed(s) for %s", len(feeds), site)
		for _, feedURL := range feeds {
			if err := s.ingestor.Ingest(ctx, feedURL); err != nil {
				log.Printf("Warning: error processing feed %s: %v", feedURL, err)
			}
		}
	}

	log.Println("Finished processing all websites")
	return nil
}

// AutoSeedIfEmpty seeds from the default file when the corpus is empty.
// A missing default file or an unreachable store is logged and skipped;
// startup never fails because of this check.
func (s *Seeder) AutoSeedIfEmpty(ctx context.Context) {
	count, err := s.counter.Count(ctx)
	if err != nil {
		log.Printf("Warning: could not check corpus size, skipping auto-seed: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Collection contains %d articles, skipping auto-seed", count)
		return
	}

	if _, err := os.Stat(s.defaultSeedFile); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: default seed file not found: %s. Skipping automatic seeding.", s.defaultSeedFile)
		} else {
			log.Printf("Warning: could not access seed file %s: %v", s.defaultSeedFile, err)
		}
		return
	}

	log.Printf("Collection is empty, triggering automatic seeding from %s", s.defaultSeedFile)
	if err := s.SeedFromFile(ctx, s.defaultSeedFile); err != nil {
		log.Printf("Warning: automatic seeding failed: %v", err)
		return
	}
	log.Println("Automatic seeding completed successfully")
}
