package rssfeeds

import (
	"log"
	"sync"
	"time"

	"newsvec/types"

	readability "github.com/go-shiori/go-readability"
)

const (
	extractWorkerCount = 5
	extractorTimeout   = 30 * time.Second
)

// ExtractMissingContent fetches full article bodies for items whose feed
// entry carried no encoded content, using a small worker pool. Failures
// leave the article as-is.
func ExtractMissingContent(arts []types.Article) {
	indexChan := make(chan int, len(arts))
	var wg sync.WaitGroup

	for w := 0; w < extractWorkerCount; w++ {
		go func(workerID int) {
			for i := range indexChan {
				if err := extractContent(&arts[i]); err != nil {
					log.Printf("[Worker %d] Failed to extract %s: %v", workerID, arts[i].Link, err)
				}
				wg.Done()
			}
		}(w)
	}

	for i := range arts {
		if arts[i].ContentEncoded != "" {
			continue
		}
		wg.Add(1)
		indexChan <- i
	}

	wg.Wait()
	close(indexChan)
}

func extractContent(a *types.Article) error {
	extracted, err := readability.FromURL(a.Link, extractorTimeout)
	if err != nil {
		return err
	}

	a.ContentEncoded = extracted.Content
	if a.Description == "" {
		a.Description = extracted.Excerpt
	}
	if a.Thumbnail == "" {
		a.Thumbnail = extracted.Image
	}
	if a.Creator == "" {
		a.Creator = extracted.Byline
	}

	log.Printf("Extracted content for: %s", a.Title)
	return nil
}
