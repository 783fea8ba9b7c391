package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Article is the canonical unit flowing through the pipeline. Link is the
// unique dedup key; ID is derived from it so re-ingesting the same link
// always maps onto the same record.
type Article struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	Creator        string    `json:"creator"`
	PubDate        time.Time `json:"pubDate"`
	Description    string    `json:"description"`
	ContentEncoded string    `json:"contentEncoded"`
	Thumbnail      string    `json:"thumbnail,omitempty"`

	// Distance is only populated on search results; zero for listings.
	Distance float32 `json:"distance,omitempty"`
}

// EmbeddingText returns the text an article's embedding is derived from.
func (a *Article) EmbeddingText() string {
	return a.Title + " " + a.Description + " " + a.ContentEncoded
}

// GenerateID creates a short, stable ID by hashing the article link
func GenerateID(link string) string {
	hash := sha256.Sum256([]byte(link))
	return hex.EncodeToString(hash[:])[:16]
}
