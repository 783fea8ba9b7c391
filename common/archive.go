package common

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"

	"newsvec/types"
)

// Archiver writes a JSON snapshot of each newly ingested article to S3.
// Upload failures are logged; the pipeline never waits on or aborts for
// the archive.
type Archiver struct {
	s3     *S3
	bucket string
	prefix string
}

// NewArchiver wraps an S3 client targeting bucket with an optional key
// prefix (already normalized to end with "/").
func NewArchiver(s3c *S3, bucket, prefix string) *Archiver {
	return &Archiver{s3: s3c, bucket: bucket, prefix: prefix}
}

// ArticleIngested stores the article under <prefix>articles/<id>.json.
func (a *Archiver) ArticleIngested(ctx context.Context, art *types.Article) {
	payload, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		log.Printf("Warning: failed to encode article %s for archive: %v", art.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	key := a.prefix + "articles/" + art.ID + ".json"
	if err := a.s3.Put(ctx, a.bucket, key, bytes.NewReader(payload), "application/json"); err != nil {
		log.Printf("Warning: S3 archive failed for %s: %v", art.ID, err)
		return
	}

	log.Printf("Archived article %s to s3://%s/%s", art.ID, a.bucket, key)
}
