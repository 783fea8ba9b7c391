// Package api exposes the search and seeding surface over HTTP.
package api

import (
	"context"

	"newsvec/types"

	"github.com/gin-gonic/gin"
)

// ArticleSearcher is the repository surface the article routes use.
type ArticleSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.Article, error)
	List(ctx context.Context, limit int) ([]types.Article, error)
	Count(ctx context.Context) (int, error)
}

// SeedRunner triggers a seeding run from a site-list file.
type SeedRunner interface {
	SeedFromFile(ctx context.Context, path string) error
}

// RouterConfig carries the dependencies and settings the router needs.
type RouterConfig struct {
	Articles        ArticleSearcher
	Seeder          SeedRunner
	CollectionName  string
	DefaultSeedFile string
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterArticleRoutes(r, cfg.Articles, cfg.CollectionName)
	RegisterSeedRoutes(r, cfg.Seeder, cfg.DefaultSeedFile)
	RegisterHealthRoutes(r)
	return r
}
