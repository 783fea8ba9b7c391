package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultSearchLimit = 10

// RegisterArticleRoutes registers search, listing, and stats endpoints.
func RegisterArticleRoutes(r *gin.Engine, repo ArticleSearcher, collectionName string) {
	g := r.Group("/api/articles")
	g.GET("", handleListArticles(repo))
	g.GET("/search", handleSearchArticles(repo))

	r.GET("/api/stats", handleStats(repo, collectionName))
}

// handleSearchArticles serves GET /api/articles/search?q=...&limit=N.
// An empty query degrades to an unranked listing; a degraded store
// yields an empty result list, never an error.
func handleSearchArticles(repo ArticleSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}

		results, err := repo.Search(c.Request.Context(), c.Query("q"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"query":   c.Query("q"),
			"count":   len(results),
			"results": results,
		})
	}
}

// handleListArticles serves GET /api/articles?limit=N.
func handleListArticles(repo ArticleSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}

		results, err := repo.List(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":   len(results),
			"results": results,
		})
	}
}

// handleStats serves GET /api/stats with the collection name and size.
func handleStats(repo ArticleSearcher, collectionName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := repo.Count(c.Request.Context())
		available := err == nil

		c.JSON(http.StatusOK, gin.H{
			"collection": collectionName,
			"count":      count,
			"available":  available,
		})
	}
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultSearchLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return limit, true
}
