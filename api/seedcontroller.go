package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSeedRoutes registers the seeding trigger endpoint.
func RegisterSeedRoutes(r *gin.Engine, seeder SeedRunner, defaultSeedFile string) {
	r.POST("/api/seed", handleSeed(seeder, defaultSeedFile))
}

type seedRequest struct {
	File string `json:"file"`
}

// handleSeed starts a seeding run asynchronously and returns 202. The
// run itself logs per-site and per-feed outcomes.
func handleSeed(seeder SeedRunner, defaultSeedFile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req seedRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		file := req.File
		if file == "" {
			file = defaultSeedFile
		}

		go func() {
			if err := seeder.SeedFromFile(context.Background(), file); err != nil {
				log.Printf("Warning: seeding run failed: %v", err)
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"status": "seeding started", "file": file})
	}
}
