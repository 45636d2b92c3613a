// Package entries serves the runtime entry set and its navigation tree.
package entries

import (
	"context"
	"net/http"
	"strings"

	"github.com/chirino/docsync/internal/ingest"
	"github.com/chirino/docsync/internal/model"
	"github.com/chirino/docsync/internal/tree"
	"github.com/gin-gonic/gin"
)

// Source yields the current runtime entry set.
type Source interface {
	SafeEntries(ctx context.Context) ([]model.ContentEntry, error)
}

// MountRoutes mounts the runtime entry routes.
func MountRoutes(r *gin.Engine, source Source) {
	g := r.Group("/v1")

	g.GET("/entries", func(c *gin.Context) {
		entries, ok := load(c, source)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries})
	})
	g.GET("/entries/*id", func(c *gin.Context) {
		entries, ok := load(c, source)
		if !ok {
			return
		}
		id := NormalizeID(c.Param("id"))
		for _, e := range entries {
			if e.ID == id {
				c.JSON(http.StatusOK, e)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found: " + id})
	})
	g.GET("/tree", func(c *gin.Context) {
		entries, ok := load(c, source)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": tree.Build(entries)})
	})
}

// NormalizeID strips leading and trailing slashes from a routed id.
func NormalizeID(raw string) string {
	return strings.Trim(raw, "/")
}

func load(c *gin.Context, source Source) ([]model.ContentEntry, bool) {
	entries, err := source.SafeEntries(c.Request.Context())
	if err != nil {
		c.Header("Retry-After", "30")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "content is temporarily unavailable",
			"retryable": true,
			"remote":    ingest.Retryable(err),
		})
		return nil, false
	}
	return entries, true
}
