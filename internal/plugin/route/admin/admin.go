// Package admin mounts operator endpoints that trigger work on demand.
package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/ingest"
	"github.com/chirino/docsync/internal/security"
	"github.com/chirino/docsync/internal/service"
	"github.com/gin-gonic/gin"
)

// Syncer runs one build sync.
type Syncer interface {
	RunOnce(ctx context.Context) (*ingest.SyncReport, error)
}

// Invalidator drops the runtime cache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// MountRoutes mounts admin routes. Either dependency may be nil, in which
// case its route answers 404.
func MountRoutes(r *gin.Engine, syncer Syncer, invalidator Invalidator) {
	g := r.Group("/v1/admin")

	g.POST("/sync", func(c *gin.Context) {
		if syncer == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "build sync is not enabled"})
			return
		}
		report, err := syncer.RunOnce(c.Request.Context())
		switch {
		case errors.Is(err, service.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			log.Error("Admin sync failed", "requestId", security.RequestID(c), "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "retryable": ingest.Retryable(err)})
		default:
			c.JSON(http.StatusOK, report)
		}
	})

	g.POST("/cache/invalidate", func(c *gin.Context) {
		if invalidator == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "runtime cache is not enabled"})
			return
		}
		if err := invalidator.Invalidate(c.Request.Context()); err != nil {
			log.Error("Cache invalidation failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
