// Package store serves the persistent entry store written by build syncs.
package store

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/model"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts read-only routes over the entry store.
func MountRoutes(r *gin.Engine, store registrystore.EntryStore) {
	g := r.Group("/v1/store")

	g.GET("/entries", func(c *gin.Context) {
		rows, err := store.List(c.Request.Context())
		if err != nil {
			handleError(c, err)
			return
		}
		out := make([]storedEntryResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toResponse(row))
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	})
	g.GET("/entries/*id", func(c *gin.Context) {
		row, err := store.Get(c.Request.Context(), strings.Trim(c.Param("id"), "/"))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, toResponse(*row))
	})
}

type storedEntryResponse struct {
	model.ContentEntry
	Digest   string `json:"digest"`
	SyncedAt string `json:"syncedAt"`
}

func toResponse(row model.StoredEntry) storedEntryResponse {
	return storedEntryResponse{
		ContentEntry: row.ContentEntry(),
		Digest:       row.Digest,
		SyncedAt:     row.SyncedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func handleError(c *gin.Context, err error) {
	if registrystore.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.Error("Store API error", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
