// Package assets serves localized images from a local asset directory.
package assets

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// MountRoutes serves dir under prefix. It is a no-op when dir is empty.
func MountRoutes(r *gin.Engine, prefix, dir string) {
	if strings.TrimSpace(dir) == "" {
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")
	g := r.Group(prefix, func(c *gin.Context) {
		// Names are content addressed, so a cached copy never goes stale.
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Next()
	})
	g.StaticFS("/", gin.Dir(dir, false))
}
