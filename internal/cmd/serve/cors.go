package serve

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsExposed = "X-Request-ID, Retry-After"
	corsHeaders = "Content-Type, X-Request-ID"
	corsMethods = "GET, POST, OPTIONS"
)

// originPolicy is the set of browser origins allowed to read responses.
// A nil set matches every origin.
type originPolicy map[string]struct{}

func parseOrigins(csv string) originPolicy {
	var p originPolicy
	for _, raw := range strings.Split(csv, ",") {
		o := strings.TrimSpace(raw)
		if o == "" || o == "*" {
			continue
		}
		if p == nil {
			p = originPolicy{}
		}
		p[o] = struct{}{}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p == nil {
		return true
	}
	_, ok := p[origin]
	return ok
}

// corsMiddleware echoes allowed origins and short-circuits preflight requests.
func corsMiddleware(originsCSV string) gin.HandlerFunc {
	policy := parseOrigins(originsCSV)
	return func(c *gin.Context) {
		if origin := strings.TrimSpace(c.GetHeader("Origin")); policy.allows(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", corsExposed)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Allow-Methods", corsMethods)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
