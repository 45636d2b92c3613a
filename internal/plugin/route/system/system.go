// Package system serves liveness, readiness and Prometheus metrics.
package system

import (
	"net/http"
	"sync/atomic"

	registryroute "github.com/chirino/docsync/internal/registry/route"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

var state atomic.Int32

// MarkReady reports the server as ready once stores, caches and listeners are up.
func MarkReady() {
	state.Store(stateReady)
}

// MarkNotReady flips readiness back while draining on shutdown.
func MarkNotReady() {
	state.Store(stateDraining)
}

func init() {
	registryroute.Register(registryroute.Plugin{
		Name:  "system",
		Order: 0,
		Type:  registryroute.RouteTypeManagement,
		Loader: func(r *gin.Engine) error {
			r.GET("/health", health)
			r.GET("/ready", readiness)
			r.GET("/metrics", gin.WrapH(promhttp.Handler()))
			return nil
		},
	})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readiness(c *gin.Context) {
	switch state.Load() {
	case stateReady:
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	case stateDraining:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "draining"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
	}
}
