package route

import (
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"
)

// RouterLoader mounts routes on the gin engine.
type RouterLoader func(r *gin.Engine) error

// RouteType selects the listener a plugin's routes are served on.
type RouteType int

const (
	// RouteTypeMain routes are served on the API listener.
	RouteTypeMain RouteType = iota
	// RouteTypeManagement routes (health, metrics) are served on the management
	// listener when one is configured and on the API listener otherwise.
	RouteTypeManagement
)

func (t RouteType) String() string {
	if t == RouteTypeManagement {
		return "management"
	}
	return "main"
}

// Plugin is a self-registering set of routes. Routes that need runtime
// dependencies are mounted directly by the server instead.
type Plugin struct {
	Name   string
	Order  int
	Type   RouteType
	Loader RouterLoader
}

var plugins []Plugin

// Register adds a route plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Plugins returns the registered plugins of type t in mount order.
func Plugins(t RouteType) []Plugin {
	var out []Plugin
	for _, p := range plugins {
		if p.Type == t {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Mount mounts every plugin of type t on r.
func Mount(r *gin.Engine, t RouteType) error {
	for _, p := range Plugins(t) {
		if err := p.Loader(r); err != nil {
			return fmt.Errorf("%s routes %q: %w", t, p.Name, err)
		}
	}
	return nil
}
