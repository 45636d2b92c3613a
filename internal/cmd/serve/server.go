package serve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/app"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/plugin/route/admin"
	routeassets "github.com/chirino/docsync/internal/plugin/route/assets"
	"github.com/chirino/docsync/internal/plugin/route/entries"
	routestore "github.com/chirino/docsync/internal/plugin/route/store"
	routesystem "github.com/chirino/docsync/internal/plugin/route/system"
	registryasset "github.com/chirino/docsync/internal/registry/asset"
	registryroute "github.com/chirino/docsync/internal/registry/route"
	"github.com/chirino/docsync/internal/security"
	"github.com/chirino/docsync/internal/service"
	"github.com/gin-gonic/gin"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config     *config.Config
	Components *app.Components
	Sync       *service.SyncService
	Router     *gin.Engine
	Running    *RunningListener
	Management *RunningListener
	cancel     context.CancelFunc
}

// Shutdown stops background syncs, drains the listeners and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	routesystem.MarkNotReady()
	if s.cancel != nil {
		s.cancel()
	}
	if s.Management != nil {
		_ = s.Management.Close(ctx)
	}
	err := s.Running.Close(ctx)
	if cerr := s.Components.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// StartServer initializes all subsystems and starts the HTTP listeners.
// Use cfg.Listener.Port=0 for a random port. Actual port: Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting docsync",
		"httpPort", cfg.Listener.Port,
		"namespace", cfg.Namespace(),
		"db", cfg.DatastoreType,
		"cache", cfg.CacheType,
		"assets", cfg.AssetType,
	)

	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	components, err := app.Assemble(ctx, cfg, app.Options{})
	if err != nil {
		return nil, err
	}

	router := newRouter(cfg)
	if err := registryroute.Mount(router, registryroute.RouteTypeMain); err != nil {
		_ = components.Close()
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	syncSvc := service.NewSyncService(components.Build, cfg.SyncInterval, components.Runtime)

	entries.MountRoutes(router, components.Runtime)
	routestore.MountRoutes(router, components.Store)
	admin.MountRoutes(router, syncSvc, components.Runtime)
	if dir, ok := components.Assets.(registryasset.LocalDirectory); ok {
		routeassets.MountRoutes(router, cfg.AssetPublicPrefix, dir.Dir())
	}

	var management *RunningListener
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		if err := registryroute.Mount(mgmtRouter, registryroute.RouteTypeManagement); err != nil {
			_ = components.Close()
			return nil, fmt.Errorf("failed to load management routes: %w", err)
		}
		// Management listener shares TLS cert/key with the main listener.
		mgmtCfg := cfg.ManagementListener
		mgmtCfg.TLSCertFile = cfg.Listener.TLSCertFile
		mgmtCfg.TLSKeyFile = cfg.Listener.TLSKeyFile
		mgmtCfg.ReadHeaderTimeout = cfg.Listener.ReadHeaderTimeout
		management, err = startListener("management", mgmtCfg, mgmtRouter)
		if err != nil {
			_ = components.Close()
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
		log.Info("Management server listening", "addr", management.Addr)
	} else {
		if err := registryroute.Mount(router, registryroute.RouteTypeManagement); err != nil {
			_ = components.Close()
			return nil, fmt.Errorf("failed to load management routes: %w", err)
		}
	}

	running, err := startListener("main", cfg.Listener, router)
	if err != nil {
		if management != nil {
			_ = management.Close(ctx)
		}
		_ = components.Close()
		return nil, err
	}
	log.Info("Server listening",
		"port", running.Port,
		"plaintext", cfg.Listener.EnablePlainText,
		"tls", cfg.Listener.EnableTLS,
	)

	bgCtx, cancel := context.WithCancel(ctx)
	go syncSvc.Start(bgCtx)

	routesystem.MarkReady()
	return &Server{
		Config:     cfg,
		Components: components,
		Sync:       syncSvc,
		Router:     router,
		Running:    running,
		Management: management,
		cancel:     cancel,
	}, nil
}

func newRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(security.RequestIDMiddleware())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}
	return router
}
