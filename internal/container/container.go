// Package container wires the dashboard's components from configuration and owns
// their lifecycle.
package container

import (
	"context"
	"fmt"
	"time"

	"shoptrends/adapters/cache"
	"shoptrends/adapters/source"
	"shoptrends/domain/core"
	"shoptrends/domain/dataset"
	"shoptrends/internal"
	"shoptrends/internal/api"
	"shoptrends/internal/config"
	"shoptrends/internal/dashboard"
	"shoptrends/internal/errors"
	"shoptrends/internal/reactive"
	"shoptrends/internal/session"
	"shoptrends/internal/telemetry"
	"shoptrends/internal/testkit"
	"shoptrends/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	Telemetry *telemetry.Provider
	Cache     ports.OutputCache

	// Dashboard components
	Dataset   *dataset.Dataset
	Dashboard *dashboard.Dashboard
	Sessions  *session.Manager
	SSEHub    *api.SSEHub

	// loader is replaceable in tests
	loader ports.DatasetLoader
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	loader := source.NewLoader(cfg.Data.Table, logger)
	loader.S3Endpoint = cfg.Data.S3Endpoint

	return &Container{Config: cfg, Logger: logger, loader: loader}, nil
}

// Init builds every component. Dataset load failures are returned unchanged so the
// caller can abort startup on LOAD_IO / PARSE.
func (c *Container) Init(ctx context.Context) error {
	if err := c.initTelemetry(ctx); err != nil {
		return err
	}
	if err := c.loadDataset(ctx); err != nil {
		return err
	}
	if err := c.initCache(ctx); err != nil {
		return err
	}
	if err := c.initDashboard(); err != nil {
		return err
	}
	c.initSessions()

	c.Logger.Info("[Container] Initialized: %d rows, cache=%s, session TTL %s",
		c.Dataset.Len(), c.Config.Cache.Backend, c.Config.Session.TTL)
	return nil
}

func (c *Container) initTelemetry(ctx context.Context) error {
	p, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:  c.Config.Telemetry.Enabled,
		Endpoint: c.Config.Telemetry.Endpoint,
		Insecure: c.Config.Telemetry.Insecure,
	}, c.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to set up tracing")
	}
	c.Telemetry = p
	return nil
}

// loadDataset reads the configured source, or generates demo rows when none is set
func (c *Container) loadDataset(ctx context.Context) error {
	if c.Config.Data.File == "" {
		c.Logger.Warn("[Container] No DATA_FILE configured, generating %d synthetic rows (seed %d)",
			c.Config.Data.SyntheticRows, c.Config.Data.Seed)
		c.Dataset = testkit.SyntheticDataset(c.Config.Data.SyntheticRows, c.Config.Data.Seed)
		return nil
	}

	ds, err := c.loader.Load(ctx, c.Config.Data.File)
	if err != nil {
		return err
	}
	c.Dataset = ds
	return nil
}

// initCache selects the shared output cache. An unreachable redis falls back to the
// in-process cache.
func (c *Container) initCache(ctx context.Context) error {
	switch c.Config.Cache.Backend {
	case "none":
		return nil

	case "redis":
		rc, err := cache.NewRedisCache(c.Config.Cache.RedisURL)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			c.Logger.Warn("[Container] Redis unavailable, using in-process cache: %v", err)
			_ = rc.Close()
			break
		}
		c.Cache = rc
		return nil
	}

	c.Cache = cache.NewMemoryCache(c.Config.Cache.MaxItems)
	return nil
}

func (c *Container) initDashboard() error {
	opts := dashboard.Options{
		Namespace: c.namespace(),
		Logger:    c.Logger,
	}
	if c.Cache != nil {
		opts.Shared = reactive.NewShared(c.Cache, c.Config.Cache.TTL, c.Logger)
	}

	board, err := dashboard.New(c.Dataset, opts)
	if err != nil {
		return errors.Wrap(err, "failed to build dashboard")
	}
	c.Dashboard = board
	return nil
}

// namespace keys shared outputs to the data source so two deployments reading
// different data never share a cache entry
func (c *Container) namespace() string {
	location := c.Config.Data.File
	if location == "" {
		location = fmt.Sprintf("synthetic:%d", c.Config.Data.Seed)
	}
	h := core.NewHash([]byte(fmt.Sprintf("%s|%s|%d", location, c.Config.Data.Table, c.Dataset.Len())))
	return h.String()[:16]
}

func (c *Container) initSessions() {
	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Sessions = session.NewManager(c.Dashboard, c.Config.Session.TTL, c.Logger)

	// Open streams of an expired session are told to start over
	c.Sessions.OnExpire(func(id core.SessionID) {
		c.SSEHub.Broadcast(api.DashboardEvent{SessionID: id.String(), EventType: api.EventExpired})
	})
}

// Stats reports runtime counters for health endpoints
func (c *Container) Stats() map[string]interface{} {
	stats := map[string]interface{}{}
	if c.Dataset != nil {
		stats["rows"] = c.Dataset.Len()
	}
	if c.Sessions != nil {
		stats["sessions"] = c.Sessions.Len()
	}
	if c.SSEHub != nil {
		stats["streams"] = len(c.SSEHub.ActiveSessions())
	}
	if mc, ok := c.Cache.(*cache.MemoryCache); ok {
		stats["cached_outputs"] = mc.Len()
	}
	return stats
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Stop()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("[Container] Cache close failed: %v", err)
		}
	}
	if c.Telemetry != nil {
		return c.Telemetry.Shutdown(ctx)
	}
	return nil
}
