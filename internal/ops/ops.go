// Package ops serves health and profiling endpoints on a side port.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"shoptrends/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatsFunc reports runtime counters included in /healthz
type StatsFunc func() map[string]interface{}

// App is the ops side server
type App struct {
	router  *chi.Mux
	stats   StatsFunc
	started time.Time
	logger  *internal.Logger
}

// NewApp creates the ops router. stats may be nil.
func NewApp(stats StatsFunc, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:  chi.NewRouter(),
		stats:   stats,
		started: time.Now(),
		logger:  logger,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Mount("/debug", middleware.Profiler())
}

// Handler returns the router
func (a *App) Handler() http.Handler {
	return a.router
}

// Start listens on addr until ctx is cancelled
func (a *App) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a.router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("[Ops] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(a.started).Round(time.Second).String(),
	}
	if a.stats != nil {
		for k, v := range a.stats() {
			body[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("[Ops] Failed to encode health response: %v", err)
	}
}
