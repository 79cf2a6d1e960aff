// Package ui serves the dashboard page and its JSON/SSE API.
package ui

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"shoptrends/internal"
	"shoptrends/internal/api"
	"shoptrends/internal/dashboard"
	"shoptrends/internal/errors"
	"shoptrends/internal/session"
	"shoptrends/internal/telemetry"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static
var embeddedFiles embed.FS

// Server is the dashboard web server
type Server struct {
	router    *gin.Engine
	board     *dashboard.Dashboard
	sessions  *session.Manager
	hub       *api.SSEHub
	templates *template.Template
	logger    *internal.Logger

	// draining is cancelled when the HTTP server begins shutting down, ending open streams
	draining context.Context
	drain    context.CancelFunc
}

// Deps are the components the server routes to
type Deps struct {
	Board    *dashboard.Dashboard
	Sessions *session.Manager
	Hub      *api.SSEHub
	Logger   *internal.Logger
	// Tracing wraps every request in a server span
	Tracing bool
}

// NewServer parses the embedded templates and builds the router
func NewServer(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}

	templates, err := template.New("").Funcs(templateFuncs).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:    gin.New(),
		board:     deps.Board,
		sessions:  deps.Sessions,
		hub:       deps.Hub,
		templates: templates,
		logger:    deps.Logger,
	}
	s.draining, s.drain = context.WithCancel(context.Background())
	if err := s.setupMiddleware(deps.Tracing); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware and static files
func (s *Server) setupMiddleware(tracing bool) error {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	if tracing {
		s.router.Use(telemetry.Middleware())
	}

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return errors.Wrap(err, "failed to open embedded static files")
	}
	s.logger.Debug("[Static] Serving static files from embedded FS at /static")
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/api")
	v1.GET("/controls", s.handleControls)
	v1.POST("/sessions", s.handleCreateSession)

	sessions := v1.Group("/sessions/:id", s.loadSession)
	sessions.GET("/outputs", s.handleOutputs)
	sessions.POST("/controls", s.handleControlEvent)
	sessions.POST("/reset", s.handleReset)
	sessions.GET("/table", s.handleTable)
	sessions.GET("/table.csv", s.handleTableCSV)
	sessions.GET("/charts/:file", s.handleChartPNG)
	sessions.GET("/events", s.handleEvents)
	sessions.DELETE("", s.handleDeleteSession)
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener. Event streams are closed as soon as shutdown
// begins, since http.Server.Shutdown waits for every handler to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(s.drain)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[Server] Starting dashboard on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
