package ui

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"heartdash/internal/dashboard"
	"heartdash/ports"
	"heartdash/ui/middleware"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// Server is the dashboard web server. Every request reloads the table from
// the source and renders from scratch; the server keeps no per-user state.
type Server struct {
	router   *gin.Engine
	pages    *Pages
	renderer *dashboard.Renderer
	source   ports.RecordSource
}

// NewServer wires the routes for a renderer and record source
func NewServer(renderer *dashboard.Renderer, source ports.RecordSource) (*Server, error) {
	pages, err := NewPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   gin.Default(),
		pages:    pages,
		renderer: renderer,
		source:   source,
	}
	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware and static files
func (s *Server) setupMiddleware() error {
	s.router.Use(middleware.RequestID())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	log.Printf("[Static] Serving static files from embedded FS at /static")
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/view", s.handleView)
	api.GET("/clusters", s.handleClusters)
	api.GET("/layout", s.handleLayout)
	api.GET("/charts/:section/:key", s.handleChart)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	log.Printf("Starting dashboard on http://%s (source %s)", addr, s.source.Describe())
	return s.router.Run(addr)
}
