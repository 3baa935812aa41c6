package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"dataprobe/app"
	"dataprobe/internal"
	"dataprobe/internal/metrics"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html templates/fragments/*.html static/*
var embeddedFiles embed.FS

// Config holds UI server settings
type Config struct {
	GinMode        string
	MaxUploadBytes int64
}

// Server is the browser-facing surface: a single page whose panels are
// filled in by htmx fragment requests. Non-htmx clients get JSON.
type Server struct {
	router     *gin.Engine
	controller *app.SessionController
	templates  *template.Template
	config     Config
	logger     *internal.Logger
}

// NewServer creates the UI server for one session controller
func NewServer(controller *app.SessionController, config Config) (*Server, error) {
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 50 << 20
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     gin.New(),
		controller: controller,
		templates:  templates,
		config:     config,
		logger:     internal.DefaultLogger.With("UIServer"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"until": func(n int) []int {
			res := make([]int, n)
			for i := range res {
				res[i] = i
			}
			return res
		},
		"seconds": func(d time.Duration) string { return fmt.Sprintf("%.1fs", d.Seconds()) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(metrics.GinMiddleware())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.logger.Error("static files unavailable: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	{
		api.POST("/dataset/upload", s.limitBody(), s.handleUpload)
		api.GET("/dataset/info", s.handleInfo)
		api.GET("/dataset/preview", s.handlePreview)
		api.GET("/dataset/dtypes", s.handleDTypes)
		api.GET("/dataset/summary", s.handleSummary)
		api.GET("/dataset/columns", s.handleColumns)

		api.GET("/columns/:name/histogram", s.handleHistogram)
		api.GET("/dataset/histogram", s.handleHistogram)
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/ask", s.handleAsk)
		api.POST("/query", s.handleQuery)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an http.Server listening on addr. Write
// timeouts are left open because questions can run for minutes.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
