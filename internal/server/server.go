// Package server renders the forecast form. Every interaction is one
// synchronous evaluation pass: the request carries the visitor's selection,
// the option sets are recomputed from the shared read-only resources, and the
// page is rendered from scratch.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaranKumar0402/Commodity-price/internal/dataset"
	"github.com/KaranKumar0402/Commodity-price/internal/forecast"
	"github.com/KaranKumar0402/Commodity-price/internal/labels"
	"github.com/KaranKumar0402/Commodity-price/internal/logger"
	"github.com/KaranKumar0402/Commodity-price/internal/models"
	"github.com/KaranKumar0402/Commodity-price/internal/storage"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Notifier receives every successful forecast
type Notifier interface {
	NotifyForecast(f *models.Forecast) error
}

// Options wires the server to the process-wide resources. Table, Labels and
// Model are read-only after startup; Store holds per-session state.
type Options struct {
	Table         *dataset.Table
	Labels        *labels.Set
	Model         forecast.Predictor
	Store         *storage.Storage
	Notifier      Notifier
	DefaultState  string
	SessionCookie string
	SessionTTL    time.Duration
	Mode          string
}

// Server is the HTTP front end
type Server struct {
	router *gin.Engine
	opts   Options
}

// New creates a server and registers its routes
func New(opts Options) (*Server, error) {
	if opts.Table == nil || opts.Labels == nil || opts.Model == nil || opts.Store == nil {
		return nil, errors.New("server requires table, labels, model and store")
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "pricecast_session"
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		router: router,
		opts:   opts,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)

	page := s.router.Group("/", s.session())
	{
		page.GET("/", s.index)
		page.POST("/forecast", s.forecast)
	}

	s.router.GET("/chart.svg", s.chart)
	s.router.GET("/history.xlsx", s.history)
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// requestLogger logs each request through the leveled logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		switch {
		case status >= 500:
			logger.Error("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		case status >= 400:
			logger.Warn("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		default:
			logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		}
	}
}
