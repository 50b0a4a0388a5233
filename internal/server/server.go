// Package server exposes the session over HTTP with gin, behind the offline
// cache middleware.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/recur/internal/app"
	"github.com/idilsaglam/recur/internal/offline"
)

//go:embed static
var staticFS embed.FS

const shutdownTimeout = 5 * time.Second

type Options struct {
	// CacheName is the offline cache generation to install and activate.
	CacheName string
	Logger    *slog.Logger
}

// Server is the recur web surface.
type Server struct {
	sess   *app.Session
	cache  *offline.Cache
	router *gin.Engine
	log    *slog.Logger
}

// New installs the asset cache and wires the routes.
func New(ctx context.Context, sess *app.Session, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CacheName == "" {
		opts.CacheName = "recur-v1"
	}
	s := &Server{
		sess:  sess,
		cache: offline.New(opts.Logger),
		log:   opts.Logger,
	}
	if err := s.cache.Install(ctx, opts.CacheName, offline.Manifest, fetchAsset); err != nil {
		return nil, err
	}
	if _, err := s.cache.Activate(opts.CacheName); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests, offline.Middleware(s.cache))

	router.GET("/", s.handleAsset)
	router.GET("/index.html", s.handleAsset)
	router.GET("/manifest.json", s.handleAsset)
	router.GET("/favicon.svg", s.handleAsset)
	router.GET("/icon.svg", s.handleAsset)
	router.GET("/app.js", s.handleAsset)

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/complete", s.handleCompleteTask)
		api.GET("/history", s.handleHistory)
		api.DELETE("/history", s.handleClearHistory)
		api.GET("/stats", s.handleStats)
	}
	s.router = router
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Cache returns the offline cache backing the server.
func (s *Server) Cache() *offline.Cache { return s.cache }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"took", time.Since(start))
}

// assetName maps a request path to its file under static/.
func assetName(p string) string {
	if p == "/" {
		p = "/index.html"
	}
	return path.Join("static", p)
}

func readAsset(p string) (offline.Entry, error) {
	body, err := fs.ReadFile(staticFS, assetName(p))
	if err != nil {
		return offline.Entry{}, err
	}
	ct := mime.TypeByExtension(path.Ext(assetName(p)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return offline.Entry{Status: http.StatusOK, ContentType: ct, Body: body}, nil
}

func fetchAsset(_ context.Context, p string) (offline.Entry, error) {
	return readAsset(p)
}
