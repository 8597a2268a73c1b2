// Package server exposes the avatar service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/esimov/avatar"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the HTTP surface.
type Options struct {
	// Mode is the gin mode: "debug", "release" or "test".
	Mode string
	// DefaultSize is used when a request has no size parameter.
	DefaultSize int
	// StaticDir, when set, is served under StaticPath. It is the directory
	// of the local file cache.
	StaticDir  string
	StaticPath string
	// Registry collects the HTTP metrics and backs /metrics. Optional.
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Server routes the HTTP requests to the avatar service.
type Server struct {
	svc         *avatar.Service
	router      *gin.Engine
	logger      *zap.Logger
	requests    *prometheus.CounterVec
	defaultSize int
}

// New builds the router.
func New(svc *avatar.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = 80
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	s := &Server{
		svc:         svc,
		router:      gin.New(),
		logger:      opts.Logger,
		defaultSize: opts.DefaultSize,
	}
	if opts.Registry != nil {
		s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avatar",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"})
		opts.Registry.MustRegister(s.requests)
	}

	s.router.Use(gin.Recovery(), requestID(), s.accessLog())

	s.router.GET("/health", s.health)
	s.router.GET("/avatar/:hash", s.icon)
	s.router.GET("/resolve", s.resolve)
	s.router.GET("/check/:hash", s.check)
	if opts.Registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	if opts.StaticDir != "" && opts.StaticPath != "" {
		s.router.Static(opts.StaticPath, opts.StaticDir)
	}

	s.router.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"error": "not found"}) })

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http_listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("http_stopped")
	return nil
}
