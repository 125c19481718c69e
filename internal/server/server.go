// Package server provides the HTTP surface for vectord.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ar4mirez/vectord/internal/collection"
	"github.com/ar4mirez/vectord/internal/config"
	"github.com/ar4mirez/vectord/internal/metrics"
	"github.com/ar4mirez/vectord/internal/record"
)

// Server exposes the record store and collection dispatch over HTTP.
type Server struct {
	cfg        *config.Config
	store      record.Store
	collection *collection.Collection
	logger     *zap.Logger
	router     *gin.Engine
	server     *http.Server
	metrics    *metrics.Metrics
}

// New creates a new HTTP server wrapping store and coll.
func New(cfg *config.Config, store record.Store, coll *collection.Collection, logger *zap.Logger) *Server {
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	s := &Server{
		cfg:        cfg,
		store:      store,
		collection: coll,
		logger:     logger,
		router:     router,
		metrics:    metrics.Default(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.timeoutMiddleware())
}

// loggingMiddleware logs requests and records metrics.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)

		s.metrics.RecordHTTPRequest(method, path, status, latency.Seconds())
	}
}

// corsMiddleware handles CORS for the configured origins.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, o := range s.cfg.Server.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// timeoutMiddleware bounds request handling by the configured timeout.
// A zero or negative timeout leaves the request context unbounded.
func (s *Server) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Server.RequestTimeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.RequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.POST("/reset", s.resetHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	{
		libraries := v1.Group("/libraries")
		{
			libraries.POST("", s.createLibrary)
			libraries.GET("", s.listLibraries)
			libraries.GET("/:id", s.getLibrary)
			libraries.PUT("/:id", s.updateLibrary)
			libraries.DELETE("/:id", s.deleteLibrary)
			libraries.GET("/:id/documents", s.listDocumentsByLibrary)
		}

		documents := v1.Group("/documents")
		{
			documents.POST("", s.createDocument)
			documents.GET("/:id", s.getDocument)
			documents.PUT("/:id", s.updateDocument)
			documents.DELETE("/:id", s.deleteDocument)
		}

		chunks := v1.Group("/chunks")
		{
			chunks.POST("", s.createChunk)
			chunks.GET("/:id", s.getChunk)
			chunks.PUT("/:id", s.updateChunk)
			chunks.DELETE("/:id", s.deleteChunk)
		}

		v1.POST("/query", s.query)
		v1.POST("/collections/:collection/reindex/:index_type", s.reindex)
		v1.GET("/stats", s.stats)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.HTTPPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Gin router (for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
