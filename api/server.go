// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/poiesic/deckdex/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultShutdownTimeout bounds how long Run waits for in-flight requests.
const DefaultShutdownTimeout = 30 * time.Second

// Server serves the HTTP API.
type Server struct {
	services        Services
	logger          *slog.Logger
	corsOrigins     []string
	metrics         *telemetry.Metrics
	serviceName     string
	shutdownTimeout time.Duration
	router          *gin.Engine
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger. Nil falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCORSOrigins sets the allowed browser origins. With none, CORS headers
// are not sent.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.corsOrigins = origins
		return nil
	}
}

// WithMetrics records request metrics and ingestion counts.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// WithServiceName names the server in request spans.
func WithServiceName(name string) Option {
	return func(s *Server) error {
		s.serviceName = name
		return nil
	}
}

// WithShutdownTimeout bounds graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return errors.New("shutdown timeout must be positive")
		}
		s.shutdownTimeout = d
		return nil
	}
}

// NewServer builds the router. Set the gin mode before calling it.
func NewServer(services Services, opts ...Option) (*Server, error) {
	if err := services.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		services:        services,
		logger:          slog.Default(),
		serviceName:     "deckdex",
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "api")
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(s.serviceName))
	router.Use(requestID())
	router.Use(requestLogger(s.logger))
	if s.metrics != nil {
		router.Use(recordMetrics(s.metrics))
	}
	if len(s.corsOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = s.corsOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
		corsConfig.ExposeHeaders = []string{RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", s.health)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/decks/ingest", s.ingest)
		apiGroup.POST("/decks/analyze", s.analyze)
		apiGroup.GET("/decks/by-file/:externalFileId", s.deckByExternalID)
		apiGroup.GET("/decks/:id", s.deckByID)
		apiGroup.GET("/search", s.search)
		apiGroup.POST("/chat", s.chat)
	}
	return router
}

// Run listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
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

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server exited")
	return nil
}
