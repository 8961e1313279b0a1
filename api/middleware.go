package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/search"
	"github.com/poiesic/deckdex/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// requestID reuses the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("request.id", id))
		c.Next()
	}
}

// RequestID returns the id assigned to the request, or "" outside the
// middleware chain.
func RequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"request_id", RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP())
	}
}

// recordMetrics feeds the request counter and duration histogram.
func recordMetrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}

// degradedCounter is a search monitor that counts lexical-only searches.
type degradedCounter struct {
	ctx     context.Context
	metrics *telemetry.Metrics
}

var _ search.SearchMonitor = degradedCounter{}

func (d degradedCounter) Degraded(_ error) {
	d.metrics.RecordDegradedSearch(d.ctx)
}

func (degradedCounter) Start(_ string, _ int)                      {}
func (degradedCounter) AfterLexicalSearch(_ []*core.SearchResult)  {}
func (degradedCounter) AfterSemanticSearch(_ []*core.SearchResult) {}
func (degradedCounter) Finish(_ []*core.SearchResult)              {}
