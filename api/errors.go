package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// ErrServiceRequired is returned by NewServer when a component is missing.
var ErrServiceRequired = errors.New("service is required")

func errMissingService(name string) error {
	return fmt.Errorf("%w: %s", ErrServiceRequired, name)
}

// statusFor maps an error chain onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ai.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrEmbeddingProvider),
		errors.Is(err, ai.ErrCompletionProvider),
		errors.Is(err, analysis.ErrMalformedContent):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abort writes the error response. Internal failures are logged and their
// details withheld from the client.
func abort(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "request_id", RequestID(c), "path", c.FullPath(), "err", err)
		message = http.StatusText(status)
	} else {
		logger.Warn("request rejected", "request_id", RequestID(c), "status", status, "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
