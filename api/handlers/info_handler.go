package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

// MetadataFetcher describes a source without downloading it
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, source string) (*domain.Metadata, error)
}

// InfoHandler serves metadata queries
type InfoHandler struct {
	fetcher MetadataFetcher
	logger  *zap.Logger
}

// NewInfoHandler creates a new info handler
func NewInfoHandler(fetcher MetadataFetcher, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{fetcher: fetcher, logger: logger}
}

// GetInfo handles GET /api/v1/info?url=
func (h *InfoHandler) GetInfo(c *gin.Context) {
	source := c.Query("url")
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	meta, err := h.fetcher.FetchMetadata(c.Request.Context(), source)
	if err != nil {
		h.logger.Warn("Metadata query failed", zap.String("source", source), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, meta)
}
