package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/internal/domain"
)

// DownloadQueue is the queue surface the HTTP API drives
type DownloadQueue interface {
	AddDownload(req domain.DownloadRequest) (*domain.Download, error)
	GetDownload(id string) (*domain.Download, error)
	ListDownloads(filters map[string]interface{}) ([]*domain.Download, error)
	GetStats() (*domain.DownloadStats, error)
	CancelDownload(id string) error
	RetryDownload(id string) error
	DeleteDownload(id string) error
}

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	queue    DownloadQueue
	defaults []domain.RequestOption
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler. defaults apply
// before the fields of each request body.
func NewDownloadHandler(queue DownloadQueue, defaults []domain.RequestOption, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		queue:    queue,
		defaults: defaults,
		logger:   logger,
	}
}

// AddDownloadRequest represents a request to add a download
type AddDownloadRequest struct {
	URL          string   `json:"url" binding:"required"`
	Output       string   `json:"output,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	ExtractAudio bool     `json:"extract_audio,omitempty"`
	AudioFormat  string   `json:"audio_format,omitempty"`
	Subtitles    bool     `json:"subtitles,omitempty"`
	SubLangs     []string `json:"sub_langs,omitempty"`
	Playlist     bool     `json:"playlist,omitempty"`
	Concurrency  *int     `json:"concurrency,omitempty"`
}

// toDomain builds the download request, body fields overriding defaults
func (r AddDownloadRequest) toDomain(defaults []domain.RequestOption) domain.DownloadRequest {
	opts := append([]domain.RequestOption(nil), defaults...)
	if r.Output != "" {
		opts = append(opts, domain.WithOutputTemplate(r.Output))
	}
	if r.Quality != "" {
		opts = append(opts, domain.WithQuality(r.Quality))
	}
	if r.ExtractAudio {
		opts = append(opts, domain.WithAudio(r.AudioFormat))
	}
	if r.Subtitles {
		opts = append(opts, domain.WithSubtitles(r.SubLangs...))
	}
	if r.Concurrency != nil {
		opts = append(opts, domain.WithConcurrency(*r.Concurrency))
	}
	opts = append(opts, domain.WithPlaylist(r.Playlist))
	return domain.NewDownloadRequest(r.URL, opts...)
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var body AddDownloadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	download, err := h.queue.AddDownload(body.toDomain(h.defaults))
	if err != nil {
		h.fail(c, "Failed to add download", err)
		return
	}

	c.JSON(http.StatusCreated, download)
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	download, err := h.queue.GetDownload(c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get download", err)
		return
	}

	c.JSON(http.StatusOK, download)
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		if !domain.ValidateStatus(domain.DownloadStatus(status)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + status})
			return
		}
		filters["status"] = status
	}
	if batchID := c.Query("batch_id"); batchID != "" {
		filters["batch_id"] = batchID
	}
	if source := c.Query("source"); source != "" {
		filters["source"] = source
	}

	downloads, err := h.queue.ListDownloads(filters)
	if err != nil {
		h.fail(c, "Failed to list downloads", err)
		return
	}
	if downloads == nil {
		downloads = []*domain.Download{}
	}

	c.JSON(http.StatusOK, downloads)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.GetStats()
	if err != nil {
		h.fail(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelDownload handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	if err := h.queue.CancelDownload(c.Param("id")); err != nil {
		h.fail(c, "Failed to cancel download", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download cancelled"})
}

// RetryDownload handles POST /api/v1/downloads/:id/retry
func (h *DownloadHandler) RetryDownload(c *gin.Context) {
	if err := h.queue.RetryDownload(c.Param("id")); err != nil {
		h.fail(c, "Failed to retry download", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download queued for retry"})
}

// DeleteDownload handles DELETE /api/v1/downloads/:id
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	if err := h.queue.DeleteDownload(c.Param("id")); err != nil {
		h.fail(c, "Failed to delete download", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download deleted"})
}

func (h *DownloadHandler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("id", c.Param("id")), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMetadata):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
