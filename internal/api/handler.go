package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dfmart/github-repo-metrics/internal/errors"
	"github.com/dfmart/github-repo-metrics/internal/metrics"
	"github.com/dfmart/github-repo-metrics/internal/storage"
)

// Handler handles API requests
type Handler struct {
	store storage.Storage
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage) *Handler {
	return &Handler{store: store}
}

// HealthCheck returns the service health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetRepositories returns the collected record set
// GET /api/v1/repositories
func (h *Handler) GetRepositories(c *gin.Context) {
	records, err := h.store.LoadRecords(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"count": len(records),
	})
}

// GetSummary returns the descriptive statistics over the record set
// GET /api/v1/repositories/summary
func (h *Handler) GetSummary(c *gin.Context) {
	records, err := h.store.LoadRecords(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": metrics.Summarize(records),
	})
}

// GetRuns returns the collection run history
// GET /api/v1/runs
func (h *Handler) GetRuns(c *gin.Context) {
	runs, err := h.store.ListRuns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// respondError maps application errors to HTTP responses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if apperrors.IsPersistence(err) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}
