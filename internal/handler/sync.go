package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facegate/internal/model"
	"facegate/internal/service"
)

// SyncHandler exposes the two-way sync exchange to the remote peer.
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Export returns everything changed since the watermark
// @Summary Export snapshot
// @Description Returns operators, logs and admins created or mutated since the watermark; face images are inlined base64
// @Tags Sync
// @Produce json
// @Param since query string false "ISO8601 watermark; unparsable values fall back to 2000-01-01T00:00:00"
// @Success 200 {object} model.Snapshot
// @Failure 500 {object} map[string]string
// @Router /sync/all [get]
func (h *SyncHandler) Export(c *gin.Context) {
	since := service.ParseSince(c.Query("since"))

	snap, err := h.syncService.ExportSince(since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Import merges a snapshot from the peer
// @Summary Import snapshot
// @Description Applies a peer snapshot; bad items are reported per item and never abort the batch
// @Tags Sync
// @Accept json
// @Produce json
// @Param snapshot body model.Snapshot true "Peer snapshot"
// @Success 200 {object} model.ImportResult
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /sync/all [post]
func (h *SyncHandler) Import(c *gin.Context) {
	var snap model.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.ImportSnapshot(&snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
