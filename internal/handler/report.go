package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"facegate/internal/service"
)

// ReportHandler serves operator shift reports.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Get returns the JSON report
// @Summary Operator report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param operator_id path string true "Operator ID"
// @Success 200 {object} service.OperatorReport
// @Failure 404 {object} map[string]string
// @Router /api/reports/{operator_id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reportService.GetOperatorReport(c.Request.Context(), c.Param("operator_id"))
	if err != nil {
		if errors.Is(err, service.ErrOperatorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "operator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export downloads the report as an Excel workbook
// @Summary Export operator report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param operator_id path string true "Operator ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /api/reports/{operator_id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	path, err := h.reportService.ExportXLSX(c.Request.Context(), c.Param("operator_id"))
	if err != nil {
		if errors.Is(err, service.ErrOperatorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "operator not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}
