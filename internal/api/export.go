package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glucolog/backend/internal/models"
	"github.com/glucolog/backend/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ExportHandler streams XLSX/PDF exports of the caller's (filtered) readings
// and optionally shares them through S3.
type ExportHandler struct {
	readings *service.ReadingService
	exports  *service.ExportService
}

func NewExportHandler(readings *service.ReadingService, exports *service.ExportService) *ExportHandler {
	return &ExportHandler{
		readings: readings,
		exports:  exports,
	}
}

func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", contentTypeXLSX, h.exports.BuildXLSX)
}

func (h *ExportHandler) ExportPDF(c *gin.Context) {
	h.export(c, "pdf", contentTypePDF, h.exports.BuildPDF)
}

func (h *ExportHandler) export(c *gin.Context, extension, contentType string, build func([]models.Reading) ([]byte, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	filter := service.ReadingFilter{
		Search:    c.Query("search"),
		Date:      c.Query("date"),
		Condition: c.Query("condition"),
	}

	records, err := h.readings.List(c.Request.Context(), userID, filter)
	if err != nil {
		log.Printf("[ExportHandler] failed to fetch records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	data, err := build(records)
	if err != nil {
		log.Printf("[ExportHandler] failed to build export: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}

	if c.Query("share") == "true" {
		if !h.exports.CanShare() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export sharing is not configured"})
			return
		}
		url, err := h.exports.Share(c.Request.Context(), data, extension, contentType)
		if err != nil {
			log.Printf("[ExportHandler] failed to share export: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to share export"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="catatan-gula-darah.`+extension+`"`)
	c.Data(http.StatusOK, contentType, data)
}
