package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glucolog/backend/internal/analysis"
	"github.com/glucolog/backend/internal/models"
)

// AnalyzeHandler runs the classifiers over a record set posted by the
// client. The endpoint is stateless: nothing is read from or written to the
// store.
type AnalyzeHandler struct{}

func NewAnalyzeHandler() *AnalyzeHandler {
	return &AnalyzeHandler{}
}

type analyzeRequest struct {
	Records []models.Reading `json:"records"`
}

func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data"})
		return
	}

	c.JSON(http.StatusOK, analysis.Summarize(req.Records))
}
