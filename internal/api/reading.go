package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glucolog/backend/internal/analysis"
	"github.com/glucolog/backend/internal/service"
)

// ReadingHandler exposes the reading CRUD surface plus the server-side
// analysis endpoints.
type ReadingHandler struct {
	readings *service.ReadingService
}

func NewReadingHandler(readings *service.ReadingService) *ReadingHandler {
	return &ReadingHandler{readings: readings}
}

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func (h *ReadingHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	filter := service.ReadingFilter{
		Search:    c.Query("search"),
		Date:      c.Query("date"),
		Condition: c.Query("condition"),
	}

	records, err := h.readings.List(c.Request.Context(), userID, filter)
	if err != nil {
		log.Printf("[ReadingHandler] failed to fetch records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to fetch records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// Latest serves the newest reading for an explicit userId. The route is
// public by contract; the caller supplies the owner id.
func (h *ReadingHandler) Latest(c *gin.Context) {
	userIDStr := c.Query("userId")
	if userIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	reading, err := h.readings.Latest(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[ReadingHandler] failed to fetch latest record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest record"})
		return
	}

	// nil marshals to a JSON null body, matching the documented contract.
	c.JSON(http.StatusOK, reading)
}

func (h *ReadingHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	var req ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid data format"})
		return
	}
	if !req.hasRequiredFields() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "incomplete data"})
		return
	}

	reading, err := h.readings.Create(c.Request.Context(), userID, service.ReadingInput{
		Date:        req.Date,
		Time:        req.Time,
		BloodSugar:  float64(req.BloodSugar),
		Age:         string(req.Age),
		Type:        req.Type,
		Description: req.Description,
		Condition:   req.Condition,
	})
	if err != nil {
		log.Printf("[ReadingHandler] failed to create record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": reading})
}

func (h *ReadingHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	var req UpdateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid data format"})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record id is required"})
		return
	}
	// A malformed id cannot name a record, so it reads as absent.
	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	update := service.ReadingUpdate{
		Date:        req.Date,
		Time:        req.Time,
		Type:        req.Type,
		Description: req.Description,
		Condition:   req.Condition,
	}
	if req.BloodSugar != nil {
		v := float64(*req.BloodSugar)
		update.BloodSugar = &v
	}
	if req.Age != nil {
		a := string(*req.Age)
		update.Age = &a
	}

	reading, err := h.readings.Update(c.Request.Context(), userID, id, update)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if err != nil {
		log.Printf("[ReadingHandler] failed to update record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": reading})
}

func (h *ReadingHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	idStr := c.Query("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record id is required"})
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	err = h.readings.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if err != nil {
		log.Printf("[ReadingHandler] failed to delete record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "record deleted"})
}

// Status exposes the shared instantaneous classifier so client-side form
// feedback uses the same thresholds as the analysis endpoints.
func (h *ReadingHandler) Status(c *gin.Context) {
	valueStr := c.Query("value")
	if valueStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": analysis.Status(value, c.Query("age"))})
}

// Analysis serves the cached classifier summary over the caller's stored
// readings.
func (h *ReadingHandler) Analysis(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	summary, err := h.readings.AnalysisSummary(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[ReadingHandler] failed to compute analysis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze data"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
