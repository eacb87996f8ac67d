package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glucolog/backend/internal/service"
)

// ChatHandler bridges the chat widget to the language-model service. Every
// failure degrades to a fixed apology reply; raw errors never reach the
// client.
type ChatHandler struct {
	llm      service.LLMClient
	readings *service.ReadingService
}

func NewChatHandler(llm service.LLMClient, readings *service.ReadingService) *ChatHandler {
	return &ChatHandler{
		llm:      llm,
		readings: readings,
	}
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data format"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		// An empty message asks about the user's most recent reading.
		latest, err := h.readings.Latest(c.Request.Context(), userID)
		if err != nil || latest == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		message = service.LatestReadingPrompt(latest)
	}

	if h.llm == nil {
		c.JSON(http.StatusOK, gin.H{"reply": service.FallbackReply})
		return
	}

	reply, err := h.llm.Chat(c.Request.Context(), message)
	if err != nil {
		log.Printf("[ChatHandler] language model call failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"reply": service.FallbackReply})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
