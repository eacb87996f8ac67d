package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/glucolog/backend/internal/models"
)

// FallbackReply is shown whenever the language-model bridge fails. Raw
// errors never reach the display layer.
const FallbackReply = "Sorry, an error occurred while processing your request."

// systemPrompt is the single canonical prompt contract for the assistant.
const systemPrompt = `You are a professional health assistant helping with general health advice and diabetes-related information.
Provide accurate information and always remind the user that direct medical advice must be discussed with a doctor.
Focus on these topics:
- Diabetes management
- Healthy eating patterns
- Healthy lifestyle
- Blood sugar monitoring
- General health tips`

// LLMClient is the text-in/text-out interface the chat endpoint depends on.
type LLMClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

// LLMService forwards chat messages to an external chat-completions API.
type LLMService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// NewLLMService reads the API credentials from the environment, with a
// secret-file fallback for containerized deployments.
func NewLLMService() (*LLMService, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKeyFile := os.Getenv("LLM_API_KEY_FILE")
		if apiKeyFile == "" {
			return nil, fmt.Errorf("LLM_API_KEY or LLM_API_KEY_FILE must be set")
		}
		apiKeyBytes, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read API key file: %w", err)
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		if apiKey == "" {
			return nil, fmt.Errorf("API key file is empty")
		}
	}

	apiURL := os.Getenv("LLM_API_URL")
	if apiURL == "" {
		apiURL = "https://api.deepseek.com/v1/chat/completions"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "deepseek-chat"
	}

	return &LLMService{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		client: http.DefaultClient,
	}, nil
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// Chat sends the user message under the canonical system prompt and returns
// the completion text unmodified.
func (s *LLMService) Chat(ctx context.Context, message string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// LatestReadingPrompt builds the templated summary sent when the user asks
// about their most recent stored reading instead of typing a question.
func LatestReadingPrompt(r *models.Reading) string {
	return fmt.Sprintf(
		"My latest blood sugar reading was %.0f mg/dL, measured on %s at %s under the %q condition. What does this mean and what should I pay attention to?",
		r.BloodSugar, r.Date, r.Time, r.Condition,
	)
}
