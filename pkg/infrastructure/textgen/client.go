// Package textgen talks to an OpenAI-compatible chat completions endpoint.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	shared "github.com/ripixel/fitplan-server/pkg"
)

const (
	DefaultBaseURL       = "https://api.groq.com/openai/v1"
	DefaultModel         = "llama-3.3-70b-versatile"
	DefaultFallbackModel = "llama-3.1-8b-instant"
	DefaultTemperature   = 0.4

	// StaticSource marks results that never reached a model.
	StaticSource = "static"
)

// staticReply is returned when no model produced usable text.
const staticReply = "Program generation is temporarily unavailable."

// Client is a chat completions client that tries the primary model, then
// the fallback model, and finally returns a static reply. It never fails.
type Client struct {
	baseURL       string
	apiKey        string
	model         string
	fallbackModel string
	httpClient    *http.Client
	logger        *slog.Logger
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient builds a client. Empty arguments take the package defaults.
func NewClient(baseURL, apiKey, model, fallbackModel string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if fallbackModel == "" {
		fallbackModel = DefaultFallbackModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		model:         model,
		fallbackModel: fallbackModel,
		httpClient:    &http.Client{Timeout: 90 * time.Second},
		logger:        logger,
	}
}

var _ shared.TextGenerator = (*Client)(nil)

// Generate implements shared.TextGenerator.
func (c *Client) Generate(ctx context.Context, req shared.TextRequest) shared.TextResult {
	if c.apiKey == "" {
		c.logger.Warn("Text generation disabled: no API key")
		return shared.TextResult{Text: staticReply, Source: StaticSource, UsedFallback: true}
	}

	messages := []Message{}
	if req.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: req.Prompt})

	models := []string{c.model}
	if c.fallbackModel != c.model {
		models = append(models, c.fallbackModel)
	}
	for _, model := range models {
		if ctx.Err() != nil {
			break
		}
		text, err := c.chatWithModel(ctx, messages, model, req.MaxTokens)
		if err == nil {
			return shared.TextResult{Text: text, Source: model}
		}
		c.logger.Warn("Text generation attempt failed", "model", model, "error", err)
	}
	return shared.TextResult{Text: staticReply, Source: StaticSource, UsedFallback: true}
}

func (c *Client) chatWithModel(ctx context.Context, messages []Message, model string, maxTokens int) (string, error) {
	body, err := json.Marshal(ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: DefaultTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("api error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return chatResp.Choices[0].Message.Content, nil
}
