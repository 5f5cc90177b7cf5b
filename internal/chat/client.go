// Package chat answers insurance questions with the Anthropic Messages API
// and routes doctor-search intents to the provider directory.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// ErrNotConfigured indicates the Anthropic API key is missing.
var ErrNotConfigured = errors.New("chat: anthropic api key not configured")

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	anthropicVersion = "2023-06-01"
)

// Message is one turn of a conversation sent to the model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Completer produces an assistant reply for a message history.
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

// AnthropicClient calls the Anthropic Messages API directly.
type AnthropicClient struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// AnthropicConfig holds the Messages API settings.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// NewAnthropicClient creates a Messages API client.
func NewAnthropicClient(cfg AnthropicConfig, logger *logging.Logger) *AnthropicClient {
	if logger == nil {
		logger = logging.Default()
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicClient{
		apiKey:     cfg.APIKey,
		model:      model,
		maxTokens:  maxTokens,
		baseURL:    "https://api.anthropic.com",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the API base URL (for testing).
func (c *AnthropicClient) WithBaseURL(baseURL string) *AnthropicClient {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the history to the Messages API and returns the reply text.
func (c *AnthropicClient) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	if len(messages) == 0 {
		return "", errors.New("chat: at least one message required")
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat: anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("chat: read response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("chat: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("chat: anthropic returned status %d: %s", resp.StatusCode, msg)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return "", errors.New("chat: anthropic returned empty content")
	}
	return reply, nil
}
