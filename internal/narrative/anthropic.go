package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/astralworks/starlog/internal/errors"
)

const (
	anthropicAPIBase    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
	defaultMaxTokens    = 512
	defaultModel        = "claude-sonnet-4-5"
)

// AnthropicClient implements TextCompleter against the Anthropic Messages API.
type AnthropicClient struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// AnthropicOption configures the client.
type AnthropicOption func(*AnthropicClient)

func WithModel(model string) AnthropicOption {
	return func(c *AnthropicClient) { c.model = model }
}

func WithMaxTokens(n int) AnthropicOption {
	return func(c *AnthropicClient) { c.maxTokens = n }
}

func WithHTTPClient(h *http.Client) AnthropicOption {
	return func(c *AnthropicClient) { c.client = h }
}

// NewAnthropicClient constructs a new client.
func NewAnthropicClient(apiKey string, opts ...AnthropicOption) *AnthropicClient {
	c := &AnthropicClient{
		apiKey:    apiKey,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ModelID returns the configured model identifier.
func (c *AnthropicClient) ModelID() string { return c.model }

// ---- Anthropic wire types ----

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
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
	} `json:"error,omitempty"`
}

// Complete sends a blocking completion request and returns the text.
func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	ar := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(ar)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		anthropicAPIBase+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &errors.CollaboratorError{Collaborator: "narrative", Message: "http request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewCollaboratorError("narrative", resp.StatusCode, string(raw))
	}

	var ares anthropicResponse
	if err := json.Unmarshal(raw, &ares); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if ares.Error != nil {
		return "", errors.NewCollaboratorError("narrative", resp.StatusCode, ares.Error.Message)
	}

	for _, block := range ares.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.NewCollaboratorError("narrative", resp.StatusCode, "response contained no text block")
}
