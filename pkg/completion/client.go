// Package completion submits composed prompts to an OpenAI-compatible chat
// completion endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/prompt"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("completion: API key not set")

	// ErrCompose wraps failures to build the message list, before anything is sent.
	ErrCompose = errors.New("compose messages")
)

// Request is a single generation request.
type Request struct {
	SystemPrompt string           `json:"system_prompt"`
	UserPrompt   string           `json:"user_prompt"`
	Variables    prompt.Variables `json:"variables,omitempty"`
	Options      *llm.Options     `json:"options,omitempty"`
	ImageURL     string           `json:"image_url,omitempty"`
}

// APIError is returned when the provider answers with a non-200 status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion: provider returned %d: %s", e.StatusCode, e.Message)
}

// Client composes messages and sends them to the provider.
type Client struct {
	config     Config
	composer   *prompt.Composer
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a new Client. Missing credentials are not validated here;
// requests fail instead. A zero temperature means DefaultTemperature, use
// llm.Options to request 0 for a single call.
func New(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Temperature == 0 {
		config.Temperature = DefaultTemperature
	}

	return &Client{
		config:   config,
		composer: prompt.NewComposer(config.PromptMode),
		logger:   logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.config.Model
}

// BuildRequest composes the messages for req and returns the provider payload.
func (c *Client) BuildRequest(req Request) (*llm.ChatRequest, error) {
	messages, err := c.composer.Compose(req.SystemPrompt, req.UserPrompt, req.Variables, req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}

	temperature := c.config.Temperature
	chatReq := &llm.ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: &temperature,
	}
	req.Options.Apply(chatReq)

	return chatReq, nil
}

// Generate composes req and submits it, returning the provider's raw response.
func (c *Client) Generate(ctx context.Context, req Request) (*llm.ChatResponse, error) {
	chatReq, err := c.BuildRequest(req)
	if err != nil {
		c.logger.Error("failed to build chat request", zap.Error(err))
		return nil, err
	}

	resp, err := c.send(ctx, chatReq)
	if err != nil {
		c.logger.Error("chat completion failed",
			zap.String("model", chatReq.Model),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("chat completion succeeded",
		zap.String("model", resp.Model),
		zap.Int("choices", len(resp.Choices)),
		zap.Bool("image", req.ImageURL != ""),
	)

	return resp, nil
}

func (c *Client) send(ctx context.Context, chatReq *llm.ChatRequest) (*llm.ChatResponse, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	c.logger.Debug("sending chat completion request",
		zap.String("url", url),
		zap.String("model", chatReq.Model),
		zap.Int("message_count", len(chatReq.Messages)),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: errorMessage(body)}
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	resp.Raw = body

	return &resp, nil
}

// errorMessage extracts the provider's error message, falling back to the raw body.
func errorMessage(body []byte) string {
	var apiErr llm.APIErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return strings.TrimSpace(string(body))
}
