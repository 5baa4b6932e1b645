// ABOUTME: LLM client abstraction and an OpenAI-compatible Chat Completions implementation
// ABOUTME: Non-streaming; works against OpenAI, Ollama, vLLM and other compatible servers

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	nlog "github.com/mauromedda/nlsh/internal/log"
)

const (
	DefaultBaseURL     = "https://api.openai.com"
	DefaultModel       = "gpt-4o-mini"
	chatCompletionPath = "/v1/chat/completions"
)

// ErrEmptyResponse is returned when the server answers without any choice.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client sends one system+user exchange and returns the reply text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleteFunc adapts a function to the Client interface.
type CompleteFunc func(ctx context.Context, system, user string) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// OpenAIConfig configures an OpenAIClient. Zero values take defaults.
type OpenAIConfig struct {
	APIKey      string        // Falls back to $OPENAI_API_KEY.
	BaseURL     string        // Default https://api.openai.com; a trailing /v1 is stripped.
	Model       string        // Default gpt-4o-mini.
	Temperature float64       // Sent as-is; 0 asks for deterministic output.
	MaxTokens   int           // Omitted when zero.
	Timeout     time.Duration // Per request; default 60s.
}

// OpenAIClient implements Client over the Chat Completions API.
type OpenAIClient struct {
	transport *transport
	cfg       OpenAIConfig
}

// NewOpenAIClient creates a client with the given config, applying defaults.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &OpenAIClient{
		transport: newTransport(cfg.BaseURL, headers, cfg.Timeout),
		cfg:       cfg,
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a non-streaming chat completion and returns the first
// choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if system != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: system})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: user})

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	nlog.Debug("http: POST %s%s model=%s", c.transport.baseURL, chatCompletionPath, c.cfg.Model)
	resp, err := c.transport.do(ctx, http.MethodPost, chatCompletionPath, body)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	nlog.Debug("http: POST %s%s → %d", c.transport.baseURL, chatCompletionPath, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("llm API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", fmt.Errorf("llm API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
