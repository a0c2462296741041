// Package ai talks to an OpenAI-compatible chat completions endpoint to
// explain words and generate practice questions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/wordmemo/internal/config"
	"github.com/example/wordmemo/internal/logger"
)

var (
	// ErrTimeout is returned when the endpoint does not answer within the
	// configured timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrMissingAPIKey is returned by New when no key is configured.
	ErrMissingAPIKey = errors.New("LLM API key is not configured")
	// ErrInvalidResponse is returned when the model output misses required fields.
	ErrInvalidResponse = errors.New("invalid response format")
)

const (
	defaultTimeout      = 30 * time.Second
	questionTemperature = 0.5
)

// Client represents a client for an OpenAI-compatible chat completions API
type Client struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	timeout     time.Duration
	httpClient  *http.Client
	log         *logger.Logger
}

// New creates a new client from the LLM configuration
func New(cfg config.LLMConfig, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIEndpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		httpClient:  &http.Client{},
		log:         log.With("component", "ai"),
	}, nil
}

// Message represents a message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// ChatResponse represents a response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete sends one request and decodes the JSON object the model returned into out
func (c *Client) complete(ctx context.Context, system, user string, temperature float64, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(requestData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&response)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && response.Error != nil && response.Error.Message != "" {
			return fmt.Errorf("API error: %s", response.Error.Message)
		}
		return fmt.Errorf("API error: %s", resp.Status)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if response.Error != nil {
		return fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return fmt.Errorf("no response choices returned")
	}

	c.log.Debug("completion received", "model", c.model, "duration", time.Since(start))

	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
