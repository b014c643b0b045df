package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/postforge/server/internal/shared/logger"
)

// ErrAIUnavailable is returned when the AI backend is down or the circuit
// breaker is open.
var ErrAIUnavailable = errors.New("ai backend unavailable")

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIClient produces completions for a conversation.
type AIClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ClientConfig holds AI client configuration.
type ClientConfig struct {
	BaseURL          string
	APIKey           string
	Model            string
	RequestTimeout   time.Duration
	FailureThreshold uint32
	CircuitTimeout   time.Duration
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint. A
// circuit breaker sheds load while the backend is failing so user requests
// fail fast instead of piling up on a dead upstream.
type OpenAIClient struct {
	config  ClientConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	logger  *logger.Logger
}

// NewOpenAIClient creates a new AI client.
func NewOpenAIClient(config ClientConfig, log *logger.Logger) *OpenAIClient {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 60 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.CircuitTimeout <= 0 {
		config.CircuitTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "ai-backend",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     config.CircuitTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
	}

	return &OpenAIClient{
		config:  config,
		client:  &http.Client{Timeout: config.RequestTimeout},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		logger:  log,
	}
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation to the backend and returns the assistant
// reply.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	reply, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, messages)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrAIUnavailable
		}
		return "", err
	}
	return reply, nil
}

func (c *OpenAIClient) complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ai backend error",
			"status", resp.StatusCode, "body_len", len(raw))
		return "", fmt.Errorf("%w: status %d", ErrAIUnavailable, resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAIUnavailable, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAIUnavailable)
	}
	return completion.Choices[0].Message.Content, nil
}
