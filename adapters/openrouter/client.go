package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://openrouter.ai/api/v1"
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxTokens  = 1000

	completionTimeout  = 30 * time.Second
	healthCheckTimeout = 5 * time.Second
)

// Config holds configuration for the OpenRouter client.
// Required fields:
// - APIKey: the OpenRouter API key
// Optional fields with defaults:
// - APIBaseURL: base URL of the API (default: "https://openrouter.ai/api/v1")
// - HTTPClient: transport to use, substitutable in tests (default: http.Client with completion timeout)
// - MaxRetries: retry budget per call (default: 3)
// - BaseDelay: base rate-limit backoff delay (default: 1s)
type Config struct {
	APIKey     string
	APIBaseURL string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
}

// Client calls the OpenRouter chat-completions API with retry, backoff and
// error classification. Rate limits back off exponentially, transport
// failures and unexpected statuses consume attempts without extra delay,
// and authentication failures surface immediately.
type Client struct {
	apiKey     string
	apiBaseURL string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

var _ repositories.CompletionClient = (*Client)(nil)

// NewClient creates a new OpenRouter client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: completionTimeout}
	}

	maxRetries := config.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	baseDelay := config.BaseDelay
	if baseDelay == 0 {
		baseDelay = defaultBaseDelay
	}

	return &Client{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}, nil
}

type completionPayload struct {
	Model       string                     `json:"model"`
	Messages    []repositories.ChatMessage `json:"messages"`
	Temperature float64                    `json:"temperature"`
	MaxTokens   int                        `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion resolves the logical model name and runs the request
// through the retry loop.
func (c *Client) ChatCompletion(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	model := resolveModel(req.Model)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if maxTokens > model.MaxTokens {
		maxTokens = model.MaxTokens
	}

	body, err := json.Marshal(completionPayload{
		Model:       model.ID,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		content, err := c.attempt(ctx, body)
		if err == nil {
			return content, nil
		}

		if errors.Is(err, ErrAuthentication) {
			return "", err
		}

		lastErr = err
		c.logger.Warn("Completion attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		// Back off only on rate limits, and only when another attempt
		// remains.
		if errors.Is(err, ErrRateLimited) && attempt < c.maxRetries-1 {
			if err := c.backoff(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}
	}

	return "", &RetriesExhaustedError{Attempts: c.maxRetries, Last: lastErr}
}

// attempt performs a single request and classifies its outcome.
func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transport failure: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrAuthentication
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	default:
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}

	return cr.Choices[0].Message.Content, nil
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.baseDelay * (1 << attempt)
	c.logger.Warn("Rate limited, backing off", zap.Duration("delay", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HealthCheck probes the models endpoint with a short timeout. It reports
// reachability and never fails.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/models", nil)
	if err != nil {
		return false
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "https://medtranslate.app")
	req.Header.Set("X-Title", "MedTranslate")
}
