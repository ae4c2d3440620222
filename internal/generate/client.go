package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrInvalidConfig indicates invalid client configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// maxAnswerTokens keeps responses short enough to speak.
	maxAnswerTokens = 200

	// answerTemperature is slightly creative but grounded.
	answerTemperature = 0.7

	retryBaseDelay = 200 * time.Millisecond
)

// Config holds configuration for the generation client.
type Config struct {
	// BaseURL is the base URL of a chat-completions compatible API.
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Model is the model identifier.
	Model string

	// MaxRetries is how many times a transient failure is retried
	// after the first attempt.
	MaxRetries int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Client is a Generator backed by a chat-completions API.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a generation client with the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &Client{
		config: config,
		client: &http.Client{},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt and returns the cleaned answer text.
// Transient failures (timeouts, 429, 5xx) are retried up to MaxRetries
// times; the context bounds the whole attempt sequence.
func (c *Client) Generate(ctx context.Context, prompt string) (*Answer, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		MaxTokens:   maxAnswerTokens,
		Temperature: answerTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrGenerationFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, ctx.Err())
			case <-time.After(time.Duration(attempt) * retryBaseDelay):
			}
		}

		text, retryable, err := c.generateOnce(ctx, body)
		if err == nil {
			return &Answer{Text: text}, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, ErrEmptyAnswer
	}

	text = CleanResponse(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", false, ErrEmptyAnswer
	}
	return text, false, nil
}
