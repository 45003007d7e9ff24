package completions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/m2tx/toolchat/internal/model"
)

// Config holds what the client needs to build requests.
type Config struct {
	Endpoint         string        // full chat completions URL
	Model            string        // model identifier sent in every request
	APIKey           string        // optional bearer token
	Timeout          time.Duration // whole-request timeout, streaming included
	MaxRetries       int
	Temperature      float64
	TopP             float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Validate checks the configuration and sets defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	if c.Timeout == 0 {
		c.Timeout = 600 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxAttempts
	}
	return nil
}

// Client streams chat completions and retries transport failures.
type Client struct {
	config     Config
	httpClient *http.Client
	retrier    *Retrier
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRetrier(r *Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(config Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		retrier:    NewRetrier(config.MaxRetries),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Retrier exposes the retry policy so callers can attach an OnRetry observer.
func (c *Client) Retrier() *Retrier {
	return c.retrier
}

// Complete performs one model call with retries. It always returns a well-formed assistant
// message; exhausted retries yield an error-text message.
func (c *Client) Complete(ctx context.Context, messages []model.Message, tools []model.Tool, onToken func(string)) model.Message {
	return c.retrier.Do(ctx, func(ctx context.Context) (model.Message, error) {
		msg, stats, err := c.Stream(ctx, messages, tools, onToken)
		if err != nil {
			c.logger.Warn("completions: attempt failed", "err", err)
			return model.Message{}, err
		}
		if stats.Tokens > 3 {
			c.logger.Debug("completions: stream finished",
				"tokens", stats.Tokens,
				"elapsed", stats.Elapsed,
				"tokens_per_second", fmt.Sprintf("%.1f", stats.TokensPerSecond))
		}
		return msg, nil
	})
}

// Stream performs a single request and decodes its event stream.
func (c *Client) Stream(ctx context.Context, messages []model.Message, tools []model.Tool, onToken func(string)) (model.Message, Stats, error) {
	req := ChatRequest{
		Model:            c.config.Model,
		Messages:         messages,
		Stream:           true,
		Temperature:      c.config.Temperature,
		TopP:             c.config.TopP,
		MaxTokens:        c.config.MaxTokens,
		PresencePenalty:  c.config.PresencePenalty,
		FrequencyPenalty: c.config.FrequencyPenalty,
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return model.Message{}, Stats{}, fmt.Errorf("completions: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Message{}, Stats{}, fmt.Errorf("completions: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.Message{}, Stats{}, fmt.Errorf("completions: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.Message{}, Stats{}, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	return Decode(ctx, resp.Body, onToken)
}
