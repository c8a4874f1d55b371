// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to an OpenAI-compatible chat-completions API for both
// vision analysis and post generation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/dunctk/whitepaper-to-socials/internal/httputil"
	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// defaultBaseURL is the OpenAI endpoint. Declared as a var so tests can
// substitute an httptest server; AIConfig.BaseURL overrides it per run.
var defaultBaseURL = "https://api.openai.com/v1"

const (
	defaultMaxRetries = 3
	maxAnalysisTokens = 1000
	maxPostTokens     = 1500
)

// backoffBase controls the base duration for exponential backoff between
// failed model calls. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Client is a minimal chat-completions client.
type Client struct {
	cfg        types.AIConfig
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a client from AIConfig. The HTTP client timeout covers a
// single model call; retries layer on top.
func NewClient(cfg types.AIConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    base,
	}
}

// Message is one chat message.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is a piece of message content, either text or an image.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image reference, here always a base64 data URL.
type ImageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chat sends one chat-completions request and returns the first choice's
// content. 429 responses are absorbed by httputil.DoWithRetry; other
// failures come back as errors for the caller's retry loop.
func (c *Client) chat(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat API returned HTTP %d: %s", resp.StatusCode, data)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// Complete sends a system+user text prompt and returns the raw completion,
// retrying transient failures with exponential backoff.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []Message{
		{Role: "system", Content: []ContentPart{{Type: "text", Text: system}}},
		{Role: "user", Content: []ContentPart{{Type: "text", Text: user}}},
	}

	var content string
	err := c.withRetry(ctx, func() error {
		var callErr error
		content, callErr = c.chat(ctx, messages, maxPostTokens, 0.8)
		return callErr
	})
	return content, err
}

// withRetry runs fn with exponential backoff up to the configured ceiling.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
