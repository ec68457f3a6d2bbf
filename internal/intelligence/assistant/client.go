// Package assistant talks to the advisory language model.  Every call is
// time-bounded through context; callers treat any error as a signal to fall
// back to their deterministic canned default, so nothing user-facing ever
// waits on or requires the model.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vperelman/dealflow/internal/config"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
)

// Request is one completion request.
type Request struct {
	System string
	Prompt string

	// JSONSchema, when non-empty, asks the model for structured output
	// matching the schema hint.  The response Text still arrives as a
	// string; callers unmarshal it.
	JSONSchema string
}

// Response carries the model's reply.
type Response struct {
	Text string

	// Model echoes which model produced the reply.
	Model string
}

// Client is the completion contract.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// httpClient implements Client against an OpenAI-compatible chat endpoint.
type httpClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	hc          *http.Client
	logger      logging.Logger
}

// NewClient builds an HTTP-backed Client.  An empty BaseURL yields a client
// whose every call fails fast with an external-service error, which drives
// callers straight to their canned defaults.
func NewClient(cfg config.AssistantConfig, log logging.Logger) Client {
	return &httpClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		hc:          &http.Client{},
		logger:      log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *httpClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.baseURL == "" {
		return nil, errors.New(errors.ErrCodeAssistantUnavailable, "assistant is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []chatMessage{}
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	prompt := req.Prompt
	if req.JSONSchema != "" {
		prompt += "\n\nRespond with a single JSON object matching this schema, no prose:\n" + req.JSONSchema
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode assistant request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build assistant request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeAssistantTimeout, "assistant call timed out").
				WithDetail(c.timeout.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeAssistantUnavailable, "assistant call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAssistantBadResponse, "failed to read assistant response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeAssistantUnavailable, "assistant returned non-200").
			WithDetail(resp.Status)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAssistantBadResponse, "failed to decode assistant response")
	}
	if parsed.Error != nil {
		return nil, errors.New(errors.ErrCodeAssistantBadResponse, "assistant returned an error").
			WithDetail(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeAssistantBadResponse, "assistant returned no choices")
	}

	c.logger.Debug("assistant call complete",
		logging.String("model", parsed.Model),
		logging.Duration("elapsed", time.Since(started)),
	)
	return &Response{Text: parsed.Choices[0].Message.Content, Model: parsed.Model}, nil
}
