// Package gpt provides an OpenAI-compatible chat client and the recipe
// structurer built on it, which turns a spoken recipe narration into a
// structured recipe.
package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/wokai/wokcook/internal/logger"
)

// ── Wire types ───────────────────────────────────────────────────

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextMessage is a convenience constructor for a plain-text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

type responseFormat struct {
	Type string `json:"type"`
}

// payload is the request body sent to the chat-completions endpoint.
type payload struct {
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	TopP           float64         `json:"top_p"`
	MaxTokens      int             `json:"max_tokens"`
	Model          string          `json:"model,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// apiResponse is the part of the response envelope the client reads.
type apiResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ── Client ───────────────────────────────────────────────────────

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel sets the model name. Azure deployments leave it empty.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithJSONResponses asks the endpoint to reply with a JSON object.
func WithJSONResponses() ClientOption {
	return func(c *Client) { c.jsonMode = true }
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	jsonMode    bool
	http        *http.Client
	log         *logger.Logger
}

// NewClient creates a chat client.
//   - endpoint: full URL to the chat/completions resource, for OpenAI
//     "https://api.openai.com/v1/chat/completions", for Azure the
//     deployment URL including api-version
//   - apiKey:   sent both as a bearer token and as the Azure api-key header
func NewClient(endpoint, apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		temperature: 0.2,
		topP:        0.95,
		maxTokens:   1500,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-200 reply from the chat endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gpt: API returned %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// ErrTruncated means the model stopped at the token limit, so a JSON
// reply is incomplete.
var ErrTruncated = errors.New("gpt: reply truncated at max_tokens")

// Chat sends a chat-completion request and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.endpoint == "" {
		return "", errors.New("gpt: no chat endpoint configured")
	}

	ctx, span := tracer.Start(ctx, "chat completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("gpt.model", c.model),
		attribute.Int("gpt.messages", len(messages)),
		attribute.Bool("gpt.json_mode", c.jsonMode),
	)

	reply, err := c.chat(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return reply, nil
}

func (c *Client) chat(ctx context.Context, messages []Message) (string, error) {
	body := payload{
		Messages:    messages,
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
		Model:       c.model,
	}
	if c.jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gpt: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gpt: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("api-key", c.apiKey)
	}

	c.log.Debug("POST %s (%d bytes, %d messages)", c.endpoint, len(data), len(messages))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gpt: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gpt: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("gpt: unmarshal response: %w", err)
	}
	if result.Usage.TotalTokens > 0 {
		tokensUsed.Add(ctx, int64(result.Usage.TotalTokens),
			metric.WithAttributes(attribute.String("gpt.model", c.model)))
	}
	if len(result.Choices) == 0 {
		return "", errors.New("gpt: empty response (no choices)")
	}

	first := result.Choices[0]
	if first.FinishReason == "length" {
		return "", ErrTruncated
	}

	reply := first.Message.Content
	c.log.Debug("reply (%d chars, %d tokens): %s", len(reply), result.Usage.TotalTokens, truncate(reply, 120))
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
