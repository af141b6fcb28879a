// Package openai talks to any server exposing the OpenAI-compatible
// /v1/chat/completions endpoint with image_url content parts.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/menta2k/image-chat/pkg/client"
	"github.com/menta2k/image-chat/pkg/prompt"
	"github.com/menta2k/image-chat/pkg/types"
)

const (
	DefaultModel     = "gpt-4-vision-preview"
	DefaultMaxTokens = 300
)

// OpenAI-compatible message format
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// Client issues single-attempt chat completion requests
type Client struct {
	httpClient *http.Client
	model      string
	maxTokens  int
	directive  bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default has no timeout; the
// request context is the only deadline.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model identifier sent with every request
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithMaxTokens sets the max_tokens budget sent with every request
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithMarkdownDirective appends an instruction asking the model to answer in markdown
func WithMarkdownDirective(enabled bool) Option {
	return func(c *Client) { c.directive = enabled }
}

// NewClient creates a client with the default model and token budget
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

// BuildRequest assembles the request body for one prompt and image
func (c *Client) BuildRequest(text, image string) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: prompt.Build(text, c.directive)},
					{Type: "image_url", ImageURL: &ImageURL{URL: image}},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}
}

// Complete sends the prompt and image and maps the outcome to a Result.
// A 2xx response with an unexpected body returns an error wrapping
// types.ErrMalformedResponse instead of a Result.
func (c *Client) Complete(ctx context.Context, creds types.Credentials, text, image string) (types.Result, error) {
	if res, ok := client.CheckCredentials(creds); !ok {
		return res, nil
	}

	endpoint, err := client.ChatCompletionsURL(creds.EndpointBase)
	if err != nil {
		return client.TransportFailure(err), nil
	}

	status, body, err := c.sendRequest(ctx, endpoint, creds.APIKey, c.BuildRequest(text, image))
	if err != nil {
		return client.TransportFailure(err), nil
	}
	if status < 200 || status > 299 {
		return client.StatusFailure(status), nil
	}

	content, err := extractContent(body)
	if err != nil {
		return types.Result{}, err
	}
	return types.Success(content), nil
}

// sendRequest posts payload and returns the status and, for 2xx responses only, the body
func (c *Client) sendRequest(ctx context.Context, endpoint, apiKey string, payload interface{}) (int, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %v", err)
	}
	return resp.StatusCode, body, nil
}

// extractContent pulls the first choice's message text out of a completion body.
// String content is returned as is; for array content the first text part wins.
func extractContent(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not valid JSON", types.ErrMalformedResponse)
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	switch {
	case content.Type == gjson.String:
		return content.String(), nil
	case content.IsArray():
		for _, part := range content.Array() {
			if text := part.Get("text"); text.Type == gjson.String && text.String() != "" {
				return text.String(), nil
			}
		}
		return "", fmt.Errorf("%w: no text part in choices[0].message.content", types.ErrMalformedResponse)
	case !content.Exists():
		return "", fmt.Errorf("%w: missing choices[0].message.content", types.ErrMalformedResponse)
	default:
		return "", fmt.Errorf("%w: choices[0].message.content is %s", types.ErrMalformedResponse, content.Type)
	}
}
