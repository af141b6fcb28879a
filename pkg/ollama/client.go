// Package ollama is the native Ollama backend. It honours the same contract as
// the OpenAI-compatible client: credential preconditions, one attempt, and the
// same failure messages.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/image-chat/pkg/client"
	"github.com/menta2k/image-chat/pkg/encoder"
	"github.com/menta2k/image-chat/pkg/prompt"
	"github.com/menta2k/image-chat/pkg/types"
)

const DefaultModel = "llava"

// Client wraps the Ollama API client
type Client struct {
	transport http.RoundTripper
	model     string
	maxTokens int
	directive bool
}

// Option configures a Client
type Option func(*Client)

// WithTransport sets the round tripper used underneath the bearer header injection
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithModel sets the model name
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithMaxTokens maps to the num_predict option
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithMarkdownDirective appends the markdown formatting instruction to prompts
func WithMarkdownDirective(enabled bool) Option {
	return func(c *Client) { c.directive = enabled }
}

// NewClient creates a new Ollama client
func NewClient(opts ...Option) *Client {
	c := &Client{
		transport: http.DefaultTransport,
		model:     DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Complete runs one non-streaming chat request against the endpoint in creds
func (c *Client) Complete(ctx context.Context, creds types.Credentials, text, image string) (types.Result, error) {
	if res, ok := client.CheckCredentials(creds); !ok {
		return res, nil
	}

	baseURL, err := client.BaseURL(creds.EndpointBase)
	if err != nil {
		return client.TransportFailure(err), nil
	}

	// Ollama takes raw image bytes rather than a data URI
	_, imgBytes, err := encoder.Decode(image)
	if err != nil {
		return types.Result{}, fmt.Errorf("%w: %v", types.ErrEncoding, err)
	}

	transport := &bearerTransport{token: creds.APIKey, next: c.transport}
	ollamaClient := api.NewClient(baseURL, &http.Client{Transport: transport})

	options := map[string]any{}
	if c.maxTokens > 0 {
		options["num_predict"] = c.maxTokens
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt.Build(text, c.directive),
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: options,
	}

	var responseContent string
	err = ollamaClient.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		// The api package turns some statuses into bespoke error types; the
		// status seen on the wire is what decides the failure message.
		if transport.status != 0 && (transport.status < 200 || transport.status > 299) {
			return client.StatusFailure(transport.status), nil
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return types.Result{}, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
		}
		return client.TransportFailure(err), nil
	}

	return types.Success(responseContent), nil
}

// bearerTransport adds the API key to the outgoing request and remembers the
// response status. One instance serves exactly one Complete call.
type bearerTransport struct {
	token  string
	next   http.RoundTripper
	status int
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		t.status = resp.StatusCode
	}
	return resp, err
}
