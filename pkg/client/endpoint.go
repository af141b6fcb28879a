package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/menta2k/image-chat/pkg/types"
)

// ChatCompletionsPath is appended to the configured endpoint base
const ChatCompletionsPath = "/v1/chat/completions"

// CheckCredentials returns a Failure naming the missing settings, and false,
// when either the endpoint or the API key is empty.
func CheckCredentials(c types.Credentials) (types.Result, bool) {
	noEndpoint := strings.TrimSpace(c.EndpointBase) == ""
	noKey := c.APIKey == ""

	var missing string
	switch {
	case noEndpoint && noKey:
		missing = "endpoint domain and API access key"
	case noEndpoint:
		missing = "endpoint domain"
	case noKey:
		missing = "API access key"
	default:
		return types.Result{}, true
	}
	msg := fmt.Sprintf("Error: %s not provided.", missing)
	return types.Failure(msg, fmt.Errorf("%w: %s", types.ErrConfigurationMissing, missing)), false
}

// BaseURL normalizes an endpoint base such as "api.openai.com" or
// "http://localhost:8080/" into an absolute URL without a trailing slash
func BaseURL(endpointBase string) (*url.URL, error) {
	raw := strings.TrimSpace(endpointBase)
	if strings.Trim(raw, "/") == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpointBase)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpointBase)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u, nil
}

// ChatCompletionsURL returns the full completion URL for an endpoint base
func ChatCompletionsURL(endpointBase string) (string, error) {
	u, err := BaseURL(endpointBase)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(u.String(), "/") + ChatCompletionsPath, nil
}

// TransportFailure wraps a network level error as a Failure result
func TransportFailure(err error) types.Result {
	return types.Failure(fmt.Sprintf("Error fetching data: %v", err), fmt.Errorf("%w: %v", types.ErrTransport, err))
}

// StatusFailure reports a non-2xx HTTP status as a Failure result
func StatusFailure(status int) types.Result {
	return types.Failure(fmt.Sprintf("HTTP error! status: %d", status), fmt.Errorf("%w: status %d", types.ErrTransport, status))
}
