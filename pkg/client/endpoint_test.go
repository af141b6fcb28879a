package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-chat/pkg/types"
)

func TestCheckCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds types.Credentials
		ok    bool
		msg   string
	}{
		{"complete", types.Credentials{EndpointBase: "api.openai.com", APIKey: "k"}, true, ""},
		{"no endpoint", types.Credentials{APIKey: "k"}, false, "Error: endpoint domain not provided."},
		{"blank endpoint", types.Credentials{EndpointBase: "   ", APIKey: "k"}, false, "Error: endpoint domain not provided."},
		{"no key", types.Credentials{EndpointBase: "host"}, false, "Error: API access key not provided."},
		{"nothing", types.Credentials{}, false, "Error: endpoint domain and API access key not provided."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := CheckCredentials(tt.creds)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				return
			}
			assert.True(t, res.Failed())
			assert.Equal(t, tt.msg, res.Message)
			assert.True(t, errors.Is(res.Cause, types.ErrConfigurationMissing))
		})
	}
}

func TestChatCompletionsURL(t *testing.T) {
	tests := map[string]string{
		"api.openai.com":           "https://api.openai.com/v1/chat/completions",
		"https://api.openai.com/":  "https://api.openai.com/v1/chat/completions",
		"http://localhost:8080":    "http://localhost:8080/v1/chat/completions",
		" http://127.0.0.1:9000// ": "http://127.0.0.1:9000/v1/chat/completions",
		"https://proxy.local/openai": "https://proxy.local/openai/v1/chat/completions",
	}
	for in, want := range tests {
		got, err := ChatCompletionsURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestBaseURLInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "/", "http://", "https://", "http:///path", "ftp://x", "file:///etc/passwd", "http://bad host:80"} {
		_, err := BaseURL(in)
		assert.Error(t, err, in)

		_, err = ChatCompletionsURL(in)
		assert.Error(t, err, in)
	}
}

func TestFailureHelpers(t *testing.T) {
	res := StatusFailure(401)
	assert.Contains(t, res.Message, "401")
	assert.True(t, errors.Is(res.Cause, types.ErrTransport))

	res = TransportFailure(errors.New("connection refused"))
	assert.Equal(t, "Error fetching data: connection refused", res.Message)
	assert.True(t, errors.Is(res.Cause, types.ErrTransport))
}
