package imagechat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-chat/internal/config"
	"github.com/menta2k/image-chat/pkg/ollama"
	"github.com/menta2k/image-chat/pkg/openai"
	"github.com/menta2k/image-chat/pkg/store"
	"github.com/menta2k/image-chat/pkg/types"
)

func TestNewCompleter(t *testing.T) {
	cfg := config.Default()
	c, err := NewCompleter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, c)

	cfg.Completion.Backend = config.BackendOllama
	c, err = NewCompleter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ollama.Client{}, c)

	cfg.Completion.Backend = "bard"
	_, err = NewCompleter(cfg)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	for _, driver := range []string{config.StoreMemory, config.StoreFile, config.StoreSQLite} {
		cfg := config.Default()
		cfg.Store.Driver = driver
		cfg.Store.Path = filepath.Join(dir, driver+".store")

		st, closeFn, err := OpenStore(cfg)
		require.NoError(t, err, driver)
		require.NoError(t, st.Set(store.KeyEndpoint, "api.example.com"))
		v, ok := st.Get(store.KeyEndpoint)
		assert.True(t, ok)
		assert.Equal(t, "api.example.com", v)
		assert.NoError(t, closeFn())
	}
}

func TestNewUsesConfiguredPrompt(t *testing.T) {
	cfg := config.Default()
	cfg.Completion.Prompt = "What is this?"
	s, err := New(cfg, store.NewMemory())
	require.NoError(t, err)
	assert.Equal(t, "What is this?", s.Snapshot().Prompt)
}

func TestDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"# Title\n"}}]}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	res, html, err := Describe(context.Background(), config.Default(), types.Credentials{EndpointBase: srv.URL, APIKey: "k"}, path, "describe")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", res.Text)
	assert.Contains(t, html, "<h1>Title</h1>")
}

func TestDescribeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0o644))

	res, html, err := Describe(context.Background(), config.Default(), types.Credentials{APIKey: "k"}, path, "describe")
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Empty(t, html)

	_, _, err = Describe(context.Background(), config.Default(), types.Credentials{}, filepath.Join(t.TempDir(), "missing"), "x")
	assert.ErrorIs(t, err, types.ErrEncoding)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
