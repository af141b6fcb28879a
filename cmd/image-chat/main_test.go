package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imagechat "github.com/menta2k/image-chat"
	"github.com/menta2k/image-chat/internal/config"
	"github.com/menta2k/image-chat/pkg/ollama"
	"github.com/menta2k/image-chat/pkg/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
completion:
  model: gpt-4o
server:
  addr: 127.0.0.1:9090
store:
  driver: memory
`)
	cfg, err := loadConfig(options{configPath: path, sendSize: -1})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 0, cfg.Image.MaxDimension)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")
	cfg, err := loadConfig(options{
		configPath: path,
		backend:    config.BackendOllama,
		prompt:     "What is this?",
		addr:       ":7070",
		sendSize:   1024,
		sendQ:      70,
		logLevel:   "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, config.BackendOllama, cfg.Completion.Backend)
	assert.Equal(t, ollama.DefaultModel, cfg.Completion.Model)
	assert.Equal(t, "What is this?", cfg.Completion.Prompt)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 1024, cfg.Image.MaxDimension)
	assert.Equal(t, 70, cfg.Image.Quality)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigExplicitModelWins(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")
	cfg, err := loadConfig(options{configPath: path, backend: config.BackendOllama, model: "bakllava", sendSize: -1})
	require.NoError(t, err)
	assert.Equal(t, "bakllava", cfg.Completion.Model)
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")
	_, err := loadConfig(options{configPath: path, backend: "bard", sendSize: -1})
	assert.Error(t, err)

	_, err = loadConfig(options{configPath: filepath.Join(t.TempDir(), "missing.yaml"), sendSize: -1})
	assert.Error(t, err)
}

func TestApplyCredentials(t *testing.T) {
	st := store.NewMemory()
	sess, err := imagechat.New(config.Default(), st)
	require.NoError(t, err)

	require.NoError(t, applyCredentials(sess, options{endpoint: "api.example.com", key: "sk-1"}))

	v, ok := st.Get(store.KeyEndpoint)
	assert.True(t, ok)
	assert.Equal(t, "api.example.com", v)
	v, ok = st.Get(store.KeyAPIKey)
	assert.True(t, ok)
	assert.Equal(t, "sk-1", v)
	assert.Equal(t, "sk-1", sess.Credentials().APIKey)
}

func TestApplyCredentialsKeepsUnsetFields(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(store.KeyAPIKey, "sk-old"))
	sess, err := imagechat.New(config.Default(), st)
	require.NoError(t, err)

	require.NoError(t, applyCredentials(sess, options{endpoint: "api.example.com"}))

	v, _ := st.Get(store.KeyAPIKey)
	assert.Equal(t, "sk-old", v)
	assert.Equal(t, "api.example.com", sess.Credentials().EndpointBase)
}
