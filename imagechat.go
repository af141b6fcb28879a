// Package imagechat sends an image and a prompt to a vision-capable chat
// completion API and renders the answer as safe HTML.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imagechat "github.com/menta2k/image-chat"
//		"github.com/menta2k/image-chat/internal/config"
//		"github.com/menta2k/image-chat/pkg/types"
//	)
//
//	func main() {
//		creds := types.Credentials{EndpointBase: "api.openai.com", APIKey: "sk-..."}
//		res, html, err := imagechat.Describe(context.Background(), config.Default(), creds, "photo.jpg", "What is in this picture?")
//		if err != nil {
//			log.Fatal(err)
//		}
//		if res.Failed() {
//			log.Fatal(res.Message)
//		}
//		fmt.Println(html)
//	}
//
// The package consists of four main components:
//
// 1. Encoder (pkg/encoder): turns the selected file into a data URI
// 2. Completion clients (pkg/openai, pkg/ollama): one request per analysis
// 3. Renderer (pkg/render): markdown to sanitized HTML
// 4. Session (pkg/session): the state machine binding the three together
package imagechat

import (
	"context"
	"fmt"
	"os"

	"github.com/menta2k/image-chat/internal/config"
	"github.com/menta2k/image-chat/internal/store/sqlitestore"
	"github.com/menta2k/image-chat/pkg/client"
	"github.com/menta2k/image-chat/pkg/ollama"
	"github.com/menta2k/image-chat/pkg/openai"
	"github.com/menta2k/image-chat/pkg/session"
	"github.com/menta2k/image-chat/pkg/store"
	"github.com/menta2k/image-chat/pkg/types"
)

// Version of the image chat library
const Version = "1.0.0"

// NewCompleter builds the completion backend named in cfg
func NewCompleter(cfg *config.Config) (client.Completer, error) {
	c := cfg.Completion
	switch c.Backend {
	case config.BackendOpenAI:
		return openai.NewClient(
			openai.WithModel(c.Model),
			openai.WithMaxTokens(c.MaxTokens),
			openai.WithMarkdownDirective(c.MarkdownDirective),
		), nil
	case config.BackendOllama:
		return ollama.NewClient(
			ollama.WithModel(c.Model),
			ollama.WithMaxTokens(c.MaxTokens),
			ollama.WithMarkdownDirective(c.MarkdownDirective),
		), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'openai' or 'ollama')", c.Backend)
	}
}

// OpenStore opens the credential store selected in cfg. The returned close
// function is never nil.
func OpenStore(cfg *config.Config) (store.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return store.NewMemory(), noop, nil
	case config.StoreFile:
		st, err := store.OpenFile(cfg.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	case config.StoreSQLite:
		st, err := sqlitestore.Open(cfg.Store.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open settings database: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// New creates a session for cfg on top of st
func New(cfg *config.Config, st store.Store, opts ...session.Option) (*session.Session, error) {
	completer, err := NewCompleter(cfg)
	if err != nil {
		return nil, err
	}
	base := []session.Option{
		session.WithPrompt(cfg.Completion.Prompt),
		session.WithShrink(cfg.Image.MaxDimension, cfg.Image.Quality),
	}
	return session.New(st, completer, append(base, opts...)...), nil
}

// Describe is a convenience function that encodes the file at path, analyzes
// it once, and returns the result together with the rendered HTML
func Describe(ctx context.Context, cfg *config.Config, creds types.Credentials, path, prompt string) (types.Result, string, error) {
	st := store.NewMemory()
	if err := st.Set(store.KeyEndpoint, creds.EndpointBase); err != nil {
		return types.Result{}, "", err
	}
	if err := st.Set(store.KeyAPIKey, creds.APIKey); err != nil {
		return types.Result{}, "", err
	}

	s, err := New(cfg, st, session.WithPrompt(prompt))
	if err != nil {
		return types.Result{}, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return types.Result{}, "", fmt.Errorf("%w: open file: %v", types.ErrEncoding, err)
	}
	defer f.Close()
	if err := s.SelectFile(path, f); err != nil {
		return types.Result{}, "", err
	}

	res, err := s.Analyze(ctx)
	if err != nil {
		return types.Result{}, "", err
	}
	if res.Failed() {
		return res, "", nil
	}
	return res, s.Snapshot().HTML, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
