// Package session holds the state of one user session and coordinates the
// encoder, the completion backend and the renderer in response to user actions.
//
// All state lives behind one mutex that is never held across a suspension
// point: the file read in SelectFile and the network round trip in Analyze run
// unlocked. Two Analyze calls may therefore be in flight together. By default
// whichever finishes last overwrites the displayed result; WithDiscardStale
// makes only the most recently started request able to publish its result.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/menta2k/image-chat/pkg/client"
	"github.com/menta2k/image-chat/pkg/encoder"
	"github.com/menta2k/image-chat/pkg/processing"
	"github.com/menta2k/image-chat/pkg/prompt"
	"github.com/menta2k/image-chat/pkg/render"
	"github.com/menta2k/image-chat/pkg/store"
	"github.com/menta2k/image-chat/pkg/types"
)

// ErrNoImage is returned by Analyze before any file has been selected
var ErrNoImage = errors.New("no image selected")

// Field names a credential setting editable by the user
type Field string

const (
	FieldEndpoint Field = "endpoint"
	FieldAPIKey   Field = "api_key"
)

func (f Field) storeKey() (string, error) {
	switch f {
	case FieldEndpoint:
		return store.KeyEndpoint, nil
	case FieldAPIKey:
		return store.KeyAPIKey, nil
	default:
		return "", fmt.Errorf("unknown config field %q", string(f))
	}
}

// State is a point-in-time copy of the session for display
type State struct {
	Endpoint         string        `json:"endpoint"`
	HasAPIKey        bool          `json:"has_api_key"`
	Prompt           string        `json:"prompt"`
	Image            string        `json:"image,omitempty"`
	ImageName        string        `json:"image_name,omitempty"`
	Result           *types.Result `json:"result,omitempty"`
	HTML             string        `json:"html,omitempty"`
	ConfigDialogOpen bool          `json:"config_dialog_open"`
	InFlight         int           `json:"in_flight"`
}

// Session is the mutable record behind one user's interaction
type Session struct {
	store     store.Store
	completer client.Completer
	processor *processing.Processor
	logger    log.Interface

	maxDimension int
	quality      int
	discardStale bool

	mu         sync.Mutex
	creds      types.Credentials
	prompt     string
	image      string
	imageName  string
	result     *types.Result
	html       string
	dialogOpen bool
	seq        uint64
	inFlight   int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger; the apex/log default logger is used otherwise
func WithLogger(l log.Interface) Option {
	return func(s *Session) { s.logger = l }
}

// WithPrompt sets the initial prompt text
func WithPrompt(text string) Option {
	return func(s *Session) { s.prompt = text }
}

// WithShrink downscales selected images so their long side is at most maxDim
// pixels before encoding. Zero keeps the original bytes.
func WithShrink(maxDim, quality int) Option {
	return func(s *Session) {
		s.maxDimension = maxDim
		s.quality = quality
	}
}

// WithDiscardStale drops results from requests superseded by a newer Analyze
func WithDiscardStale(enabled bool) Option {
	return func(s *Session) { s.discardStale = enabled }
}

// New creates a session reading its credentials from st
func New(st store.Store, c client.Completer, opts ...Option) *Session {
	s := &Session{
		store:     st,
		completer: c,
		processor: processing.NewProcessor(),
		logger:    log.Log,
		prompt:    prompt.Default,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.creds.EndpointBase, _ = st.Get(store.KeyEndpoint)
	s.creds.APIKey, _ = st.Get(store.KeyAPIKey)
	return s
}

// SelectFile encodes the file read from r and makes it the current image.
// A nil reader means nothing was selected and is a no-op. On failure the
// previous image is kept and the error is logged and returned.
func (s *Session) SelectFile(name string, r io.Reader) error {
	if r == nil {
		return nil
	}

	uri, size, err := s.encode(r)
	if err != nil {
		s.logger.WithError(err).WithField("file", name).Error("failed to encode selected file")
		return err
	}

	s.mu.Lock()
	s.image = uri
	s.imageName = name
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"file": name,
		"size": humanize.Bytes(uint64(size)),
	}).Info("image selected")
	return nil
}

func (s *Session) encode(r io.Reader) (string, int, error) {
	if s.maxDimension <= 0 {
		cr := &countingReader{r: r}
		uri, err := encoder.Encode(cr)
		return uri, cr.n, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("%w: read file: %v", types.ErrEncoding, err)
	}
	shrunk, err := s.processor.Shrink(data, s.maxDimension, s.quality)
	if err != nil {
		// Not a decodable image; send it as selected
		s.logger.WithError(err).Debug("shrink skipped")
		shrunk = data
	}
	uri, err := encoder.Encode(bytes.NewReader(shrunk))
	return uri, len(shrunk), err
}

// EditPrompt replaces the prompt text
func (s *Session) EditPrompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

// EditConfig updates one credential field and persists it. The in-memory value
// is updated even when persisting fails; the store error is logged and returned.
func (s *Session) EditConfig(field Field, value string) error {
	key, err := field.storeKey()
	if err != nil {
		return err
	}

	s.mu.Lock()
	switch field {
	case FieldEndpoint:
		s.creds.EndpointBase = value
	case FieldAPIKey:
		s.creds.APIKey = value
	}
	s.mu.Unlock()

	if err := s.store.Set(key, value); err != nil {
		s.logger.WithError(err).WithField("field", string(field)).Error("failed to persist config")
		return fmt.Errorf("persist %s: %w", field, err)
	}
	return nil
}

// ToggleConfigDialog opens or closes the configuration dialog and returns the new state
func (s *Session) ToggleConfigDialog() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogOpen = !s.dialogOpen
	return s.dialogOpen
}

// Analyze sends the current prompt and image to the completion backend and
// stores the outcome as the current result. Configuration and transport
// problems become a Failure result. A malformed success response is returned
// as an error and leaves the current result untouched.
func (s *Session) Analyze(ctx context.Context) (types.Result, error) {
	s.mu.Lock()
	if s.image == "" {
		s.mu.Unlock()
		return types.Result{}, ErrNoImage
	}
	creds, text, image := s.creds, s.prompt, s.image
	s.seq++
	seq := s.seq
	s.inFlight++
	s.mu.Unlock()

	logger := s.logger.WithField("request_id", uuid.NewString())
	logger.WithField("endpoint", creds.EndpointBase).Debug("analyze started")

	res, err := s.completer.Complete(ctx, creds, text, image)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if err != nil {
		logger.WithError(err).Error("analyze failed")
		return types.Result{}, err
	}
	if s.discardStale && seq != s.seq {
		logger.WithField("seq", seq).Info("discarding stale result")
		return res, nil
	}

	var html string
	if res.Failed() {
		logger.WithField("message", res.Message).Warn("analyze returned failure")
	} else {
		html = render.Render(res.Text)
		logger.WithField("chars", len(res.Text)).Info("analyze succeeded")
	}
	s.result = &res
	s.html = html
	return res, nil
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Endpoint:         s.creds.EndpointBase,
		HasAPIKey:        s.creds.APIKey != "",
		Prompt:           s.prompt,
		Image:            s.image,
		ImageName:        s.imageName,
		HTML:             s.html,
		ConfigDialogOpen: s.dialogOpen,
		InFlight:         s.inFlight,
	}
	if s.result != nil {
		r := *s.result
		st.Result = &r
	}
	return st
}

// Credentials returns the current credentials
func (s *Session) Credentials() types.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
