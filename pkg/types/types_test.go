package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccess(t *testing.T) {
	r := Success("hello")
	assert.Equal(t, KindSuccess, r.Kind)
	assert.False(t, r.Failed())
	assert.Equal(t, "hello", r.Display())
	assert.Equal(t, "success", r.Kind.String())
}

func TestFailure(t *testing.T) {
	r := Failure("HTTP error! status: 500", ErrTransport)
	assert.True(t, r.Failed())
	assert.Equal(t, "HTTP error! status: 500", r.Display())
	assert.True(t, errors.Is(r.Cause, ErrTransport))
	assert.Equal(t, "failure", r.Kind.String())
}

func TestZeroResultKind(t *testing.T) {
	var r Result
	assert.False(t, r.Failed())
	assert.Equal(t, "unknown", r.Kind.String())
}

func TestResultJSON(t *testing.T) {
	raw, err := json.Marshal(Failure("nope", ErrTransport))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"failure","message":"nope"}`, string(raw))

	raw, err = json.Marshal(Success("# hi"))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"success","text":"# hi"}`, string(raw))
}
