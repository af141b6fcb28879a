package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "text", &buf)
	require.NoError(t, err)

	logger.WithField("file", "a.png").Info("selected")
	logger.Debug("hidden")

	assert.Contains(t, buf.String(), "selected")
	assert.Contains(t, buf.String(), "a.png")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("DEBUG", "json", &buf)
	require.NoError(t, err)

	logger.WithField("status", 401).Debug("request failed")
	assert.Contains(t, buf.String(), `"message":"request failed"`)
	assert.Contains(t, buf.String(), `"status":401`)
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("loud", "text", nil)
	assert.Error(t, err)

	_, err = New("info", "xml", nil)
	assert.Error(t, err)
}
