package core

import (
	"bytes"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf)

	logger.Info("hidden")
	logger.Debugf("hidden %d", 1)
	logger.Warnf("visible %d", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible 1")

	buf.Reset()
	logger.SetVerboseLevel(VerboseDebug)
	assert.Equal(t, VerboseDebug, logger.VerboseLevel())
	logger.Info("info")
	logger.Debugf("debug %s", "message")
	logger.Trace("trace")
	assert.Contains(t, buf.String(), "info")
	assert.Contains(t, buf.String(), "debug message")
	assert.NotContains(t, buf.String(), "trace")

	buf.Reset()
	logger.Error(errors.New("boom"), "extraction failed")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "extraction failed")

	buf.Reset()
	logger.SetVerboseLevel(VerboseInfo)
	logger.Request(http.MethodGet, "/api/lessons", http.StatusOK, 3*time.Millisecond)
	assert.Contains(t, buf.String(), `"path":"/api/lessons"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestAppState(t *testing.T) {
	state := NewAppState()
	assert.False(t, state.FocusMode())
	assert.True(t, state.ToggleFocusMode())
	assert.True(t, state.FocusMode())
	state.SetFocusMode(false)
	assert.False(t, state.FocusMode())
}
