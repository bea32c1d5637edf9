package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestNew_DefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("", &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	require.NotContains(t, buf.String(), "quiet")
	require.Contains(t, buf.String(), "loud")
}

func TestNew_Off(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("OFF", &buf)
	require.NoError(t, err)
	logger.Error("nothing")
	require.Zero(t, buf.Len())
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", &bytes.Buffer{})
	require.Error(t, err)

	_, err = NewDaemon("chatty")
	require.Error(t, err)
}
