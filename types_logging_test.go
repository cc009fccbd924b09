package eventsync

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureDefLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := defLogOutput
	defLogOutput = &buf
	t.Cleanup(func() { defLogOutput = prev })
	return &buf
}

func TestDefLoggerRendersKeyValuePairs(t *testing.T) {
	buf := captureDefLog(t)

	defLogger{}.Error("school create error: ", "error", errors.New("boom"), "school", "riverdale")

	got := buf.String()
	require.Contains(t, got, "[ERR] EVENTS school create error")
	require.Contains(t, got, "error=boom")
	require.Contains(t, got, "school=riverdale")
	require.NotContains(t, got, "EXTRA")
}

func TestDefLoggerKeepsPrintfMessages(t *testing.T) {
	buf := captureDefLog(t)

	defLogger{}.Warn("Login error: %s", errors.New("bad cookie"))

	require.Contains(t, buf.String(), "[WRN] EVENTS Login error: bad cookie")
}

func TestDefLoggerBareMessage(t *testing.T) {
	buf := captureDefLog(t)

	defLogger{}.Info("server listening")

	require.Contains(t, buf.String(), "[INF] EVENTS server listening")
}
