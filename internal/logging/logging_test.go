package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		want     slog.Level
		wantName string
		wantErr  bool
	}{
		{"", slog.LevelInfo, "info", false},
		{"INFO", slog.LevelInfo, "info", false},
		{"debug", slog.LevelDebug, "debug", false},
		{"warn", slog.LevelWarn, "warn", false},
		{"warning", slog.LevelWarn, "warn", false},
		{" error ", slog.LevelError, "error", false},
		{"err", slog.LevelError, "error", false},
		{"verbose", slog.LevelInfo, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			level, name, err := ParseLevel(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, level)
			assert.Equal(t, tc.wantName, name)
		})
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)

	l.Info("hidden")
	l.Warn("shown", "task_id", "t1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "task_id=t1")
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "planr.log")

	l, err := Open(path, "debug")
	require.NoError(t, err)
	l.Debug("questions generated", "count", 3)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "questions generated")
	assert.Contains(t, string(data), "count=3")
}

func TestOpen_Stderr(t *testing.T) {
	l, err := Open("", "info")
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}

func TestOpen_BadLevel(t *testing.T) {
	_, err := Open("", "loud")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("discarded") })
}
