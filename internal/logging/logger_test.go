package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "WARN: ")
	require.Contains(t, out, "shown 3")
	require.Contains(t, out, "ERROR: ")
	require.Contains(t, out, "shown 4")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel(" warning "))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestOpenWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amped.log")
	l, err := Open(path, LevelInfo)
	require.NoError(t, err)
	l.Info("hello %s", "file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "INFO: ")
	require.Contains(t, string(b), "hello file")
}

func TestOpenEmptyPathDiscards(t *testing.T) {
	l, err := Open("", LevelDebug)
	require.NoError(t, err)
	l.Error("nowhere")
	require.NoError(t, l.Close())
}

func TestOpenCreatesMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "first", "run", "amped.log")
	l, err := Open(path, LevelInfo)
	require.NoError(t, err)
	l.Info("first run")
	require.NoError(t, l.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
}
