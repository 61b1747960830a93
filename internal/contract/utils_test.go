package contract

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path selects stdout", func(t *testing.T) {
		f, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, f)
	})

	t.Run("path creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		f, err := SelectOutputFile(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		assert.Equal(t, path, f.Name())
	})
}

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".orgpulse.db"), GetDBFilePath())
	assert.Equal(t, filepath.Join(home, ".orgpulse.log"), GetLogFilePath())
	assert.Equal(t, filepath.Join(home, ".orgpulse.lock"), GetLockFilePath())
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orgpulse.log")
	logger, closer, err := NewFileLogger(path, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("collection finished", "snapshot_id", 7)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"snapshot_id":7`))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcdefg...", TruncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3))
}
