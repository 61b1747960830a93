package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	TitleColor  = color.New(color.FgCyan, color.Bold) // TitleColor marks headers and the active view.
	ErrorColor  = color.New(color.FgRed, color.Bold)  // ErrorColor marks failures and banners.
	NoticeColor = color.New(color.FgYellow)           // NoticeColor marks in-progress and refused actions.
	MutedColor  = color.New(color.FgHiBlack)          // MutedColor marks help text.
)

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// homeFile returns name under the home directory, or name itself when home is unknown.
func homeFile(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetDBFilePath() string {
	return homeFile(".orgpulse.db")
}

// GetLogFilePath returns the path the dashboard logs to.
func GetLogFilePath() string {
	return homeFile(".orgpulse.log")
}

// GetLockFilePath returns the path of the lock file guarding collection runs.
func GetLockFilePath() string {
	return homeFile(".orgpulse.lock")
}

// NewFileLogger opens path for appending and returns a JSON logger writing to it.
// The returned closer must be closed when logging is done.
func NewFileLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %q: %w", path, err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}

// NewStderrLogger returns a text logger for headless commands.
func NewStderrLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// TruncateText shortens s to maxWidth runes with a trailing ellipsis.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}
