package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bborn/wakeup/internal/config"
	"github.com/charmbracelet/log"
)

// LogPath returns the path to the UI log file.
// The form owns the terminal, so it cannot log to stderr.
func LogPath() string {
	return filepath.Join(config.DataDir(), "wakeup.log")
}

// OpenLogger opens a charm logger appending to path. The returned close
// function flushes and closes the file.
func OpenLogger(path string, level log.Level) (*log.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Prefix:          "wakeup",
		ReportTimestamp: true,
		Level:           level,
	})
	return logger, f.Close, nil
}
