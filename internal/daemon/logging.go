package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxLogSize is the size at which the log is rotated on daemon start.
const maxLogSize = 5 << 20

// GetLogPath returns the path to the daemon log file.
func GetLogPath() string {
	return filepath.Join(stateDir, "daemon.log")
}

// OpenLog opens the log at path for appending. A log larger than maxSize is
// moved to path.old first, replacing any earlier backup.
func OpenLog(path string, maxSize int64) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if info, err := os.Stat(path); err == nil && maxSize > 0 && info.Size() >= maxSize {
		backup := path + ".old"
		os.Remove(backup)
		if err := os.Rename(path, backup); err != nil {
			return nil, fmt.Errorf("failed to rotate log: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// LastLogError scans the last lines of the log at path for an error line,
// returning "" when there is none.
func LastLogError(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := max(len(lines)-10, 0)
	for i := len(lines) - 1; i >= start; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(strings.ToLower(line), "error") ||
			strings.Contains(line, "failed to") {
			return line
		}
	}
	return ""
}
