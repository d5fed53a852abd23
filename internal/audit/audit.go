// Package audit provides append-only audit logging for hookgate decisions.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Version is the audit entry format version.
const Version = 1

// TimestampFormat is the format used for audit log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// rotatedSuffixFormat names rotated logs: audit.log.20260102T150405.zst
const rotatedSuffixFormat = "20060102T150405"

// Entry represents a single audit log entry (v1 format).
type Entry struct {
	Version     int      `json:"version"`
	ID          string   `json:"id"`
	SessionID   string   `json:"session_id,omitempty"`
	Timestamp   string   `json:"timestamp"`
	DurationMs  float64  `json:"duration_ms"`
	Event       string   `json:"event,omitempty"`
	Tool        string   `json:"tool,omitempty"`
	Kind        string   `json:"kind"`
	Decision    string   `json:"decision"`
	Rule        string   `json:"rule,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Error       string   `json:"error,omitempty"`
	Input       string   `json:"input,omitempty"`
	ConfigPath  string   `json:"config_path,omitempty"`
	ConfigError string   `json:"config_error,omitempty"`
}

var (
	auditFile *os.File
	mu        sync.Mutex
	enabled   bool
)

// DefaultLogPath returns the default audit log path (~/.local/share/hookgate/audit.log)
func DefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", constants.AppName, constants.AuditFileName), nil
}

// Init opens the audit log for appending. If path is empty, uses the default
// path. When maxBytes is positive and the existing log is larger, it is
// rotated to a zstd-compressed file first.
func Init(path string, disable bool, maxBytes int64) error {
	mu.Lock()
	defer mu.Unlock()

	if disable {
		enabled = false
		return nil
	}

	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			logger.Debug("failed to get default audit log path", "error", err)
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		logger.Debug("failed to create audit log directory", "error", err)
		return err
	}

	if maxBytes > 0 {
		if err := rotate(path, maxBytes, time.Now()); err != nil {
			// Keep appending to the oversized log.
			logger.Warn("failed to rotate audit log", "path", path, "error", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		logger.Debug("failed to open audit log file", "error", err)
		return err
	}

	auditFile = f
	enabled = true
	logger.Debug("audit logging initialized", "path", path)
	return nil
}

// rotate moves an oversized log aside and compresses it with zstd.
// The rename is the only step that races with other processes; the loser
// sees ErrNotExist and skips.
func rotate(path string, maxBytes int64, now time.Time) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() <= maxBytes {
		return nil
	}

	rotated := path + "." + now.UTC().Format(rotatedSuffixFormat)
	if err := os.Rename(path, rotated); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to move audit log aside: %w", err)
	}

	if err := compressFile(rotated, rotated+".zst"); err != nil {
		return err
	}
	return os.Remove(rotated)
}

// compressFile writes a zstd-compressed copy of src to dst.
func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open rotated log: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return fmt.Errorf("failed to create compressed log: %w", err)
	}

	enc, err := zstd.NewWriter(out)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return fmt.Errorf("failed to compress rotated log: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finish compressed log: %w", err)
	}
	return out.Close()
}

// Close closes the audit log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if auditFile != nil {
		err := auditFile.Close()
		auditFile = nil
		enabled = false
		return err
	}
	return nil
}

// Log writes an entry to the audit log as one JSON line in a single write.
// If audit logging is not initialized or disabled, this is a no-op.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || auditFile == nil {
		return nil
	}

	entry.Version = Version
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	// Format timestamp with tenths of second precision (1 decimal place)
	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Debug("failed to marshal audit entry", "error", err)
		return err
	}

	if _, err := auditFile.Write(append(data, '\n')); err != nil {
		logger.Debug("failed to write audit entry", "error", err)
		return err
	}

	return nil
}

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Reset resets the audit state. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if auditFile != nil {
		auditFile.Close()
	}
	auditFile = nil
	enabled = false
}
