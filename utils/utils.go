package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Version is injected at build time through ldflags.
var Version = "dev"

// ErrCode is the exit code used when the run fails.
var ErrCode = 0

// LogError logs err unless it is a context cancellation, which is expected on shutdown.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if logger == nil || errors.Is(err, context.Canceled) {
		return
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)
}

// CheckFileExists reports whether path exists and is a regular file.
func CheckFileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFileIfExists returns the file content, or nil with ok=false when the file is missing.
func ReadFileIfExists(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Keys returns the sorted keys of m.
func Keys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
