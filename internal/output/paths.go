package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveDirectory expands the configured recordings directory ("~" aware)
// to an absolute path without creating it.
func ResolveDirectory(raw string) (string, error) {
	expanded := expandUserPath(strings.TrimSpace(raw))
	if expanded == "" {
		return "", fmt.Errorf("recordings directory is not configured")
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve recordings directory %q: %w", raw, err)
	}
	return abs, nil
}

// EnsureDirectory resolves the recordings directory and creates it when
// missing.
func EnsureDirectory(raw string) (string, error) {
	dir, err := ResolveDirectory(raw)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings directory %q: %w", dir, err)
	}
	return dir, nil
}

func expandUserPath(raw string) string {
	if raw == "" {
		return ""
	}
	if raw == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return raw
		}
		return home
	}
	if !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
}
