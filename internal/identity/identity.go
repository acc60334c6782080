// Package identity resolves the opaque user identity that sessions are stored under.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const anonPrefix = "anon_"

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// Resolve returns the configured user id, or the anonymous id persisted at path.
// A missing or malformed stored id is replaced with a freshly generated one.
func Resolve(configured, path string) (string, error) {
	if id := strings.TrimSpace(configured); id != "" {
		return id, nil
	}
	if path == "" {
		return "", fmt.Errorf("identity path is empty")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); IsAnonymous(id) {
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to read identity: %w", err)
	}

	id := NewAnonymous()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write identity: %w", err)
	}
	return id, nil
}

// NewAnonymous generates an anonymous id.
func NewAnonymous() string {
	return anonPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsAnonymous reports whether id is a well-formed anonymous id.
func IsAnonymous(id string) bool {
	return anonIDPattern.MatchString(id)
}
