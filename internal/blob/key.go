package blob

import (
	"fmt"
	"strings"

	"safework/internal/safework"
)

// validateKey rejects keys that cannot be used as a single file or object
// name on every backend.
func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: blob key is empty", safework.ErrInvalidInput)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("%w: blob key %q contains a path separator", safework.ErrInvalidInput, key)
	case key == "." || key == ".." || strings.HasPrefix(key, "."):
		return fmt.Errorf("%w: blob key %q must not start with a dot", safework.ErrInvalidInput, key)
	}
	return nil
}
