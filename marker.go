package shroud

import (
	"fmt"
	"strings"
)

// Sentinel prefixes every value written by the encrypt path. Its presence is
// the only signal that a value is already encrypted, so it must never begin a
// legitimate plaintext value stored in a sensitive field.
const Sentinel = "{shroud}"

// IsMarked reports whether value carries the Sentinel prefix.
func IsMarked(value string) bool {
	return strings.HasPrefix(value, Sentinel)
}

// AddMarker prepends the Sentinel to ciphertext.
func AddMarker(ciphertext string) string {
	return Sentinel + ciphertext
}

// StripMarker removes the Sentinel from a marked value.
// It fails with ErrInvariantViolation when value is not marked.
func StripMarker(value string) (string, error) {
	if !IsMarked(value) {
		return "", fmt.Errorf("%w: value does not start with %q", ErrInvariantViolation, Sentinel)
	}
	return value[len(Sentinel):], nil
}
