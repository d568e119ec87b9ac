package shroud

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalidConfiguration indicates the cipher configuration cannot be used,
	// most commonly because the passphrase is empty.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnsupportedAlgorithm indicates a key or cipher algorithm name is not known.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrCipherFailure indicates an encrypt or decrypt computation failed:
	// malformed ciphertext, bad padding, or a key/algorithm mismatch.
	ErrCipherFailure = errors.New("cipher failure")

	// ErrInvariantViolation indicates the marker protocol was misused,
	// such as stripping the marker from an unmarked value.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrUnaddressable indicates a participant was passed by value and
	// its fields cannot be rewritten in place.
	ErrUnaddressable = errors.New("participant is not addressable")

	// ErrEncrypt indicates encryption of a field failed.
	ErrEncrypt = errors.New("encrypt failed")

	// ErrDecrypt indicates decryption of a field failed.
	ErrDecrypt = errors.New("decrypt failed")
)

// ConfigError represents a configuration error.
// It wraps a sentinel error with additional context about the field and algorithm.
type ConfigError struct {
	Err       error  // Underlying sentinel error (ErrUnsupportedAlgorithm, etc.)
	Field     string // Field or option name that triggered the error
	Algorithm string // Algorithm that was missing/invalid
	Tag       string // Struct tag value that was rejected
}

func (e *ConfigError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s value %q (field %s)", e.Err.Error(), e.Tag, e.Field)
	}
	if e.Field != "" && e.Algorithm != "" {
		return fmt.Sprintf("%s for algorithm %q (field %s)", e.Err.Error(), e.Algorithm, e.Field)
	}
	if e.Algorithm != "" {
		return fmt.Sprintf("%s for algorithm %q", e.Err.Error(), e.Algorithm)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransformError represents an error during field transformation.
// It wraps a sentinel error with context about which field and operation failed.
// Both Err and Cause are reachable through errors.Is and errors.As.
type TransformError struct {
	Err       error  // Underlying sentinel error (ErrEncrypt, ErrDecrypt)
	Field     string // Qualified field name that failed (Type.Field)
	Operation string // Operation that failed (encrypt, decrypt)
	Cause     error  // Original error from the cipher module
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s field %s: %v", e.Operation, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s field %s", e.Operation, e.Field)
}

func (e *TransformError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// newConfigError creates a ConfigError.
func newConfigError(sentinel error, algorithm, field string) error {
	return &ConfigError{
		Err:       sentinel,
		Algorithm: algorithm,
		Field:     field,
	}
}

// newTagError creates a ConfigError for a rejected struct tag value.
func newTagError(tag, field string) error {
	return &ConfigError{
		Err:   ErrInvalidTag,
		Tag:   tag,
		Field: field,
	}
}

// newTransformError creates a TransformError for field transformation failures.
func newTransformError(sentinel error, operation, field string, cause error) error {
	return &TransformError{
		Err:       sentinel,
		Field:     field,
		Operation: operation,
		Cause:     cause,
	}
}

// cipherFailure wraps a low-level error as ErrCipherFailure.
func cipherFailure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCipherFailure, fmt.Sprintf(format, args...))
}
