package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Storage errors
	ErrStorage        = errors.New("spectrum storage failure")
	ErrColumnMissing  = fmt.Errorf("%w: column missing", ErrStorage)
	ErrLengthMismatch = fmt.Errorf("%w: columns not row-aligned", ErrStorage)

	// Normalization errors
	ErrDegenerateDimension = errors.New("zero-variance label dimension")
	ErrStatsShape          = errors.New("normalization stats shape mismatch")

	// Split errors
	ErrInvalidFraction = errors.New("train fraction out of range (0,1)")

	// Error-propagation errors
	ErrInsufficientSamples = errors.New("ensemble size below minimum of 2")
	ErrPropagation         = errors.New("model inference failed mid-ensemble")

	// Dataset errors
	ErrEmptyReferenceSet = errors.New("reference set is empty")
	ErrPairingMismatch   = errors.New("spectrum and label counts differ")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
)

// Error constructors with context
func NewColumnMissingError(key ColumnKey) error {
	return fmt.Errorf("%w: %s", ErrColumnMissing, key)
}

func NewLengthMismatchError(key ColumnKey, got, want int) error {
	return fmt.Errorf("%w: column %s has %d rows, expected %d", ErrLengthMismatch, key, got, want)
}

func NewDegenerateDimensionError(dim int) error {
	return fmt.Errorf("%w: dimension %d", ErrDegenerateDimension, dim)
}

func NewInvalidFractionError(fraction float64) error {
	return fmt.Errorf("%w: got %v", ErrInvalidFraction, fraction)
}

func NewInsufficientSamplesError(k int) error {
	return fmt.Errorf("%w: got %d", ErrInsufficientSamples, k)
}

func NewPropagationError(member int, cause error) error {
	return fmt.Errorf("%w: ensemble member %d: %v", ErrPropagation, member, cause)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

func IsDegenerateDimensionError(err error) bool {
	return errors.Is(err, ErrDegenerateDimension)
}

func IsInvalidFractionError(err error) bool {
	return errors.Is(err, ErrInvalidFraction)
}

func IsInsufficientSamplesError(err error) bool {
	return errors.Is(err, ErrInsufficientSamples)
}

func IsPropagationError(err error) bool {
	return errors.Is(err, ErrPropagation)
}
