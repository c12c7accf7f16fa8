package chain

import (
	"errors"
	"fmt"
)

// ErrIntegrityViolation matches every *IntegrityError via errors.Is.
var ErrIntegrityViolation = errors.New("integrity violation")

// IntegrityErrorCode categorizes integrity failures.
type IntegrityErrorCode string

const (
	// ErrCodeEmptyChain indicates a chain without a genesis entry.
	ErrCodeEmptyChain IntegrityErrorCode = "EMPTY_CHAIN"

	// ErrCodeOrdinalMismatch indicates an entry whose ordinal differs from its position.
	ErrCodeOrdinalMismatch IntegrityErrorCode = "ORDINAL_MISMATCH"

	// ErrCodeInvalidDigest indicates a stored digest that does not match its fields.
	ErrCodeInvalidDigest IntegrityErrorCode = "INVALID_DIGEST"

	// ErrCodeBrokenLink indicates a previous digest that does not match the predecessor.
	ErrCodeBrokenLink IntegrityErrorCode = "BROKEN_LINK"
)

// IntegrityError reports stored history that is inconsistent with its own
// digests. It is never transient: retrying cannot fix it.
type IntegrityError struct {
	// Code identifies the failed check.
	Code IntegrityErrorCode

	// Attribute names the owning attribute, when known.
	Attribute string

	// Ordinal is the first offending entry (-1 when not applicable).
	Ordinal int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s: %s (attribute=%s, ordinal=%d)", e.Code, e.Message, e.Attribute, e.Ordinal)
	}
	return fmt.Sprintf("%s: %s (ordinal=%d)", e.Code, e.Message, e.Ordinal)
}

// Is makes errors.Is(err, ErrIntegrityViolation) true for any IntegrityError.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrityViolation
}

// WithAttribute returns a copy of e naming the owning attribute.
func (e *IntegrityError) WithAttribute(name string) *IntegrityError {
	out := *e
	out.Attribute = name
	return &out
}

// IsIntegrityError returns true if err is or wraps an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

func newIntegrityError(code IntegrityErrorCode, ordinal int, format string, args ...any) *IntegrityError {
	return &IntegrityError{
		Code:    code,
		Ordinal: ordinal,
		Message: fmt.Sprintf(format, args...),
	}
}
