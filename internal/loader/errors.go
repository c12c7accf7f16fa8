package loader

import "fmt"

// Error code constants.
const (
	ErrCodeRead        = "E201" // File could not be read
	ErrCodeFormat      = "E202" // Unsupported file extension
	ErrCodeParse       = "E203" // Malformed document
	ErrCodeNotObject   = "E204" // Top level is not an object
	ErrCodeUnsupported = "E205" // Value not representable as a payload (floats, non-string keys)
	ErrCodeIncomplete  = "E206" // CUE value is not concrete
)

// LoadError describes why a file could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Line    int // 0 when unknown
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		if e.Line > 0 {
			return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}
