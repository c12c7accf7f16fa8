package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a named model does not exist.
var ErrNotFound = errors.New("model not found")

// DivergenceError reports an in-memory chain that does not extend the stored one.
type DivergenceError struct {
	Model     string
	Attribute string
	Ordinal   int
	Stored    string // stored digest at Ordinal ("" when the chain is shorter than the archive)
	Memory    string // in-memory digest at Ordinal
}

// Error implements the error interface.
func (e *DivergenceError) Error() string {
	if e.Memory == "" {
		return fmt.Sprintf("history diverged: archive holds ordinal %d of %s.%s, in-memory chain is shorter",
			e.Ordinal, e.Model, e.Attribute)
	}
	return fmt.Sprintf("history diverged at %s.%s ordinal %d: stored %s, in-memory %s",
		e.Model, e.Attribute, e.Ordinal, e.Stored, e.Memory)
}
