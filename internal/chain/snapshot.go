package chain

import "github.com/roach88/eidetic/internal/payload"

// Valuer is anything holding a payload. Both Snapshot and *Version qualify.
type Valuer interface {
	Value() payload.Value
}

// Snapshot is a frozen holder of one payload.
type Snapshot struct {
	value payload.Value
}

// NewSnapshot freezes the canonical form of v (see payload.Canonicalize),
// so the frozen value is the one a reload of its record yields.
// A nil v is treated as null.
func NewSnapshot(v payload.Value) Snapshot {
	return Snapshot{value: payload.Canonicalize(v)}
}

// Value returns the frozen payload.
func (s Snapshot) Value() payload.Value {
	if s.value == nil {
		return payload.Null{}
	}
	return s.value
}

// Equal compares payloads structurally via their canonical encodings.
func (s Snapshot) Equal(other Valuer) bool {
	if other == nil {
		return false
	}
	return payload.Equal(s.Value(), other.Value())
}
