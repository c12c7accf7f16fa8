package model

import (
	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/payload"
)

// Accessor customizes reads and writes of one attribute. All fields are optional.
type Accessor struct {
	// Get replaces the current value on reads of the latest version.
	// It receives a copy of the attribute's chain and runs unlocked, so it
	// may read other attributes through the model.
	Get func(c *chain.Chain) payload.Value

	// Set transforms a value before it is appended.
	Set func(v payload.Value) payload.Value

	// Compute derives a value when the attribute is missing or currently null.
	// The result is appended to the chain. Compute runs unlocked and must not
	// read its own attribute through the model.
	Compute func(m *Model) payload.Value
}

// Option configures a Model.
type Option func(*Model)

// WithAccessor declares the accessor for an attribute.
func WithAccessor(name string, a Accessor) Option {
	return func(m *Model) {
		m.accessors[name] = a
	}
}

// WithClock sets the timestamp source for every chain the model creates.
func WithClock(clock chain.Clock) Option {
	return func(m *Model) {
		m.clock = clock
	}
}
