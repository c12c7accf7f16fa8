package model

import (
	"errors"
	"sync"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/payload"
)

// Model is an insertion-ordered set of versioned attributes.
// Safe for concurrent use: writes are serialized, and the chains handed out
// by Chain and Snapshot are copies that later writes do not touch.
type Model struct {
	mu        sync.RWMutex
	names     []string
	chains    map[string]*chain.Chain
	accessors map[string]Accessor
	clock     chain.Clock
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		chains:    make(map[string]*chain.Chain),
		accessors: make(map[string]Accessor),
		clock:     chain.SystemClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the current value of an attribute.
// A missing attribute is absent unless a Compute accessor supplies it.
// Accessors run with no lock held.
func (m *Model) Get(name string) (payload.Value, bool) {
	acc, c, ok := m.lookup(name)
	if acc.Compute != nil && (!ok || payload.IsNull(c.Value())) {
		c, ok = m.compute(name, acc.Compute), true
	}
	if !ok {
		return nil, false
	}
	if acc.Get != nil {
		return acc.Get(c), true
	}
	return c.Value(), true
}

// lookup returns the accessor of an attribute and a copy of its chain.
func (m *Model) lookup(name string) (Accessor, *chain.Chain, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc := m.accessors[name]
	c, ok := m.chains[name]
	if !ok {
		return acc, nil, false
	}
	return acc, c.Clone(), true
}

// compute appends the result of fn unless another writer gave the attribute
// a non-null value while fn ran. It returns a copy of the chain.
func (m *Model) compute(name string, fn func(*Model) payload.Value) *chain.Chain {
	computed := fn(m)

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chains[name]
	if !ok || payload.IsNull(c.Value()) {
		c = m.setLocked(name, computed)
	}
	return c.Clone()
}

// GetAt returns the value an attribute held at a given ordinal.
// Ordinals that have not been reached yet are absent.
func (m *Model) GetAt(name string, ordinal int) (payload.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.chains[name]
	if !ok {
		return nil, false
	}
	return c.ValueAt(ordinal)
}

// Set appends a new value to an attribute, creating it on first write.
func (m *Model) Set(name string, v payload.Value) *chain.Version {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.setLocked(name, v)
	return c.Latest()
}

// SetAny converts v with payload.FromAny and appends it.
func (m *Model) SetAny(name string, v any) (*chain.Version, error) {
	value, err := payload.FromAny(v)
	if err != nil {
		return nil, err
	}
	return m.Set(name, value), nil
}

func (m *Model) setLocked(name string, v payload.Value) *chain.Chain {
	if acc := m.accessors[name]; acc.Set != nil {
		v = acc.Set(v)
	}
	c, ok := m.chains[name]
	if !ok {
		c = chain.New(chain.WithClock(m.clock))
		m.chains[name] = c
		m.names = append(m.names, name)
	}
	c.Append(v)
	return c
}

// Unset records null as the attribute's next value. History is kept.
func (m *Model) Unset(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chains[name]; !ok {
		return
	}
	m.setLocked(name, payload.Null{})
}

// Has reports whether the attribute currently holds a non-null value.
func (m *Model) Has(name string) bool {
	v, ok := m.Get(name)
	return ok && !payload.IsNull(v)
}

// Hydrate sets every member of obj in order.
func (m *Model) Hydrate(obj payload.Object) {
	for _, member := range obj.Members() {
		m.Set(member.Key, member.Value)
	}
}

// HydrateMap converts and sets every entry of attrs, in sorted key order.
func (m *Model) HydrateMap(attrs map[string]any) error {
	v, err := payload.FromAny(attrs)
	if err != nil {
		return err
	}
	m.Hydrate(v.(payload.Object))
	return nil
}

// Chain returns a copy of the chain backing an attribute. Appending to the
// copy does not change the model; use Set.
func (m *Model) Chain(name string) (*chain.Chain, bool) {
	_, c, ok := m.lookup(name)
	return c, ok
}

// Clock returns the timestamp source of the model's chains.
func (m *Model) Clock() chain.Clock {
	return m.clock
}

// Names returns attribute names in insertion order.
func (m *Model) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of attributes.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

// Verify checks every chain and returns the first failure, naming its attribute.
func (m *Model) Verify() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range m.names {
		if err := verifyNamed(name, m.chains[name]); err != nil {
			return err
		}
	}
	return nil
}

func verifyNamed(name string, c *chain.Chain) error {
	err := c.Verify()
	var ie *chain.IntegrityError
	if errors.As(err, &ie) {
		return ie.WithAttribute(name)
	}
	return err
}
