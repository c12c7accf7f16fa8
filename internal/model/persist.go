package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/payload"
)

// NamedChain pairs an attribute name with its chain.
type NamedChain struct {
	Name  string
	Chain *chain.Chain
}

// FromChains builds a model around existing chains, in the given order.
// Each chain is verified; a broken one fails with a *chain.IntegrityError
// naming the attribute.
func FromChains(attrs []NamedChain, opts ...Option) (*Model, error) {
	m := New(opts...)
	for _, a := range attrs {
		if err := m.attach(a.Name, a.Chain); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) attach(name string, c *chain.Chain) error {
	if _, dup := m.chains[name]; dup {
		return fmt.Errorf("duplicate attribute %q", name)
	}
	if err := verifyNamed(name, c); err != nil {
		return err
	}
	m.chains[name] = c
	m.names = append(m.names, name)
	return nil
}

// Snapshot returns a copy of every attribute's chain, in insertion order,
// taken at a single point in time.
func (m *Model) Snapshot() []NamedChain {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]NamedChain, len(m.names))
	for i, name := range m.names {
		out[i] = NamedChain{Name: name, Chain: m.chains[name].Clone()}
	}
	return out
}

// savedModel is the serialized form: attribute name -> records, in order.
type savedModel struct {
	Attributes []savedAttribute `json:"attributes"`
}

type savedAttribute struct {
	Name     string         `json:"name"`
	Versions []chain.Record `json:"versions"`
}

// MarshalJSON saves the full history of every attribute.
func (m *Model) MarshalJSON() ([]byte, error) {
	snap := m.Snapshot()
	saved := savedModel{Attributes: make([]savedAttribute, len(snap))}
	for i, a := range snap {
		saved.Attributes[i] = savedAttribute{Name: a.Name, Versions: a.Chain.Records()}
	}
	return json.Marshal(saved)
}

// Load decodes a saved model and verifies every chain before returning it.
func Load(data []byte, opts ...Option) (*Model, error) {
	var saved savedModel
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	m := New(opts...)
	for _, a := range saved.Attributes {
		c, err := chain.Restore(a.Versions, chain.WithClock(m.clock))
		if err != nil {
			var ie *chain.IntegrityError
			if errors.As(err, &ie) {
				return nil, ie.WithAttribute(a.Name)
			}
			return nil, fmt.Errorf("load attribute %q: %w", a.Name, err)
		}
		if err := m.attach(a.Name, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// UnmarshalJSON replaces the receiver's attributes with a verified saved model.
// Accessors and clock declared on the receiver are kept.
func (m *Model) UnmarshalJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chains == nil {
		m.chains = make(map[string]*chain.Chain)
	}
	if m.accessors == nil {
		m.accessors = make(map[string]Accessor)
	}
	if m.clock == nil {
		m.clock = chain.SystemClock{}
	}

	loaded, err := Load(data, WithClock(m.clock))
	if err != nil {
		return err
	}
	m.names = loaded.names
	m.chains = loaded.chains
	return nil
}

// Current returns the current value of every attribute without accessors or
// pruning, in insertion order.
func (m *Model) Current() payload.Object {
	var out payload.Object
	for _, a := range m.Snapshot() {
		out = out.Set(a.Name, a.Chain.Value())
	}
	return out
}
