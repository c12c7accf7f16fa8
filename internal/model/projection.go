package model

import (
	"bytes"
	"encoding/json"

	"github.com/roach88/eidetic/internal/payload"
)

// ToObject projects the current value of every attribute, in insertion order.
// Null values and empty arrays/objects are dropped recursively and keys are
// trimmed. Accessors are honored.
func (m *Model) ToObject() payload.Object {
	var out payload.Object
	for _, name := range m.Names() {
		if v, ok := m.Get(name); ok {
			out = out.Set(name, v)
		}
	}
	pruned, ok := payload.Prune(out)
	if !ok {
		return payload.Object{}
	}
	return pruned.(payload.Object)
}

// ToJSON encodes ToObject, indented when pretty is set.
func (m *Model) ToJSON(pretty bool) ([]byte, error) {
	data, err := payload.MarshalCanonical(m.ToObject())
	if err != nil {
		return nil, err
	}
	if !pretty {
		return data, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String returns the compact JSON projection.
func (m *Model) String() string {
	data, err := m.ToJSON(false)
	if err != nil {
		return "{}"
	}
	return string(data)
}
