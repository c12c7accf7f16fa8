package harness

import (
	"fmt"

	"github.com/roach88/eidetic/internal/loader"
	"github.com/roach88/eidetic/internal/payload"
)

// executeExpect evaluates one expectation. Mismatches are added to the
// result; only malformed expected values return an error.
func (h *Harness) executeExpect(i int, e *Expect, result *Result) error {
	if e.Object != nil {
		return h.expectObject(i, e, result)
	}

	if e.Length != nil {
		got := 0
		if c, ok := h.model.Chain(e.Attribute); ok {
			got = c.Len()
		}
		if got != *e.Length {
			result.AddError(fmt.Sprintf("step %d: %s: expected length %d, got %d", i, e.Attribute, *e.Length, got))
		}
	}

	if e.Value == nil {
		return nil
	}
	want, err := loader.FromYAMLNode(e.Value)
	if err != nil {
		return fmt.Errorf("expect %s: %w", e.Attribute, err)
	}

	var (
		got   payload.Value
		found bool
		where = "current value"
	)
	if e.Ordinal != nil {
		got, found = h.model.GetAt(e.Attribute, *e.Ordinal)
		where = fmt.Sprintf("ordinal %d", *e.Ordinal)
	} else {
		got, found = h.model.Get(e.Attribute)
	}

	if !found {
		// A missing attribute reads as null.
		got = payload.Null{}
	}
	if !payload.Equal(want, got) {
		result.AddError(fmt.Sprintf("step %d: %s %s: expected %s, got %s",
			i, e.Attribute, where, payload.MustMarshalCanonical(want), payload.MustMarshalCanonical(got)))
	}
	return nil
}

func (h *Harness) expectObject(i int, e *Expect, result *Result) error {
	want, err := loader.FromYAMLNode(e.Object)
	if err != nil {
		return fmt.Errorf("expect object: %w", err)
	}

	got := h.model.ToObject()
	if !payload.Equal(want, got) {
		result.AddError(fmt.Sprintf("step %d: expected object %s, got %s",
			i, payload.MustMarshalCanonical(want), payload.MustMarshalCanonical(got)))
	}
	return nil
}
