package model

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/payload"
)

func newTestModel(opts ...Option) *Model {
	return New(append([]Option{WithClock(chain.FixedClock(1700000000))}, opts...)...)
}

func TestGetMissing(t *testing.T) {
	m := newTestModel()
	v, ok := m.Get("name")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.False(t, m.Has("name"))
}

func TestSetAndGet(t *testing.T) {
	m := newTestModel()
	ver := m.Set("name", payload.String("Ada"))

	assert.Equal(t, 1, ver.Ordinal())
	assert.Equal(t, chain.GenesisDigest, ver.PreviousDigest())

	v, ok := m.Get("name")
	require.True(t, ok)
	assert.Equal(t, payload.String("Ada"), v)
	assert.True(t, m.Has("name"))
}

func TestHistoryIsKept(t *testing.T) {
	m := newTestModel()
	m.Set("status", payload.String("draft"))
	m.Set("status", payload.String("review"))
	m.Set("status", payload.String("published"))

	tests := []struct {
		ordinal int
		want    payload.Value
	}{
		{0, payload.String("")},
		{1, payload.String("draft")},
		{2, payload.String("review")},
		{3, payload.String("published")},
	}
	for _, tt := range tests {
		v, ok := m.GetAt("status", tt.ordinal)
		require.True(t, ok, "ordinal %d", tt.ordinal)
		assert.Equal(t, tt.want, v)
	}

	_, ok := m.GetAt("status", 4)
	assert.False(t, ok, "future ordinal is absent")

	_, ok = m.GetAt("missing", 0)
	assert.False(t, ok)

	c, ok := m.Chain("status")
	require.True(t, ok)
	assert.Equal(t, 4, c.Len())
}

func TestSetAny(t *testing.T) {
	m := newTestModel()
	_, err := m.SetAny("tags", []string{"a", "b"})
	require.NoError(t, err)

	v, _ := m.Get("tags")
	assert.Equal(t, payload.Array{payload.String("a"), payload.String("b")}, v)

	_, err = m.SetAny("ratio", 0.5)
	assert.ErrorIs(t, err, payload.ErrFloat)
	_, ok := m.Chain("ratio")
	assert.False(t, ok, "failed conversion appends nothing")
}

func TestUnset(t *testing.T) {
	m := newTestModel()
	m.Set("email", payload.String("ada@example.com"))
	m.Unset("email")

	assert.False(t, m.Has("email"))
	v, ok := m.Get("email")
	require.True(t, ok)
	assert.Equal(t, payload.Null{}, v)

	old, ok := m.GetAt("email", 1)
	require.True(t, ok)
	assert.Equal(t, payload.String("ada@example.com"), old)

	m.Unset("never-set")
	assert.Equal(t, []string{"email"}, m.Names())
}

func TestHydratePreservesOrder(t *testing.T) {
	m := newTestModel()
	m.Hydrate(payload.NewObject(
		payload.M("zeta", payload.Int(1)),
		payload.M("alpha", payload.Int(2)),
	))
	assert.Equal(t, []string{"zeta", "alpha"}, m.Names())
	assert.Equal(t, 2, m.Len())
}

func TestHydrateMap(t *testing.T) {
	m := newTestModel()
	require.NoError(t, m.HydrateMap(map[string]any{"b": 1, "a": "x"}))
	assert.Equal(t, []string{"a", "b"}, m.Names())

	assert.Error(t, m.HydrateMap(map[string]any{"bad": 1.25}))
}

func TestSetAccessor(t *testing.T) {
	m := newTestModel(WithAccessor("email", Accessor{
		Set: func(v payload.Value) payload.Value {
			if s, ok := v.(payload.String); ok {
				return payload.String(strings.ToLower(string(s)))
			}
			return v
		},
	}))

	m.Set("email", payload.String("Ada@Example.COM"))
	v, _ := m.Get("email")
	assert.Equal(t, payload.String("ada@example.com"), v)
}

func TestGetAccessor(t *testing.T) {
	m := newTestModel(WithAccessor("revisions", Accessor{
		Get: func(c *chain.Chain) payload.Value {
			return payload.Int(c.Len() - 1)
		},
	}))

	m.Set("revisions", payload.String("a"))
	m.Set("revisions", payload.String("b"))

	v, ok := m.Get("revisions")
	require.True(t, ok)
	assert.Equal(t, payload.Int(2), v)

	// Historical reads bypass the getter
	old, _ := m.GetAt("revisions", 1)
	assert.Equal(t, payload.String("a"), old)
}

func TestComputeAccessor(t *testing.T) {
	calls := 0
	m := newTestModel(WithAccessor("full_name", Accessor{
		Compute: func(m *Model) payload.Value {
			calls++
			first, _ := m.Get("first")
			last, _ := m.Get("last")
			return payload.String(string(first.(payload.String)) + " " + string(last.(payload.String)))
		},
	}))
	m.Set("first", payload.String("Ada"))
	m.Set("last", payload.String("Lovelace"))

	v, ok := m.Get("full_name")
	require.True(t, ok)
	assert.Equal(t, payload.String("Ada Lovelace"), v)

	// Computed value is recorded, so the next read does not recompute
	_, _ = m.Get("full_name")
	assert.Equal(t, 1, calls)

	c, _ := m.Chain("full_name")
	assert.Equal(t, 2, c.Len())

	// Unset clears it, and the next read recomputes
	m.Unset("full_name")
	_, _ = m.Get("full_name")
	assert.Equal(t, 2, calls)
	c, _ = m.Chain("full_name")
	assert.Equal(t, 4, c.Len())
}

func TestComputePanicReleasesLock(t *testing.T) {
	m := newTestModel(WithAccessor("broken", Accessor{
		Compute: func(*Model) payload.Value { panic("boom") },
	}))

	assert.PanicsWithValue(t, "boom", func() { m.Get("broken") })

	// The model stays usable for readers and writers
	m.Set("a", payload.Int(1))
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, payload.Int(1), v)
	_, ok = m.Chain("broken")
	assert.False(t, ok, "nothing appended for a failed compute")
}

func TestGetAccessorReadsOtherAttributes(t *testing.T) {
	var m *Model
	m = newTestModel(WithAccessor("greeting", Accessor{
		Get: func(c *chain.Chain) payload.Value {
			name, _ := m.Get("name")
			return payload.String(string(c.Value().(payload.String)) + ", " + string(name.(payload.String)))
		},
	}))
	m.Set("name", payload.String("Ada"))
	m.Set("greeting", payload.String("Hello"))

	v, ok := m.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, payload.String("Hello, Ada"), v)
}

func TestChainIsACopy(t *testing.T) {
	m := newTestModel()
	m.Set("a", payload.String("x"))

	c, _ := m.Chain("a")
	c.Append(payload.String("not through the model"))

	fresh, _ := m.Chain("a")
	assert.Equal(t, 2, fresh.Len())
	assert.Equal(t, payload.String("x"), fresh.Value())
}

func TestSnapshotIsFrozen(t *testing.T) {
	m := newTestModel()
	m.Set("a", payload.Int(1))
	snap := m.Snapshot()

	m.Set("a", payload.Int(2))
	m.Set("b", payload.Int(3))

	require.Len(t, snap, 1)
	assert.Equal(t, 2, snap[0].Chain.Len())
	assert.Equal(t, payload.Int(1), snap[0].Chain.Value())
}

func TestVerifyIntactModel(t *testing.T) {
	m := newTestModel()
	m.Set("a", payload.String("x"))
	require.NoError(t, m.Verify())
}

func TestConcurrentWrites(t *testing.T) {
	m := newTestModel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set("counter", payload.Int(i))
			_, _ = m.Get("counter")
		}(i)
	}
	wg.Wait()

	c, ok := m.Chain("counter")
	require.True(t, ok)
	assert.Equal(t, 21, c.Len())
	assert.True(t, c.CheckIntegrity())
}

// Run with -race: serializing and projecting must not race with writers.
func TestConcurrentReadsDuringWrites(t *testing.T) {
	m := newTestModel()
	m.Set("a", payload.Int(0))

	const writes = 500
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 1; i <= writes; i++ {
			m.Set("a", payload.Int(i))
			if i%50 == 0 {
				m.Set("b", payload.Int(i))
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			data, err := m.MarshalJSON()
			if !assert.NoError(t, err) {
				return
			}
			loaded, err := Load(data)
			if !assert.NoError(t, err, "every snapshot is a consistent chain") {
				return
			}
			_ = loaded.ToObject()
			_ = m.ToObject()
			_ = m.Current()
			for _, a := range m.Snapshot() {
				_ = a.Chain.Records()
			}
		}
	}()

	wg.Wait()

	c, _ := m.Chain("a")
	assert.Equal(t, writes+2, c.Len())
	require.NoError(t, m.Verify())
}
