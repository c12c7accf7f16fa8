package chain

import (
	"iter"
	"slices"

	"github.com/roach88/eidetic/internal/payload"
)

// Chain is an append-only sequence of versions, index-aligned with ordinals.
// It always holds at least the genesis entry.
type Chain struct {
	versions []*Version
	clock    Clock
}

// Option configures a Chain.
type Option func(*Chain)

// WithClock sets the timestamp source for appended versions.
func WithClock(clock Clock) Option {
	return func(c *Chain) {
		c.clock = clock
	}
}

// New creates a chain holding only the genesis entry.
func New(opts ...Option) *Chain {
	c := newEmpty(opts...)
	c.versions = append(c.versions, newVersion(payload.String(""), 0, "", c.clock))
	return c
}

func newEmpty(opts ...Option) *Chain {
	c := &Chain{clock: SystemClock{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// At returns the version with the given ordinal.
// Out-of-range ordinals are absent, not errors.
func (c *Chain) At(ordinal int) (*Version, bool) {
	if ordinal < 0 || ordinal >= len(c.versions) {
		return nil, false
	}
	return c.versions[ordinal], true
}

// Latest returns the current version.
func (c *Chain) Latest() *Version {
	return c.versions[len(c.versions)-1]
}

// Value returns the current payload.
func (c *Chain) Value() payload.Value {
	return c.Latest().Value()
}

// ValueAt returns the payload of the version with the given ordinal.
func (c *Chain) ValueAt(ordinal int) (payload.Value, bool) {
	v, ok := c.At(ordinal)
	if !ok {
		return nil, false
	}
	return v.Value(), true
}

// Append records v as the next version and returns it. Never fails.
// Not safe for concurrent use.
func (c *Chain) Append(v payload.Value) *Version {
	next := c.Latest().update(v, c.clock)
	c.versions = append(c.versions, next)
	return next
}

// Len returns the number of versions, i.e. the highest ordinal + 1.
func (c *Chain) Len() int {
	return len(c.versions)
}

// All iterates versions in ordinal order. The sequence can be ranged over
// any number of times.
func (c *Chain) All() iter.Seq2[int, *Version] {
	return func(yield func(int, *Version) bool) {
		for i, v := range c.versions {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Clone returns a chain holding the same versions and clock. Versions are
// immutable, so appends to either chain never show in the other.
func (c *Chain) Clone() *Chain {
	return &Chain{versions: slices.Clone(c.versions), clock: c.clock}
}

// Versions returns a copy of the version list.
func (c *Chain) Versions() []*Version {
	out := make([]*Version, len(c.versions))
	copy(out, c.versions)
	return out
}

// CheckIntegrity reports whether the whole chain verifies.
func (c *Chain) CheckIntegrity() bool {
	return c.Verify() == nil
}

// Verify walks the chain once and returns an *IntegrityError for the first
// entry that is misplaced, fails its own digest, or does not link to its
// predecessor.
func (c *Chain) Verify() error {
	if len(c.versions) == 0 {
		return newIntegrityError(ErrCodeEmptyChain, -1, "chain has no genesis entry")
	}

	for i, curr := range c.versions {
		if curr.ordinal != i {
			return newIntegrityError(ErrCodeOrdinalMismatch, i, "entry at position %d claims ordinal %d", i, curr.ordinal)
		}
		if !curr.IsValid() {
			return newIntegrityError(ErrCodeInvalidDigest, i, "stored digest does not match contents")
		}
		if i > 0 && curr.previousDigest != c.versions[i-1].digest {
			return newIntegrityError(ErrCodeBrokenLink, i, "previous digest does not match entry %d", i-1)
		}
	}
	return nil
}
