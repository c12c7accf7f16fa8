package chain

import "github.com/roach88/eidetic/internal/payload"

// Version is a Snapshot positioned in a chain.
// Versions are never mutated after construction.
type Version struct {
	Snapshot

	ordinal        int
	previousDigest string
	timestamp      int64
	digest         string
}

// NewVersion creates a version and computes its digest.
// Construction always succeeds; ordinal is taken as given.
func NewVersion(v payload.Value, ordinal int, previousDigest string) *Version {
	return newVersion(v, ordinal, previousDigest, SystemClock{})
}

func newVersion(v payload.Value, ordinal int, previousDigest string, clock Clock) *Version {
	ver := &Version{
		Snapshot:       NewSnapshot(v),
		ordinal:        ordinal,
		previousDigest: previousDigest,
		timestamp:      clock.Now(),
	}
	ver.digest = ver.ComputeDigest()
	return ver
}

// Ordinal returns the position of the version in its chain.
func (v *Version) Ordinal() int {
	return v.ordinal
}

// PreviousDigest returns the digest of the preceding version ("" for genesis).
func (v *Version) PreviousDigest() string {
	return v.previousDigest
}

// Timestamp returns the creation time in Unix seconds.
func (v *Version) Timestamp() int64 {
	return v.timestamp
}

// Digest returns the digest stored at construction.
func (v *Version) Digest() string {
	return v.digest
}

// ComputeDigest recomputes the digest from the current fields.
func (v *Version) ComputeDigest() string {
	return Digest(v.Value(), v.ordinal, v.previousDigest)
}

// IsValid reports whether the stored digest matches the recomputed one.
func (v *Version) IsValid() bool {
	return v.digest == v.ComputeDigest()
}

// Update returns the successor version holding next.
// The receiver is not modified.
func (v *Version) Update(next payload.Value) *Version {
	return v.update(next, SystemClock{})
}

func (v *Version) update(next payload.Value, clock Clock) *Version {
	return newVersion(next, v.ordinal+1, v.digest, clock)
}
