package chain

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/eidetic/internal/payload"
)

// Record is the storage form of a Version. Every field is kept verbatim so
// that digests can be recomputed on reload.
type Record struct {
	Ordinal        int             `json:"ordinal"`
	Value          json.RawMessage `json:"value"`
	PreviousDigest string          `json:"previous_digest"`
	Timestamp      int64           `json:"timestamp"`
	Digest         string          `json:"digest"`
}

// Record returns the storage form of v. The value is canonical JSON.
func (v *Version) Record() Record {
	return Record{
		Ordinal:        v.ordinal,
		Value:          payload.MustMarshalCanonical(v.Value()),
		PreviousDigest: v.previousDigest,
		Timestamp:      v.timestamp,
		Digest:         v.digest,
	}
}

// fromRecord rebuilds a version with its stored digest. The digest is not
// recomputed here; callers verify.
func fromRecord(r Record) (*Version, error) {
	value, err := payload.Unmarshal(r.Value)
	if err != nil {
		return nil, fmt.Errorf("decode value of ordinal %d: %w", r.Ordinal, err)
	}
	return &Version{
		Snapshot:       NewSnapshot(value),
		ordinal:        r.Ordinal,
		previousDigest: r.PreviousDigest,
		timestamp:      r.Timestamp,
		digest:         r.Digest,
	}, nil
}

// VersionFromRecord rebuilds a single version and verifies its digest.
func VersionFromRecord(r Record) (*Version, error) {
	v, err := fromRecord(r)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, newIntegrityError(ErrCodeInvalidDigest, r.Ordinal, "stored digest does not match contents")
	}
	return v, nil
}

// MarshalJSON implements json.Marshaler for Version.
func (v *Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Record())
}

// UnmarshalJSON implements json.Unmarshaler for Version.
// A tampered version fails with an *IntegrityError.
func (v *Version) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("unmarshal version: %w", err)
	}
	restored, err := VersionFromRecord(r)
	if err != nil {
		return err
	}
	*v = *restored
	return nil
}

// Records returns the storage form of every version in ordinal order.
func (c *Chain) Records() []Record {
	out := make([]Record, len(c.versions))
	for i, v := range c.versions {
		out[i] = v.Record()
	}
	return out
}

// Restore rebuilds a chain from stored records and verifies it.
// A chain that fails verification is never returned.
func Restore(records []Record, opts ...Option) (*Chain, error) {
	c := newEmpty(opts...)
	for _, r := range records {
		v, err := fromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("restore chain: %w", err)
		}
		c.versions = append(c.versions, v)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalJSON implements json.Marshaler for Chain as an array of records.
func (c *Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Records())
}

// UnmarshalJSON implements json.Unmarshaler for Chain.
// The decoded chain is verified before it replaces the receiver; on failure
// the receiver is left untouched and an *IntegrityError is returned.
func (c *Chain) UnmarshalJSON(data []byte) error {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("unmarshal chain: %w", err)
	}

	var opts []Option
	if c.clock != nil {
		opts = append(opts, WithClock(c.clock))
	}
	restored, err := Restore(records, opts...)
	if err != nil {
		return err
	}
	*c = *restored
	return nil
}
