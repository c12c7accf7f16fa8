package chain

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/roach88/eidetic/internal/payload"
)

// GenesisDigest is the digest of every chain's ordinal-0 entry,
// i.e. the digest of ["", 0, ""].
const GenesisDigest = "1236fe7bb4d7ddc295f44ac45c3f580c6ce5ea3afd2810c3e2faa09ee40d130c"

// Digest computes the digest binding a payload to its position in a chain.
// Format: hex(SHA-256(canonical([v, ordinal, previousDigest])))
//
// The result is stable across processes and serialization round-trips.
func Digest(v payload.Value, ordinal int, previousDigest string) string {
	triple := payload.Array{v, payload.Int(ordinal), payload.String(previousDigest)}
	sum := sha256.Sum256(payload.MustMarshalCanonical(triple))
	return hex.EncodeToString(sum[:])
}
