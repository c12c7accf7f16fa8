// Package chain implements tamper-evident version history for a single value.
//
// A Chain is an append-only sequence of Versions. Each Version freezes one
// payload together with its ordinal and the digest of its predecessor, and
// carries its own digest:
//
//	digest = hex(SHA-256(canonical(["payload", ordinal, "previous digest"])))
//
// The digest binds payload, ordinal and previous digest; the timestamp is
// informational and deliberately outside it. Any edit to a bound field after
// the fact is detected by Verify, and every deserialization path (UnmarshalJSON,
// Restore) runs Verify before handing a chain to the caller.
//
// The ordinal-0 genesis entry holds the empty string and an empty previous
// digest, so every chain starts from the same well-known digest (GenesisDigest).
//
// Chains are single-writer structures with no internal locking. Concurrent
// readers are safe while no Append is in flight; callers that write from more
// than one goroutine must provide their own mutual exclusion.
package chain
