// Package store provides SQLite-backed durable storage for versioned models.
//
// The store is an append-only archive:
//   - models: one row per named model (UUIDv7 id)
//   - attributes: attribute names per model, with insertion position
//   - versions: one row per chain entry, every field kept verbatim
//
// # Invariants
//
// Append-only: Save inserts only ordinals the archive has not seen yet and
// never updates or deletes a version row. If the stored tip of an attribute
// disagrees with the in-memory chain, Save fails with a *DivergenceError
// instead of writing.
//
// Verified reads: Load rebuilds every chain through chain.Restore, so a row
// edited behind the store's back fails with a *chain.IntegrityError naming the
// attribute. A model that fails verification is never returned.
//
// Deterministic reads: attributes ORDER BY position, versions ORDER BY ordinal.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
