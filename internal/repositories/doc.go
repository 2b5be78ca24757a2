// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [CredentialRepository] : The bearer token and profile, one row per profile; implements session.CredentialStore
//   - [TrackRepository] : Catalog tracks seen through search, lookups and queue payloads, with soft deletes
//   - [TrackCacheAdapter] : Deduplicating cache writes used by the CLI and queue import
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
