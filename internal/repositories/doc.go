// Package repositories implements SQLite persistence for client state.
//
// Key Implementations:
//   - [StorageRepository] : key/value slots, used as the session token store
//   - [SnapshotRepository] : dashboard snapshots saved after each successful load
//
// Snapshots support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables,
// giving snapshots a stable, human-readable number (e.g. snapshot #15) independent of UUIDs.
package repositories
