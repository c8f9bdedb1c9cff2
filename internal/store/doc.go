// Package store provides SQLite-backed durable storage for the play log,
// the album catalog, and the rewrite rules.
//
// All three tables share one database file:
//   - tracks: one row per logged play, including its rule watermark
//   - albums: one row per known album, unique on (artist, album)
//   - rules: one row per rewrite rule; row ids double as rule versions
//
// Rule ids are assigned by SQLite on insert, which keeps them strictly
// increasing without coordination. LoadRules replays the table through
// transform.RuleSet.Insert so a corrupted id sequence fails loudly instead
// of producing a quietly wrong rule set.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// The connection pool is capped at one connection; SQLite only supports a
// single writer and the catch-up reconciler runs its queries and updates
// inside one transaction, so a second connection would only sit blocked.
// Every mutating method exists on both Store (auto-commit) and Tx, letting
// a whole reconciliation or multi-track ingestion commit exactly once.
package store
