// Package cache holds the in-memory documentation table and its on-disk
// persistence. Entries are keyed by (crate, version, path); on disk they are
// partitioned into one <crate>.json shard per crate, so a save only rewrites
// crates that still hold entries and stale-shard cleanup reduces to a
// file-set diff. Shard writes go through temp file + rename, so a concurrent
// reader of a shard file never observes a partial write. Higher layers check
// this cache before any upstream fetch and trigger Load/Save around the
// process lifecycle.
package cache
