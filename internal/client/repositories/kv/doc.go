// Package kv is the local key-value store every client component reads and
// writes through. Values are opaque bytes (JSON by convention) in a single
// SQLite table; nothing is cached in memory across restarts.
//
// Update runs a function inside one transaction so multi-key changes (deck
// id reconciliation, account email moves) are never observed half applied.
package kv
