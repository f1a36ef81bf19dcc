// Package session provides the Redis-backed ticket store and the compact
// binary encoding of the user snapshots it holds.
//
// # Keys and expiry
//
// Each ticket lives under a single key, "<prefix>:<ticket>" ("user:<ticket>"
// with the default prefix), holding an encoded [Snapshot]. Redis enforces the
// TTL natively: an expired ticket and a ticket that was never issued are the
// same observable state. Refreshing only moves the expiry; the stored value is
// never rewritten after [Store.Put].
//
// # Binary encoding
//
// Snapshots are stored with a leading schema version byte followed by
// length-prefixed strings and big-endian integers. Decoding rejects unknown
// versions as well as truncated or trailing data.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Snapshot] model. It
// does NOT read cookies, verify passwords, or decide whether a request is
// authenticated; those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import ticketAuth, cookie, or middleware (no upward imports).
//   - Hold per-ticket state in process memory.
//   - Store password hashes or salts in [Snapshot] fields.
package session
