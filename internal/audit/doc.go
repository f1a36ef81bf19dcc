// Package audit forwards login and provisioning events to pluggable sinks
// without blocking the request path.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines writer, slog, no-op).
//   - [Dispatcher]: buffered relay with drop-if-full or block-if-full semantics.
//   - [Event]: audit record with a ULID, timestamp, user, ticket hint, IP and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The Engine decides which events
// exist and what they carry.
//
// # What this package must NOT do
//
//   - Filter events based on business logic.
//   - Import ticketAuth or any sibling internal package.
//   - Record full tickets, passwords, or salts.
package audit
