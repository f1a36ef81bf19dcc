// Package ticketAuth provides a ticket-based session core: mobile number and
// password login, opaque tickets cached in Redis with sliding expiration, and
// cookie-driven identity resolution for HTTP handlers.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Any number of Engine instances may
// share one Redis deployment; a ticket issued by one resolves on all of them.
//
// # Architecture boundaries
//
// ticketAuth is the public surface. It exposes [Engine], [Builder], [Config]
// and the collaborator interfaces [UserRepository], [UserProvisioner] and
// [TicketStore]. Hashing lives in package password, the Redis ticket store in
// package session, the cookie in package cookie and request validation in
// package validation. Throttling and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or the snapshot wire format in its public API.
//   - Tell callers which half of a credential pair was wrong.
//   - Return an error from identity resolution; failures resolve as anonymous.
//   - Import any sub-package that re-imports ticketAuth (no import cycles).
//
// # Request cost
//
// Login performs one repository lookup and one Redis write. Resolve performs a
// single pipelined Redis round trip that reads the ticket and resets its TTL.
package ticketAuth
