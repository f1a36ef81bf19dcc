// Package internal holds helpers private to ticketAuth, currently ticket
// generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - rate: Redis fixed-window failed-login throttle
//   - config: service configuration loading for cmd/ticketauth
//   - httpapi: gin routes and response envelopes
//   - app: process wiring, connection lifecycle and graceful shutdown
//
// # What this package must NOT do
//
//   - Export types that appear in the public ticketAuth API.
//   - Be imported by any package outside the ticketAuth module.
package internal
