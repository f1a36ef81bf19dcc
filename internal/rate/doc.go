// Package rate implements the optional failed-login throttle as fixed-window
// Redis counters keyed by identifier and, optionally, client IP.
//
// # What this package must NOT do
//
//   - Decide what a failed login is; the Engine reports failures.
//   - Import ticketAuth or any sibling internal package.
package rate
