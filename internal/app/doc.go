// Package app wires the ticketauth service: connections, the engine, the
// HTTP server and their shutdown order.
package app
