// Package middleware exposes HTTP middleware that turns the ticket cookie into
// an identity on the request context.
//
// # Middleware
//
//   - [Resolve]: attaches the identity when the cookie resolves and never
//     rejects. Handlers read it with ticketAuth.IdentityFromContext.
//   - [RequireIdentity]: same resolution, but answers 401 for anonymous
//     requests.
//   - [GinResolve] and [GinRequireIdentity]: the gin equivalents.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Resolution,
// sliding expiry and cookie refresh are all delegated to
// Engine.ResolveRequest.
//
// # What this package must NOT do
//
//   - Read Redis or decode snapshots directly (delegates to Engine).
//   - Reject a request from Resolve; only RequireIdentity rejects.
package middleware
