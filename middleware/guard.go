package middleware

import (
	"net/http"

	ticketAuth "github.com/MrEthical07/ticketAuth"
)

// Resolve attaches the caller's identity to the request context when the
// ticket cookie resolves. Anonymous requests pass through unchanged, so it is
// safe in front of handlers that never look at the identity.
func Resolve(engine *ticketAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, resolveRequest(engine, w, r))
		})
	}
}

// RequireIdentity resolves like Resolve and hands anonymous requests to
// unauthorized instead of next. A nil unauthorized answers a bare 401.
func RequireIdentity(engine *ticketAuth.Engine, unauthorized http.Handler) func(http.Handler) http.Handler {
	if unauthorized == nil {
		unauthorized = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = resolveRequest(engine, w, r)
			if _, ok := ticketAuth.IdentityFromContext(r.Context()); !ok {
				unauthorized.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveRequest(engine *ticketAuth.Engine, w http.ResponseWriter, r *http.Request) *http.Request {
	if engine == nil {
		return r
	}
	id, ok := engine.ResolveRequest(w, r)
	if !ok {
		return r
	}
	return r.WithContext(ticketAuth.WithIdentity(r.Context(), id))
}
