package middleware

import (
	"net/http"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/gin-gonic/gin"
)

// identityKey is the gin context key holding the resolved identity.
const identityKey = "ticketauth.identity"

// GinResolve is Resolve for gin. The identity is stored on both the request
// context and the gin context.
func GinResolve(engine *ticketAuth.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ginResolve(engine, c)
		c.Next()
	}
}

// GinRequireIdentity is RequireIdentity for gin. unauthorized must write a
// response; a nil unauthorized aborts with a bare 401.
func GinRequireIdentity(engine *ticketAuth.Engine, unauthorized gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ginResolve(engine, c); !ok {
			if unauthorized != nil {
				unauthorized(c)
			}
			if !c.Writer.Written() {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFromGin returns the identity attached by GinResolve or
// GinRequireIdentity.
func IdentityFromGin(c *gin.Context) (ticketAuth.Identity, bool) {
	if v, ok := c.Get(identityKey); ok {
		id, ok := v.(ticketAuth.Identity)
		return id, ok
	}
	return ticketAuth.IdentityFromContext(c.Request.Context())
}

func ginResolve(engine *ticketAuth.Engine, c *gin.Context) (ticketAuth.Identity, bool) {
	if id, ok := IdentityFromGin(c); ok {
		return id, true
	}

	c.Request = resolveRequest(engine, c.Writer, c.Request)
	id, ok := ticketAuth.IdentityFromContext(c.Request.Context())
	if ok {
		c.Set(identityKey, id)
	}
	return id, ok
}
