package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatsyncgo/internal/auth"
)

const identityKey = "identity"

// RequireAuth validates the bearer token and stores the caller identity
// in the gin context for the handlers behind it.
func RequireAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw string
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}

		identity, err := verifier.Authenticate(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// CallerIdentity returns the identity stored by RequireAuth. Zero value
// if the middleware did not run.
func CallerIdentity(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	identity, _ := v.(auth.Identity)
	return identity
}
