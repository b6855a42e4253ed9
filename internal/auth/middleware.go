package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/credence-id/credence/internal/ledger"
)

// principalKey is the gin context key the middleware stores the caller under.
const principalKey = "auth_principal"

// RequirePrincipal returns a gin middleware that validates the Bearer token
// on the request and stores the authenticated principal in the context.
func RequirePrincipal(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		principal, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// CallerPrincipal returns the authenticated principal stored by
// RequirePrincipal, or "" when the route is unauthenticated.
func CallerPrincipal(c *gin.Context) ledger.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return ""
	}
	p, _ := v.(ledger.Principal)
	return p
}
