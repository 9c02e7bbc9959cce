package authgate

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const headerAuthEmail = "x-auth-email"

// RequireAuthEmail gates selected read endpoints behind a static
// shared-secret header. The allow-list is captured once at construction and
// never mutated afterwards; it is independent of attendant session tokens.
func RequireAuthEmail(allowed []string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, e := range allowed {
		set[e] = struct{}{}
	}

	return func(c *gin.Context) {
		email := c.GetHeader(headerAuthEmail)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Email token required"})
			return
		}
		if _, ok := set[email]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid email token"})
			return
		}
		c.Next()
	}
}
