package middlewares

import (
	"net/http"
	"strings"

	"github.com/coneno/logger"
	"github.com/gin-gonic/gin"
	"github.com/osit-platform/osit-backend/pkg/jwt"
)

const (
	KeyValidatedToken = "validatedToken"
	KeyPrincipal      = "principal"
	KeyRequestID      = "requestID"
)

// ValidateToken reads the bearer token from the Authorization header and validates it
func ValidateToken(issuer *jwt.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no Authorization token found"})
			return
		}

		parsedToken, err := issuer.Verify(token)
		if err != nil {
			logger.Warning.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(KeyValidatedToken, parsedToken)
		c.Next()
	}
}
