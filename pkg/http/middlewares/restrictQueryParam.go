package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RestrictQueryParam rejects requests whose (optional) query parameter is not one of the allowed values
func RestrictQueryParam(key string, allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.GetQuery(key)
		if !ok || value == "" {
			c.Next()
			return
		}
		for _, a := range allowed {
			if value == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be one of " + strings.Join(allowed, ", ")})
	}
}
