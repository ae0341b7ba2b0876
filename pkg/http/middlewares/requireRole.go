package middlewares

import (
	"context"
	"net/http"

	"github.com/coneno/logger"
	"github.com/gin-gonic/gin"
	"github.com/osit-platform/osit-backend/pkg/jwt"
	"github.com/osit-platform/osit-backend/pkg/service"
	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PrincipalLoader interface {
	GetPrincipal(ctx context.Context, id primitive.ObjectID, role types.Role) (types.Principal, error)
}

// RequireRole lets the request through only if the validated token carries the
// role and the account behind it still exists. Must run after ValidateToken.
func RequireRole(role types.Role, principals PrincipalLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.MustGet(KeyValidatedToken).(*jwt.UserClaims)
		if token.Role != role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account role not allowed for this feature"})
			return
		}

		id, err := token.PrincipalID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		principal, err := principals.GetPrincipal(c.Request.Context(), id, role)
		if err != nil {
			switch {
			case service.IsKind(err, service.ErrorNotFound):
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
			default:
				logger.Error.Printf("loading principal %s: %v", token.ID, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
			}
			return
		}

		c.Set(KeyPrincipal, principal)
		c.Next()
	}
}
