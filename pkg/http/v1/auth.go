package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/types"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login serves both /participant/login and /therapist/login; the role comes
// from whichever account matches.
func (h *HttpEndpoints) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	principal, err := h.credentials.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(principal.ID, principal.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "role": principal.Role, "user": principal})
}

func (h *HttpEndpoints) me(c *gin.Context) {
	c.JSON(http.StatusOK, principalFromContext(c))
}

func (h *HttpEndpoints) requireRole(role types.Role) []gin.HandlerFunc {
	return []gin.HandlerFunc{mw.ValidateToken(h.tokens), mw.RequireRole(role, h.credentials)}
}
