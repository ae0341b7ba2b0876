package v1

import (
	"net/http"

	"github.com/coneno/logger"
	"github.com/gin-gonic/gin"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func (h *HttpEndpoints) AddTherapistAPI(rg *gin.RouterGroup) {
	therapistGroup := rg.Group("/therapist")

	therapistGroup.POST("", mw.RequirePayload(), h.registerTherapist)
	therapistGroup.POST("/login", mw.RequirePayload(), h.login)
	therapistGroup.GET("/me", append(h.requireRole(types.ROLE_THERAPIST), h.me)...)
}

func (h *HttpEndpoints) registerTherapist(c *gin.Context) {
	var req types.TherapistRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	id, err := h.credentials.RegisterTherapist(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(id, types.ROLE_THERAPIST)
	if err != nil {
		logger.Error.Printf("therapist %s registered but token could not be issued: %v", id.Hex(), err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"therapistId": id, "token": token})
}
