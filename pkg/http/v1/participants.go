package v1

import (
	"net/http"

	"github.com/coneno/logger"
	"github.com/gin-gonic/gin"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func (h *HttpEndpoints) AddParticipantAPI(rg *gin.RouterGroup) {
	participantGroup := rg.Group("/participant")

	participantGroup.POST("", mw.RequirePayload(), h.registerParticipant)
	participantGroup.POST("/login", mw.RequirePayload(), h.login)

	authGroup := participantGroup.Group("")
	authGroup.Use(h.requireRole(types.ROLE_PARTICIPANT)...)
	{
		authGroup.GET("/me", h.me)
		authGroup.PUT("/profile", mw.RequirePayload(), h.updateParticipantProfile)
	}
}

func (h *HttpEndpoints) registerParticipant(c *gin.Context) {
	var req types.ParticipantRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	id, err := h.credentials.RegisterParticipant(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(id, types.ROLE_PARTICIPANT)
	if err != nil {
		logger.Error.Printf("participant %s registered but token could not be issued: %v", id.Hex(), err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"participantId": id, "token": token})
}

func (h *HttpEndpoints) updateParticipantProfile(c *gin.Context) {
	var profile types.ParticipantProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	principal := principalFromContext(c)
	updated, err := h.credentials.UpdateParticipantProfile(c.Request.Context(), principal.ID, profile)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
