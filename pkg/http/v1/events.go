package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func (h *HttpEndpoints) AddEventsAPI(rg *gin.RouterGroup) {
	eventsGroup := rg.Group("/events")

	eventsGroup.POST("", mw.RequirePayload(), h.createEvent)
	eventsGroup.GET("", h.listEvents)
	eventsGroup.GET("/:id", h.getEvent)
	eventsGroup.PUT("/:id", mw.RequirePayload(), h.updateEvent)
	eventsGroup.DELETE("/:id", h.deleteEvent)
}

func (h *HttpEndpoints) createEvent(c *gin.Context) {
	var req types.Event
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *HttpEndpoints) listEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *HttpEndpoints) getEvent(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *HttpEndpoints) updateEvent(c *gin.Context) {
	var req types.Event
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *HttpEndpoints) deleteEvent(c *gin.Context) {
	if err := h.events.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}
