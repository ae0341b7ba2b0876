package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/service"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func (h *HttpEndpoints) AddAssignmentsAPI(rg *gin.RouterGroup) {
	assignmentsGroup := rg.Group("/osit-assignments")

	participantOnly := h.requireRole(types.ROLE_PARTICIPANT)
	therapistOnly := h.requireRole(types.ROLE_THERAPIST)
	anyAccount := mw.ValidateToken(h.tokens)

	assignmentsGroup.POST("", append(participantOnly, mw.RequirePayload(), h.createAssignment)...)
	assignmentsGroup.GET("", append(therapistOnly,
		mw.RestrictQueryParam("status", []string{
			string(types.SCORING_STATUS_ALL),
			string(types.SCORING_STATUS_SCORED),
			string(types.SCORING_STATUS_UNSCORED),
		}),
		h.listAssignments,
	)...)
	assignmentsGroup.GET("/participant/:email", append(participantOnly, h.listParticipantAssignments)...)
	assignmentsGroup.POST("/score", append(therapistOnly, mw.RequirePayload(), h.upsertScoring)...)

	assignmentsGroup.GET("/:id", anyAccount, h.getAssignment)
	assignmentsGroup.PUT("/:id", anyAccount, mw.RequirePayload(), h.updateAssignment)
	assignmentsGroup.DELETE("/:id", anyAccount, h.deleteAssignment)
}

func (h *HttpEndpoints) createAssignment(c *gin.Context) {
	var req types.AssignmentSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	principal := principalFromContext(c)
	id, err := h.assignments.CreateAssignment(c.Request.Context(), principal.ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ositAssignmentId": id, "participantId": principal.ID})
}

func (h *HttpEndpoints) listAssignments(c *gin.Context) {
	views, err := h.assignments.ListAssignments(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *HttpEndpoints) listParticipantAssignments(c *gin.Context) {
	principal := principalFromContext(c)
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email != principal.Email {
		h.respondError(c, service.NewAuthError("participants may only list their own assignments"))
		return
	}

	summaries, err := h.assignments.ListAssignmentsForParticipant(c.Request.Context(), email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *HttpEndpoints) getAssignment(c *gin.Context) {
	view, err := h.assignments.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *HttpEndpoints) updateAssignment(c *gin.Context) {
	var req types.AssignmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}

	if err := h.assignments.UpdateAssignment(c.Request.Context(), c.Param("id"), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "assignment updated"})
}

func (h *HttpEndpoints) deleteAssignment(c *gin.Context) {
	if err := h.assignments.DeleteAssignment(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "assignment deleted"})
}

type ScoringRequest struct {
	AssignmentID string            `json:"ositAssignmentId"`
	CriteriaList []types.Criterion `json:"criteriaList"`
}

func (h *HttpEndpoints) upsertScoring(c *gin.Context) {
	var req ScoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadPayload(c, err)
		return
	}
	for i := range req.CriteriaList {
		req.CriteriaList[i].Criteria = strings.TrimSpace(req.CriteriaList[i].Criteria)
	}

	principal := principalFromContext(c)
	scoring, created, err := h.assignments.UpsertScoring(c.Request.Context(), req.AssignmentID, principal.ID, req.CriteriaList)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, scoring)
}
