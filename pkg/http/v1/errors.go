package v1

import (
	"net/http"

	"github.com/coneno/logger"
	"github.com/gin-gonic/gin"
	mw "github.com/osit-platform/osit-backend/pkg/http/middlewares"
	"github.com/osit-platform/osit-backend/pkg/service"
	"github.com/osit-platform/osit-backend/pkg/types"
)

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.ErrorValidation:
		return http.StatusBadRequest
	case service.ErrorConflict:
		return http.StatusConflict
	case service.ErrorAuth:
		return http.StatusUnauthorized
	case service.ErrorNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError logs the failure and writes {"error": message}; the cause is
// only added as "detail" when error detail exposure is enabled.
func (h *HttpEndpoints) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": "internal server error"}
	var cause error = err

	if se, ok := service.AsServiceError(err); ok {
		status = statusForKind(se.Kind)
		body["error"] = se.Message
		cause = se.Cause
	}
	if h.exposeErrorDetail && cause != nil {
		body["detail"] = cause.Error()
	}

	requestID := c.GetString(mw.KeyRequestID)
	if status >= http.StatusInternalServerError {
		logger.Error.Printf("[%s] %s %s: %v", requestID, c.Request.Method, c.Request.URL.Path, err)
	} else {
		logger.Warning.Printf("[%s] %s %s: %v", requestID, c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func (h *HttpEndpoints) respondBadPayload(c *gin.Context, err error) {
	h.respondError(c, service.NewValidationError("invalid request body: "+err.Error()))
}

func principalFromContext(c *gin.Context) types.Principal {
	return c.MustGet(mw.KeyPrincipal).(types.Principal)
}
