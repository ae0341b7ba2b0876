package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *HttpEndpoints) AddHealthAPI(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
