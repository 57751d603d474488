package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"timezone":    h.loc.String(),
		"environment": h.env,
		"version":     h.version,
	})
}
