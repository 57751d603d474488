package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-turnover-backend/internal/report"
)

// GetReports handles GET /api/reports.
func (h *Handler) GetReports(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.reporter.Summary(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	recent, err := h.reporter.Recent(ctx, h.recent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "turnovers": recent})
}

// ExportCSV handles GET /api/reports/csv.
func (h *Handler) ExportCSV(c *gin.Context) {
	// A failed query must not leave a truncated attachment behind.
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, h.reporter.ExportRows(c.Request.Context())); err != nil {
		respondError(c, err)
		return
	}

	filename := report.ExportFilename(h.now().In(h.loc))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
