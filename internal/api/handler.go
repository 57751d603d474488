package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"room-turnover-backend/internal/auth"
	"room-turnover-backend/internal/report"
	"room-turnover-backend/internal/store"
	"room-turnover-backend/internal/turnover"
)

// Deps are the collaborators shared by the API handlers.
type Deps struct {
	Store    store.Store
	Service  *turnover.Service
	Gate     *auth.Gate
	Reporter *report.Reporter
	Webpush  *webpush.Options
	// Location is the timezone used for report file names and health output.
	Location    *time.Location
	RecentLimit int
	Environment string
	Version     string
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	service  *turnover.Service
	gate     *auth.Gate
	reporter *report.Reporter
	webpush  *webpush.Options
	loc      *time.Location
	recent   int
	env      string
	version  string
	now      func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		store:    d.Store,
		service:  d.Service,
		gate:     d.Gate,
		reporter: d.Reporter,
		webpush:  d.Webpush,
		loc:      loc,
		recent:   d.RecentLimit,
		env:      d.Environment,
		version:  d.Version,
		now:      time.Now,
	}
}

func roomIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: room_id must be a positive integer", ErrValidation)
	}
	return id, nil
}
