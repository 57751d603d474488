package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"room-turnover-backend/config"
	"room-turnover-backend/internal/mw"
)

// NewRouter creates and configures the gin router. metrics may be nil.
func NewRouter(h *Handler, cfg config.ServerConfig, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(mw.RequestID(), mw.CORS(cfg.AllowedOrigins))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Reports are cached until the next successful mutation.
	reportCache := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	h.service.OnChange(reportCache.Flush)

	requireAuth := mw.Auth(h.gate)

	r.GET("/api/health", h.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/login", h.Login)

		api.GET("/rooms", h.ListRooms)
		api.POST("/rooms", requireAuth, h.RoomAction)
		api.POST("/rooms/:room_id/occupy", requireAuth, h.OccupyRoom)
		api.POST("/rooms/:room_id/turnovers", requireAuth, h.StartTurnover)
		api.POST("/rooms/:room_id/turnovers/advance", requireAuth, h.AdvanceStage)

		api.GET("/reports", reportCache.Middleware(), h.GetReports)
		api.GET("/reports/csv", h.ExportCSV)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
