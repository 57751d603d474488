package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-turnover-backend/internal/auth"
	"room-turnover-backend/internal/mw"
	"room-turnover-backend/internal/store"
)

// ErrValidation marks requests with missing or malformed fields.
var ErrValidation = errors.New("validation error")

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError translates err into a stable error code. Anything that is not
// a known domain error is logged and reported as an opaque internal error.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		requestID := mw.GetRequestID(c)
		log.Printf("Internal error on %s %s (request %s): %v", c.Request.Method, c.FullPath(), requestID, err)
		c.AbortWithStatusJSON(status, errorResponse{
			Error:     "internal server error",
			Code:      code,
			RequestID: requestID,
		})
		return
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, store.ErrInvalidStage):
		return http.StatusBadRequest, "invalid_stage"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrStageMismatch):
		return http.StatusConflict, "stage_mismatch"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "expired_token"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
