package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-turnover-backend/internal/auth"
)

const claimsKey = "claims"

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Authorize(token string) (*auth.Claims, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores
// the token's claims on the context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			token, ok = strings.CutPrefix(header, "bearer ")
		}
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
				"code":  "invalid_token",
			})
			return
		}

		claims, err := verifier.Authorize(strings.TrimSpace(token))
		if err != nil {
			code, msg := "invalid_token", "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, msg = "expired_token", "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": code})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the claims stored by Auth.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
