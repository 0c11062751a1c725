package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/orchestrator/core/logger"
)

// requireToken rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func requireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				ErrorMessage:  "unauthorized",
				ErrorCode:     http.StatusUnauthorized,
				ExceptionType: "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
