package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"basegraph.app/recommender/internal/http/dto"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 with the standard error body and logs the stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		slog.ErrorContext(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"stack", string(debug.Stack()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "internal server error"})
	})
}
