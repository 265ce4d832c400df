// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"github.com/gin-gonic/gin"

	"parking/internal/apperr"
	"parking/internal/http/middleware"
)

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

// writeError maps err to its status and the standard error body.
func writeError(c *gin.Context, err error) {
	status, body := apperr.NewBody(err, middleware.TraceID(c), c.GetHeader("Accept-Language"))
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
