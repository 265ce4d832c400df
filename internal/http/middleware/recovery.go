// README: Recovery middleware turns panics into a sanitized 500.
package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parking/internal/apperr"
)

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String("trace_id", TraceID(c)),
					zap.String("panic", fmt.Sprint(r)),
					zap.Stack("stack"))
				status, body := apperr.NewBody(apperr.Persistence, TraceID(c), c.GetHeader("Accept-Language"))
				c.AbortWithStatusJSON(status, body)
			}
		}()
		c.Next()
	}
}
