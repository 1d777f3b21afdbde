package middleware

import (
	"referral-chat/internal/transport/httpdto"
	"referral-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler is the safety net for errors attached to the gin context that
// no handler translated. Handlers normally map service errors themselves; only
// unexpected failures reach this point.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log != nil {
			log.WithContext(c.Request.Context()).Error("unhandled request error", zap.Error(err))
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(c.Writer.Status(), httpdto.NewErrorResponse("messaging request failed", "INTERNAL_ERROR"))
	}
}
