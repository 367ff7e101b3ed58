package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a JSON 500. The panic is
// logged with the request ID assigned by RequestLogger, and the same ID is
// returned in the error details so a user report can be matched to the log.
// It must be installed after RequestLogger.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			requestID := RequestIDFromContext(c)
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", recovered),
				zap.String("stacktrace", string(debug.Stack())),
			}
			if session, ok := SessionFromContext(c); ok {
				fields = append(fields, zap.String("email", session.User.Email))
			}
			logger.Error("Handler panicked", fields...)

			if !c.Writer.Written() {
				resp := ErrorResponse{Error: "Internal Server Error"}
				if requestID != "" {
					resp.Details = "Reference " + requestID + " when contacting support."
				}
				c.JSON(http.StatusInternalServerError, resp)
			}
			c.Abort()
		}()
		c.Next()
	}
}
