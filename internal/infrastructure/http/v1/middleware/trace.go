package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockdocs/pkg/logger"
)

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-ID"

// Trace middleware attaches a request id to the context so every log
// line of the request carries it.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
