package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/peoplesquare/backend/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"

// RequestID keeps a client supplied X-Request-ID or generates one, exposing
// it to the access log and echoing it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" || len(rid) > 64 {
			rid = uuid.NewString()
		}
		c.Set(logger.ContextRequestID, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}
