package middleware

import (
	"heartdash/domain/core"

	"github.com/gin-gonic/gin"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// RequestID stamps every request with a render id. A well-formed id sent by
// the caller is kept; anything else is replaced with a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseRenderID(c.GetHeader(RequestIDHeader))
		if err != nil {
			id = core.NewRenderID()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id.String())
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or a fresh one when the
// middleware did not run.
func GetRequestID(c *gin.Context) core.RenderID {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(core.RenderID); ok {
			return id
		}
	}
	return core.NewRenderID()
}
