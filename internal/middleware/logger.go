package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request, tagged with the request id and
// whichever subject the access gate resolved ("-" for anonymous
// callers). Runs before the gates but logs after c.Next(), so identity
// is already attached by the time the line is written.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		requestID := c.GetString(CtxRequestID)

		subject := "-"
		if id, ok := CurrentUser(c); ok {
			subject = id.String()
		}

		log.Printf("[%s] %s %s - %d - %v - %s - %s",
			requestID,
			method,
			path,
			statusCode,
			latency,
			c.ClientIP(),
			subject,
		)
	}
}
