package middleware

import (
	"log"
	"net/http"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/gin-gonic/gin"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString(CtxRequestID)
				log.Printf("[%s] PANIC: %v", requestID, err)

				httperr.Abort(c, http.StatusInternalServerError, httperr.CodeInternal, "Internal server error")
			}
		}()
		c.Next()
	}
}
