package middleware

import (
	"fmt"
	"log"
	"math"
	"net/http"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/bayt-al-hikmah/taskgate/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// Throttle applies the default scope selection: authenticated callers
// count against the user scope keyed by subject id, everyone else
// against the anon scope keyed by client IP. Must run after the access
// gate so identity is already resolved.
func Throttle(engine *ratelimit.Throttle) gin.HandlerFunc {
	return throttleWith(engine, "")
}

// ThrottleScope pins a route to a named scope, overriding the default
// selection for that route only.
func ThrottleScope(engine *ratelimit.Throttle, scope string) gin.HandlerFunc {
	return throttleWith(engine, scope)
}

func throttleWith(engine *ratelimit.Throttle, scopeOverride string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := scopeOverride
		var identity string

		if userID, ok := CurrentUser(c); ok {
			if scope == "" {
				scope = ratelimit.ScopeUser
			}
			identity = userID.String()
		} else {
			if scope == "" {
				scope = ratelimit.ScopeAnon
			}
			identity = c.ClientIP()
		}

		decision, err := engine.Check(c.Request.Context(), scope, identity)
		if err != nil {
			// Counter store outage; the engine already applied the
			// configured fail-open/fail-closed policy
			log.Printf("[%s] throttle store unavailable (scope=%s): %v", c.GetString(CtxRequestID), scope, err)

			if !decision.Allowed {
				httperr.Abort(c, http.StatusServiceUnavailable, httperr.CodeStorageUnavailable, "Service temporarily unavailable")
				return
			}

			c.Next()
			return
		}

		if decision.Limit > 0 {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))
		}

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			httperr.Abort(c, http.StatusTooManyRequests, httperr.CodeRateLimited, "Rate limit exceeded")
			return
		}

		c.Next()
	}
}
