package middleware

import (
	"net/http"
	"strings"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/bayt-al-hikmah/taskgate/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys populated by RequireAuth
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// extractBearer pulls the credential out of the Authorization header.
// The scheme is case-sensitive and separated by exactly one space; an
// absent or misshapen header is "no credential", not an error.
func extractBearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" || strings.ContainsRune(tokenString, ' ') {
		return "", false
	}

	return tokenString, true
}

// RequireAuth only lets requests with a live access credential
// through, and stores the decoded identity in the request context so
// handlers never re-verify. All failure shapes produce the same
// generic 401; which check failed is not revealed.
func RequireAuth(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearer(c)
		if !ok {
			httperr.Abort(c, http.StatusUnauthorized, httperr.CodeTokenInvalid, "Invalid or missing credentials")
			return
		}

		claims, err := codec.VerifyAccess(tokenString)
		if err != nil {
			httperr.Abort(c, http.StatusUnauthorized, httperr.CodeTokenInvalid, "Invalid or missing credentials")
			return
		}

		c.Set(CtxUserID, claims.SubjectID)
		c.Set(CtxEmail, claims.Email)

		c.Next()
	}
}

// GuestOnly is the reverse gate: a caller holding a currently valid
// access credential is turned away, so authenticated sessions cannot
// hit login/registration again. No credential, or an expired or
// garbage one, passes through unchanged.
func GuestOnly(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractBearer(c)
		if ok {
			if _, err := codec.VerifyAccess(tokenString); err == nil {
				httperr.Abort(c, http.StatusForbidden, httperr.CodeAccessDenied, "Already authenticated")
				return
			}
		}

		c.Next()
	}
}

// CurrentUser reads the identity RequireAuth attached to the request.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := v.(uuid.UUID)
	return id, ok
}
