package httperr

import "github.com/gin-gonic/gin"

// Stable machine-readable error codes returned to clients. Responses
// never include internals (key names, stack traces, which auth check
// failed).
const (
	CodeAuthenticationFailure = "authentication_failure"
	CodeTokenInvalid          = "token_invalid"
	CodeAccessDenied          = "access_denied"
	CodeRateLimited           = "rate_limited"
	CodeMalformedUpload       = "malformed_upload"
	CodeUploadTooLarge        = "upload_too_large"
	CodeStorageUnavailable    = "storage_unavailable"
	CodeNotFound              = "not_found"
	CodeValidationFailed      = "validation_failed"
	CodeInternal              = "internal_error"
)

// Body is the JSON error envelope all denials and failures use.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes an error body with the given status.
func JSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, Body{Code: code, Message: message})
}

// Abort writes the error body and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Body{Code: code, Message: message})
}
