package middleware

import (
	"github.com/gin-gonic/gin"
)

// errorCodeKey holds the envelope code of a failed request. Metrics and the
// access log read it to tell validation rejections from store faults.
const errorCodeKey = "error.code"

// noErrorCode labels requests that did not answer with an error envelope.
const noErrorCode = "none"

// SetErrorCode records the machine-readable code of the error envelope that
// answered this request. Handlers call it for every failure they write.
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeKey, code)
}

// ErrorCode returns the code recorded by SetErrorCode, or "" for requests
// that succeeded or failed without an envelope.
func ErrorCode(c *gin.Context) string {
	return c.GetString(errorCodeKey)
}

// abortJSON answers from inside the middleware chain with the same envelope
// the handlers use.
func abortJSON(c *gin.Context, status int, code, msg string) {
	SetErrorCode(c, code)
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"request_id": RequestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}
