// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file handles request correlation and panic recovery:
//
//   - RequestID() gives every request an ID, echoed in X-Request-ID and in
//     every error envelope, so a visitor reporting a failed form can be
//     matched to the server log line.
//   - Recovery() turns a panic into the JSON 500 envelope.
//   - LoggerFrom() returns the request-scoped logger set by RedactingLogger.
//
// Order: RequestID(), RedactingLogger(), Recovery().
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries the correlation ID in both directions.
const HeaderRequestID = "X-Request-ID"

const (
	requestIDKey = "request.id"
	loggerKey    = "logger"
)

// Client-supplied IDs end up in logs and response bodies, so only short
// token-like values are echoed back.
var clientRequestID = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// RequestID reuses a well-formed X-Request-ID from the client or mints a
// UUIDv4, then stores it on the context and the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !clientRequestID.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID of the request. Without RequestID
// in the chain it falls back to the response header, then the request header.
func RequestIDFrom(c *gin.Context) string {
	if rid := c.GetString(requestIDKey); rid != "" {
		return rid
	}
	if rid := c.Writer.Header().Get(HeaderRequestID); rid != "" {
		return rid
	}
	return c.GetHeader(HeaderRequestID)
}

// Recovery logs a panic with its stack and answers 500 internal_error. When
// the handler already started the response only the status is recorded.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				SetErrorCode(c, "internal_error")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger. Outside RedactingLogger it
// falls back to the logger on the request context, then the global one.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	if c.Request != nil {
		if lg := zerolog.Ctx(c.Request.Context()); lg.GetLevel() != zerolog.Disabled {
			return lg
		}
	}
	return &log.Logger
}
