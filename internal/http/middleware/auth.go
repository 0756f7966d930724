// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements AdminAuth, an optional static bearer-token guard for
// the submission listings. The listings expose applicant PII, so deployments
// that publish them should set ADMIN_TOKEN.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuth requires "Authorization: Bearer <token>" when token is non-empty.
// With an empty token the middleware is a no-op.
func AdminAuth(token string) gin.HandlerFunc {
	if token == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(token)

	return func(c *gin.Context) {
		got, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			LoggerFrom(c).Warn().Bool("credentials_present", ok).Msg("admin auth rejected")
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin token")
			return
		}
		c.Next()
	}
}

// bearerToken extracts the credentials of a Bearer Authorization header.
// The scheme is case-insensitive.
func bearerToken(h string) (string, bool) {
	scheme, cred, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	cred = strings.TrimSpace(cred)
	return cred, cred != ""
}
