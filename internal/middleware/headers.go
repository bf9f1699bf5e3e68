package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"script-src 'self' 'unsafe-inline'; img-src 'self' data: blob:; font-src 'self' data:; " +
	"frame-src 'self' blob:; object-src 'self'"

// SecurityHeaders sets hardening headers on every path except those under
// skipPrefix, which serve embeddable uploads.
func SecurityHeaders(skipPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipPrefix != "" && strings.HasPrefix(c.Request.URL.Path, skipPrefix) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		c.Next()
	}
}

// UploadHeaders relaxes cross-origin and framing rules so stored documents
// can be previewed inline. PDFs are served inline as application/pdf.
func UploadHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Del("Content-Security-Policy")
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("X-Frame-Options", "ALLOWALL")

		if strings.HasSuffix(strings.ToLower(c.Request.URL.Path), ".pdf") {
			h.Set("Content-Type", "application/pdf")
			h.Set("Content-Disposition", "inline")
		}
		c.Next()
	}
}
