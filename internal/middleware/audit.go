package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/pkg/logger"
)

const auditBodyLimit = 2000

var auditedKeys = []string{"password", "newPassword", "verificationCode", "token"}

// AuditLog writes one audit line per state-changing API call. JSON bodies
// are recorded with credentials masked; multipart bodies are not captured.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		var bodySnippet string
		mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if mediaType == "application/json" && c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(io.LimitReader(c.Request.Body, auditBodyLimit+1))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), c.Request.Body))
			if len(bodyBytes) > auditBodyLimit {
				bodySnippet = "[truncated]"
			} else {
				bodySnippet = maskSensitiveFields(string(bodyBytes))
			}
		}

		c.Next()

		module, action := parseRouteInfo(c.FullPath(), method)
		status := c.Writer.Status()

		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		event.
			Bool("audit", true).
			Str("module", module).
			Str("action", action).
			Str("user_id", GetUserID(c)).
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("body", bodySnippet).
			Msg(formatAuditMessage(GetEmail(c), method, c.Request.URL.Path, status))
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/projects/:id" + "PUT" gives module="Projects", action="Update"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")

	parts := strings.SplitN(path, "/", 2)
	module = parts[0]
	if module == "" {
		module = "unknown"
	} else {
		module = strings.ToUpper(module[:1]) + module[1:]
	}

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}

	// Public account flows read better by their own name.
	if module == "Users" && len(parts) == 2 && !strings.HasPrefix(parts[1], ":") {
		action = parts[1]
	}

	return module, action
}

func formatAuditMessage(who, method, path string, status int) string {
	if who == "" {
		who = "anonymous"
	}
	result := "Failed"
	if status >= 200 && status < 300 {
		result = "OK"
	}
	return "[Audit] " + who + " " + method + " " + path + " -> " + result
}

// maskSensitiveFields replaces credential values in a JSON body. Bodies that
// do not decode are dropped.
func maskSensitiveFields(body string) string {
	var payload any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	out, err := json.Marshal(maskValue(payload))
	if err != nil {
		return ""
	}
	return string(out)
}

func maskValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			if isAuditedKey(k) && inner != nil {
				val[k] = "***"
				continue
			}
			val[k] = maskValue(inner)
		}
	case []any:
		for i, inner := range val {
			val[i] = maskValue(inner)
		}
	}
	return v
}

func isAuditedKey(key string) bool {
	for _, k := range auditedKeys {
		if k == key {
			return true
		}
	}
	return false
}
