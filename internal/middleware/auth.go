package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/peoplesquare/backend/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

var (
	errNoToken          = response.NewUnauthorized("No token provided")
	errInvalidToken     = response.NewUnauthorized("Invalid or expired token")
	errUnauthorized     = response.NewUnauthorized("Unauthorized")
	errInsufficientRole = response.NewForbidden("Forbidden: Insufficient permissions")
)

// AuthRequired verifies the bearer token and attaches its claims to the context
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Abort(c, errNoToken)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			response.Abort(c, errNoToken)
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Abort(c, errInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RoleRequired admits only callers whose role is in roles. An empty list
// admits every authenticated caller.
func RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			response.Abort(c, errUnauthorized)
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, GetRole(c)) {
			response.Abort(c, errInsufficientRole)
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetEmail gets the current user email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}
