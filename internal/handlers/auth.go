package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/internal/services"
	"github.com/peoplesquare/backend/pkg/response"
)

const msgInvalidBody = "Invalid request body"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, msgInvalidBody)
		return false
	}
	return true
}

// Register creates an account
// POST /api/users/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "User registered successfully", result)
}

// Login handles user login
// POST /api/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Login successful", result)
}

// ForgotPassword issues a reset code. The reply does not reveal whether
// the account exists.
// POST /api/users/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req services.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.ForgotPassword(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Without an exposed code, known and unknown emails get the same reply.
	if !result.Issued || result.VerificationCode == "" {
		response.Success(c, "If the email exists, a verification code has been sent", nil)
		return
	}
	response.Success(c, "Verification code sent successfully", result)
}

// ResetPassword sets a new password
// POST /api/users/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Password reset successfully", nil)
}
