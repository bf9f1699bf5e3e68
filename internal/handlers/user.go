package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/internal/middleware"
	"github.com/peoplesquare/backend/internal/services"
	"github.com/peoplesquare/backend/pkg/response"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns every user
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, users)
}

// GetByID returns a profile
// GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", user)
}

// Update edits the caller's own profile
// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "User updated successfully", user)
}
