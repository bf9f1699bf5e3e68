package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AppError represents a domain failure with the HTTP status it maps to.
type AppError struct {
	HTTPStatus int      // HTTP status code (e.g. 400, 404, 500)
	Message    string   // Human-readable error message
	Errors     []string // Itemized field errors, validation only
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors

func NewValidation(errs []string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: "Validation failed", Errors: errs}
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Message: msg}
}

func NewPayloadTooLarge(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusRequestEntityTooLarge, Message: msg}
}

func NewUnsupportedMediaType(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnsupportedMediaType, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK envelope.
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

// Created sends a 201 Created envelope.
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: msg, Data: data})
}

// List sends a 200 OK envelope carrying a collection and its size.
func List[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	c.JSON(http.StatusOK, Response{Success: true, Data: items, Count: &n})
}

// Error sends an error envelope. An *AppError keeps its status, message and
// itemized errors; anything else becomes a 500 with the cause passed through.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Errors,
		})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Message: "Internal server error",
		Error:   err.Error(),
	})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Message: msg})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, err *AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, Response{Message: err.Message, Errors: err.Errors})
}
