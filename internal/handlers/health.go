package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/internal/storage"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

// HealthHandler reports whether the database and file storage are reachable.
type HealthHandler struct {
	db    *gorm.DB
	store storage.Storage
}

func NewHealthHandler(db *gorm.DB, store storage.Storage) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// Root
// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running"})
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := "OK"
	code := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	storageStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		storageStatus = "error: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "people-square",
		"components": gin.H{
			"database": dbStatus,
			"storage": gin.H{
				"driver": h.store.Driver(),
				"status": storageStatus,
			},
		},
	})
}
