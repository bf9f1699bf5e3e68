package main

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/internal/middleware"
	"github.com/peoplesquare/backend/internal/storage"
	"github.com/peoplesquare/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine. ctx bounds
// background work owned by the router such as rate limiter cleanup.
func registerRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, svc *appServices) {
	uploadsPrefix := strings.TrimSuffix(cfg.Storage.PublicURL, "/")
	if uploadsPrefix == "" {
		uploadsPrefix = "/uploads"
	}

	// Middleware
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.SecurityHeaders(uploadsPrefix))
	r.Use(middleware.CORS(cfg.Server.AllowOrigins, uploadsPrefix))
	r.Use(svc.metrics.Middleware())

	authLimiter := middleware.NewRateLimiter(ctx, cfg.Server.AuthRateLimitRPS, cfg.Server.AuthRateBurst)

	r.GET("/", svc.healthHandler.Root)
	r.GET("/health", svc.healthHandler.CheckHealth)
	if cfg.Server.EnableMetrics {
		r.GET("/metrics", svc.metrics.Handler())
	}

	// Stored files are only reachable by URL on local disk.
	if local, ok := svc.store.(*storage.Local); ok {
		r.Group("", middleware.UploadHeaders()).Static(uploadsPrefix, local.Dir())
	}

	api := r.Group("/api", middleware.AuditLog())
	{
		users := api.Group("/users")
		{
			public := users.Group("", authLimiter.Middleware())
			{
				public.POST("/register", svc.authHandler.Register)
				public.POST("/login", svc.authHandler.Login)
				public.POST("/forgot-password", svc.authHandler.ForgotPassword)
				public.POST("/reset-password", svc.authHandler.ResetPassword)
			}

			protected := users.Group("", middleware.AuthRequired())
			{
				protected.GET("", svc.userHandler.List)
				protected.GET("/:id", svc.userHandler.GetByID)
				protected.PUT("/:id", svc.userHandler.Update)
			}
		}

		projects := api.Group("/projects", middleware.AuthRequired())
		{
			projects.POST("", middleware.RoleRequired(cfg.Auth.ProjectCreatorRoles...), svc.projectHandler.Create)
			projects.GET("", svc.projectHandler.List)
			projects.GET("/my-projects", svc.projectHandler.ListMine)
			projects.GET("/registered", svc.projectHandler.ListRegistered)
			projects.GET("/investment-status/:status", svc.projectHandler.ListByInvestmentStatus)

			projects.POST("/upload", svc.projectHandler.UploadFile)
			projects.DELETE("/upload/:filename", svc.projectHandler.DeleteUploadedFile)
			projects.GET("/file/:fileId/download", svc.projectHandler.DownloadFile)

			projects.GET("/:id", svc.projectHandler.GetByID)
			projects.PUT("/:id", svc.projectHandler.Update)
			projects.DELETE("/:id", svc.projectHandler.Delete)
		}
	}
}
