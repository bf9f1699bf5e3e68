package main

import (
	"context"
	"fmt"

	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/internal/handlers"
	"github.com/peoplesquare/backend/internal/metrics"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/services"
	"github.com/peoplesquare/backend/internal/storage"
	"github.com/peoplesquare/backend/internal/upload"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/peoplesquare/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized dependencies and handlers needed by the application.
type appServices struct {
	db       *gorm.DB
	store    storage.Storage
	uploader *upload.Uploader
	metrics  *metrics.Metrics

	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	projectHandler *handlers.ProjectHandler
	healthHandler  *handlers.HealthHandler
}

// bootstrap opens the database, prepares file storage and wires services
// into handlers.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	logger.Info().Str("driver", store.Driver()).Msg("File storage ready")

	m := metrics.New(db)
	uploader := upload.New(store, cfg.Upload.MaxFileSize(), cfg.Storage.PublicURL)

	mailer := services.NewMailer(cfg.SMTP)
	if !mailer.Enabled() && !cfg.PasswordReset.ExposeCode {
		logger.Warn().Msg("SMTP is disabled and reset codes are not exposed; password reset codes cannot reach users")
	}

	authService := services.NewAuthService(db, cfg.JWT, cfg.PasswordReset, mailer, m)
	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db, store, uploader, m)

	return &appServices{
		db:             db,
		store:          store,
		uploader:       uploader,
		metrics:        m,
		authHandler:    handlers.NewAuthHandler(authService),
		userHandler:    handlers.NewUserHandler(userService),
		projectHandler: handlers.NewProjectHandler(projectService, uploader),
		healthHandler:  handlers.NewHealthHandler(db, store),
	}, nil
}

// shutdown releases the database pool.
func (s *appServices) shutdown() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
}
