package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskdeck-api/internal/api/middleware"
	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/platform/mailer"
	"github.com/phrazzld/taskdeck-api/internal/platform/postgres"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
)

// application holds the shared application dependencies so wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	accounts       *service.AccountService
	authMiddleware *middleware.AuthMiddleware

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// newApplication wires the stores and services into an application.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewUserStore(db)
	taskStore := postgres.NewTaskStore(db)

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	verifier := auth.NewBcryptVerifier()
	codes := auth.NewCodeIssuer(time.Duration(cfg.Auth.CodeLifetimeMinutes) * time.Minute)
	mail := mailer.NewSMTPMailer(cfg.Mail)

	accounts, err := service.NewAccountService(
		db,
		userStore,
		taskStore,
		hasher,
		verifier,
		codes,
		tokenService,
		mail,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}

	accessTTL := time.Duration(cfg.Auth.TokenLifetimeMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.Auth.RefreshTokenLifetimeMinutes) * time.Minute

	return &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		accounts:       accounts,
		authMiddleware: middleware.NewAuthMiddleware(tokenService, accessTTL),
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
