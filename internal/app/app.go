package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"crashbot/internal/config"
	"crashbot/internal/infra/telegram"
	"crashbot/internal/repo/postgres"
	"crashbot/internal/services/intake"
	"crashbot/internal/services/ledger"
	"crashbot/internal/services/notify"
	"crashbot/internal/services/payout"
	"crashbot/internal/services/review"
)

type App struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	tg     *telegram.Client

	ledgerService *ledger.Service
	intakeService *intake.Service
	reviewService *review.Service
	payoutService *payout.Service
	notifyService *notify.Service
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres unavailable, continuing without database", "error", err)
		db = nil
	}

	usersRepo := postgres.NewUsersRepo(db, cfg.InitialBalance)
	reportsRepo := postgres.NewReportsRepo(db)

	ledgerService := ledger.NewService(usersRepo)

	app := &App{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		ledgerService: ledgerService,
		intakeService: intake.NewService(reportsRepo, usersRepo, intake.Limits{
			MaxDescriptionLength: cfg.MaxDescriptionLength,
			MinCrashTime:         cfg.MinCrashTime,
			MaxCrashTime:         cfg.MaxCrashTime,
			MaxReportsPerDay:     cfg.MaxReportsPerDay,
			EnforceDailyCap:      cfg.EnforceDailyCap,
		}, logger),
		reviewService: review.NewService(reportsRepo, ledgerService, cfg, cfg.RewardAmount, logger),
		payoutService: payout.NewService(ledgerService, cfg, logger),
	}
	app.notifyService = notify.NewService(botSender{app: app}, cfg.AdminIDs, logger)

	app.tg, err = telegram.NewClient(cfg.BotToken, cfg.PollTimeoutSeconds, logger, app.routeUpdate)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()
	return a.tg.Start(ctx)
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close postgres", "error", err)
		}
	}
}
