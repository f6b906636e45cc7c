package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"genesis-intake/config"
	"genesis-intake/metrics"
	"genesis-intake/models"
	"genesis-intake/services"
	"genesis-intake/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime is the object graph shared by the commands.
type runtime struct {
	DB         *gorm.DB
	Store      *services.GormSubmissionStore
	Metrics    *metrics.Metrics
	Dispatcher *services.NotificationDispatcher
	Intake     *services.IntakeService
	Admin      *services.AdminService
}

func buildRuntime(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*runtime, error) {
	db, err := utils.OpenDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store := services.NewSubmissionStore(db, cfg.Metals)
	dispatcher := &services.NotificationDispatcher{
		Mailer:             newMailer(cfg),
		FromEmail:          cfg.FromEmail,
		FromName:           cfg.FromName,
		InternalRecipients: cfg.InternalRecipients,
		BaseURL:            cfg.BaseURL,
		Metrics:            m,
	}

	archiver, err := newArchiver(ctx, cfg, m)
	if err != nil {
		return nil, err
	}

	return &runtime{
		DB:         db,
		Store:      store,
		Metrics:    m,
		Dispatcher: dispatcher,
		Intake:     services.NewIntakeService(store, dispatcher, archiver, m),
		Admin:      services.NewAdminService(store, cfg.Metals, cfg.LeaderboardLimit, cfg.LeaderboardDisplay, m),
	}, nil
}

func (r *runtime) Close() {
	if sqlDB, err := r.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newMailer(cfg *config.Config) services.Mailer {
	if cfg.MailProvider == "sendgrid" {
		return services.NewSendGridMailer(cfg.SendGridBaseURL, cfg.SendGridAPIKey, utils.HTTPClient)
	}
	zap.L().Warn("⚠️  MAIL_PROVIDER=log, emails are logged and not delivered")
	return services.LogMailer{}
}

func newArchiver(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (services.Archiver, error) {
	if !cfg.R2Enabled() {
		return services.NoopArchiver{}, nil
	}
	client, err := utils.NewR2Client(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize R2 client: %w", err)
	}
	return services.NewObjectArchiver(client, m), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
