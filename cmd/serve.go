package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genesis-intake/handlers"
	"genesis-intake/metrics"
	"genesis-intake/workers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func serveRun(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg, metrics.New())
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := workers.NewScheduler(ctx, workers.ScheduleOptions{
		Retry:         workers.NewNotificationRetryWorker(rt.Store, rt.Dispatcher, cfg.RetryWindow, cfg.RetryGrace),
		RetryInterval: cfg.RetryInterval,
		Digest:        workers.NewDigestWorker(rt.Admin, rt.Dispatcher),
		DigestCron:    cfg.DigestCron,
	})
	if err != nil {
		return err
	}
	sched.Start()

	app := handlers.NewApp(handlers.Dependencies{
		Intake:     rt.Intake,
		Admin:      rt.Admin,
		AdminToken: cfg.AdminToken,
		Metrics:    rt.Metrics,
		PublicDir:  cfg.PublicDir,
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	zap.L().Info("✅ Server running",
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("mail_provider", cfg.MailProvider),
		zap.Bool("r2_archive", cfg.R2Enabled()),
		zap.Bool("admin_enabled", cfg.AdminToken != ""))

	select {
	case <-ctx.Done():
		zap.L().Info("Shutting down server...")
	case err = <-listenErr:
		zap.L().Error("Server error", zap.Error(err))
	}

	if shutdownErr := app.ShutdownWithTimeout(10 * time.Second); shutdownErr != nil {
		zap.L().Warn("HTTP shutdown incomplete", zap.Error(shutdownErr))
	}
	if schedErr := sched.Shutdown(); schedErr != nil {
		zap.L().Warn("Scheduler shutdown incomplete", zap.Error(schedErr))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
