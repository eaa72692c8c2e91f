package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/onboardhq/syncgate/internal/adapters/driven/crypto"
	"github.com/onboardhq/syncgate/internal/adapters/driven/google"
	"github.com/onboardhq/syncgate/internal/adapters/driven/storage/sqlite"
	"github.com/onboardhq/syncgate/internal/adapters/driving/httpapi"
	"github.com/onboardhq/syncgate/internal/config"
	"github.com/onboardhq/syncgate/internal/core/services"
	"github.com/onboardhq/syncgate/internal/instrumentation"
	"github.com/onboardhq/syncgate/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(verbose)

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	cipher, err := crypto.NewCipher(cfg.TokenKey)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	oauthClient, err := google.NewOAuthClient(google.OAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURI:  cfg.Google.RedirectURI,
	})
	if err != nil {
		return err
	}

	calendarGW := google.NewCalendarGateway(location)
	mailGW := google.NewMailGateway()

	connections := services.NewConnectionService(
		oauthClient, store.ConnectionStore(cipher), logger)
	syncJob := services.NewSyncService(
		connections, store.AppointmentStore(), store.Directory(),
		calendarGW, mailGW, location, logger).
		WithHorizon(cfg.SyncHorizon())
	remindJob := services.NewRemindService(
		connections, store.AppointmentStore(), store.Directory(),
		mailGW, location, logger)

	scheduler := services.NewScheduler(location, instrumentation.NewRecorder(), logger)
	if err := scheduler.Register(syncJob, cfg.Scheduler.SyncSpec); err != nil {
		return fmt.Errorf("registering sync job: %w", err)
	}
	if err := scheduler.Register(remindJob, cfg.Scheduler.ReminderSpec); err != nil {
		return fmt.Errorf("registering reminder job: %w", err)
	}

	server := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Server.ListenAddr,
		FrontendOrigin: cfg.Server.FrontendOrigin,
		Connections:    connections,
		Jobs:           scheduler,
		Logger:         logger,
	})

	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", logging.KeyError, err)
	}
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", logging.KeyError, err)
	}
	return nil
}
