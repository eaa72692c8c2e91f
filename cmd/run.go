package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/onboardhq/syncgate/internal/adapters/driven/crypto"
	"github.com/onboardhq/syncgate/internal/adapters/driven/google"
	"github.com/onboardhq/syncgate/internal/adapters/driven/storage/sqlite"
	"github.com/onboardhq/syncgate/internal/config"
	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/services"
	"github.com/onboardhq/syncgate/internal/logging"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "run <job>",
		Short:     "Execute a single job run and print the summary",
		Long:      "Executes one job run outside the schedule. Useful for operations work and backfills.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{domain.JobIDCalendarSync, domain.JobIDDailyReminder},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, args[0])
		},
	}
}

func runOnce(cmd *cobra.Command, jobID string) error {
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

	connections := services.NewConnectionService(
		oauthClient, store.ConnectionStore(cipher), logger)
	mailGW := google.NewMailGateway()

	var job services.Job
	switch jobID {
	case domain.JobIDCalendarSync:
		job = services.NewSyncService(
			connections, store.AppointmentStore(), store.Directory(),
			google.NewCalendarGateway(location), mailGW, location, logger).
			WithHorizon(cfg.SyncHorizon())
	case domain.JobIDDailyReminder:
		job = services.NewRemindService(
			connections, store.AppointmentStore(), store.Directory(),
			mailGW, location, logger)
	default:
		return fmt.Errorf("%w: unknown job %q", domain.ErrInvalidInput, jobID)
	}

	summary := job.Run(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(),
		"job %s finished in %s: %d synced, %d skipped, %d errors\n",
		summary.JobID,
		summary.EndedAt.Sub(summary.StartedAt).Round(time.Millisecond),
		summary.Synced, summary.Skipped, summary.Errors)
	if summary.Errors > 0 {
		return fmt.Errorf("job %s finished with %d errors", summary.JobID, summary.Errors)
	}
	return nil
}
