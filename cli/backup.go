package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheenubhat/network-automation-scripts/inventory"
	"github.com/sheenubhat/network-automation-scripts/model"
	"github.com/sheenubhat/network-automation-scripts/store"
	"github.com/sheenubhat/network-automation-scripts/worker"
)

func newBackupCmd(root *rootOptions) *cobra.Command {
	var (
		devicesPath   string
		backupDir     string
		sessionLogDir string
		workers       int
		timeout       time.Duration
		cron          string
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up running configurations for every device in the inventory",
		Long: "Reads the device inventory, opens one session per device, captures the " +
			"running configuration, and writes one timestamped artifact per device. " +
			"A failure on one device never stops the rest of the batch; the process " +
			"exits non-zero only when the inventory itself cannot be loaded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := root.newLogger()
			if err != nil {
				return err
			}

			// Inventory load is the only fatal step; nothing is touched on
			// disk before it succeeds.
			devices, schemaErrs, err := inventory.Load(devicesPath)
			if err != nil {
				log.Error().Err(err).Msg("failed to load devices")
				return err
			}
			for _, schemaErr := range schemaErrs {
				log.Warn().Msg("skipping invalid inventory record: " + schemaErr.Error())
			}
			for _, name := range inventory.DuplicateNames(devices) {
				log.Warn().Str("device", name).
					Msg("duplicate device name in inventory, artifacts are distinguished by timestamp only")
			}

			artifacts, err := store.NewDirStore(backupDir)
			if err != nil {
				return err
			}
			if sessionLogDir != "" {
				if err := os.MkdirAll(sessionLogDir, 0o755); err != nil {
					return fmt.Errorf("unable to create session log directory %v: %w", sessionLogDir, err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := worker.NewRunner(&worker.Config{
				SessionLogDir: sessionLogDir,
				Workers:       workers,
				Timeout:       timeout,
			}, artifacts, log)

			if cron != "" {
				sched, err := model.NewCronSchedule(cron)
				if err != nil {
					return fmt.Errorf("invalid cron expression %q: %w", cron, err)
				}
				runner.RunOnSchedule(ctx, sched, devices)
				return nil
			}
			summary := runner.Run(ctx, devices)
			log.Info().Msg("backup process completed: " + summary.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&devicesPath, "devices", "d", "data/devices.yaml", "path to the device inventory file")
	cmd.Flags().StringVarP(&backupDir, "backup_dir", "b", "backups", "directory to write backups to, created if absent")
	cmd.Flags().StringVar(&sessionLogDir, "session-log-dir", "", "capture raw session transcripts under this directory")
	cmd.Flags().IntVarP(&workers, "workers", "w", worker.DefaultWorkers, "maximum concurrent device sessions")
	cmd.Flags().DurationVar(&timeout, "timeout", worker.DefaultTimeout, "per-connection timeout")
	cmd.Flags().StringVar(&cron, "cron", "", "repeat the backup on this cron schedule until interrupted")
	return cmd
}
