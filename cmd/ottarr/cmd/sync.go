package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwhitfield/ottarr/internal/models"
)

var (
	syncContentType string
	syncForce       bool
	syncTimeout     time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync catalogs from the active source",
	Long: `Sync the active source's catalogs into the local database.

Without --type, all content types are synced concurrently. Catalogs
whose cache is still fresh are skipped unless --force is given.

The command is bounded by --timeout; a sync still running when it
expires is abandoned and reported as a timeout error.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncContentType, "type", "", "content type to sync (live, movie, series); empty syncs all")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "sync even when the cache is fresh")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 0, "overall time limit (default from sync.timeout config)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	app, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	timeout := syncTimeout
	if timeout <= 0 {
		timeout = cfg.Sync.Timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if syncContentType != "" {
		ct, err := models.ParseContentType(syncContentType)
		if err != nil {
			return err
		}
		err = app.coordinator.Sync(ctx, ct, syncForce)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("sync of %s did not finish within %s", ct, timeout)
		}
		if err != nil {
			return fmt.Errorf("syncing %s: %w", ct, err)
		}
	} else {
		err = app.coordinator.SyncAll(ctx, syncForce)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("sync did not finish within %s", timeout)
		}
		if err != nil {
			return fmt.Errorf("syncing catalogs: %w", err)
		}
	}

	for ct, state := range app.bus.States() {
		logger.Info("sync finished",
			slog.String("content_type", string(ct)),
			slog.String("phase", string(state.Phase)),
			slog.Int64("items", state.SuccessCount),
		)
	}
	logger.Info("sync complete", slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return nil
}
