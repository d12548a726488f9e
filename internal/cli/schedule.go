package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/pipeline"
)

var scheduleAt string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline daily at a fixed time",
	Long: `Run one pass immediately, then once a day at the configured
local time until interrupted with Ctrl+C. A failed pass is logged and
does not stop the loop.

Example:
  fleetetl schedule --at 02:00`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "",
		"daily run time in HH:MM (default: 02:00)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if scheduleAt != "" {
		cfg.Schedule.At = scheduleAt
	}
	if err := cfg.ValidateSchedule(); err != nil {
		return err
	}

	at, _ := time.Parse("15:04", cfg.Schedule.At)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("at", cfg.Schedule.At).
		Msg("Scheduled daily ETL; running first pass now")

	// Each pass gets a fresh runner; nothing carries over between runs.
	runPass(ctx)

	for {
		wait := untilNext(time.Now(), at.Hour(), at.Minute())
		logging.Info().
			Dur("wait", wait).
			Msg("Waiting for next scheduled run")

		select {
		case <-ctx.Done():
			logging.Info().Msg("Scheduler stopped")
			return nil
		case <-time.After(wait):
			runPass(ctx)
		}
	}
}

func runPass(ctx context.Context) {
	runner := pipeline.NewRunner(cfg)
	if _, err := runner.Run(ctx); err != nil {
		logging.Error().Err(err).Msg("ETL pass failed")
	}
}

// untilNext returns the duration from now to the next occurrence of
// hour:minute local time.
func untilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(),
		hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
