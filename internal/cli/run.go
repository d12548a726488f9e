package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fleetlogix/fleetetl/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ETL pass immediately",
	Long: `Run a single extract-transform-load pass over the most recent
day of source data and exit. Dimension seeding is idempotent, so this is
safe to run repeatedly.

Example:
  fleetetl run --source "postgres://..." --warehouse "postgres://..."`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg)
	_, err := runner.Run(context.Background())
	return err
}
