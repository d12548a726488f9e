package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetlogix/fleetetl/internal/db"
	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/warehouse"
)

var initDropExisting bool

var initWarehouseCmd = &cobra.Command{
	Use:   "init-warehouse",
	Short: "Create the star schema and seed the time dimensions",
	Long: `Create the warehouse star schema (dimension and fact tables)
and seed the date and time dimensions. Existing tables are left alone
unless --drop-existing is given.

Example:
  fleetetl init-warehouse --warehouse "postgres://..."`,
	RunE: runInitWarehouse,
}

func init() {
	initWarehouseCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing warehouse tables before creating the schema")
}

func runInitWarehouse(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ETL.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Warehouse, "warehouse")
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	if initDropExisting {
		logging.Warn().Msg("Dropping existing warehouse schema")
		if err := warehouse.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	logging.Info().Msg("Creating warehouse schema")
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	start, end := cfg.ETL.DateDimRange()
	if err := warehouse.SeedDateDimension(ctx, pool, start, end); err != nil {
		return err
	}
	if err := warehouse.SeedTimeDimension(ctx, pool); err != nil {
		return err
	}

	logging.Info().Msg("Warehouse initialization complete")
	return nil
}
