package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetlogix/fleetetl/internal/datagen"
	"github.com/fleetlogix/fleetetl/internal/db"
	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/source"
)

var (
	seedDays              int
	seedTripsPerDay       int
	seedDeliveriesPerTrip int
	seedDropExisting      bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a demo source database with fleet activity",
	Long: `Create the operational schema in the source database and fill
it with generated vehicles, drivers, routes, trips, and deliveries, so
the pipeline can be exercised end-to-end without a production source.

Example:
  fleetetl seed --source "postgres://..." --days 14`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedDays, "days", 0,
		"days of delivery history to generate")
	seedCmd.Flags().IntVar(&seedTripsPerDay, "trips-per-day", 0,
		"trips generated per day")
	seedCmd.Flags().IntVar(&seedDeliveriesPerTrip, "deliveries-per-trip", 0,
		"deliveries generated per trip")
	seedCmd.Flags().BoolVar(&seedDropExisting, "drop-existing", false,
		"drop existing source tables before seeding")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedDays > 0 {
		cfg.Seed.Days = seedDays
	}
	if seedTripsPerDay > 0 {
		cfg.Seed.TripsPerDay = seedTripsPerDay
	}
	if seedDeliveriesPerTrip > 0 {
		cfg.Seed.DeliveriesPerTrip = seedDeliveriesPerTrip
	}
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Source, "source")
	if err != nil {
		return fmt.Errorf("failed to connect to source: %w", err)
	}
	defer pool.Close()

	if seedDropExisting {
		logging.Warn().Msg("Dropping existing source schema")
		if err := source.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop source schema: %w", err)
		}
	}

	logging.Info().Msg("Creating source schema")
	if err := source.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create source schema: %w", err)
	}

	seeder := datagen.NewSeeder(datagen.SeederConfig{
		Vehicles:          cfg.Seed.Vehicles,
		Drivers:           cfg.Seed.Drivers,
		Routes:            cfg.Seed.Routes,
		Days:              cfg.Seed.Days,
		TripsPerDay:       cfg.Seed.TripsPerDay,
		DeliveriesPerTrip: cfg.Seed.DeliveriesPerTrip,
	})
	if err := seeder.Seed(ctx, pool); err != nil {
		return err
	}

	logging.Info().Msg("Source database seeded")
	return nil
}
