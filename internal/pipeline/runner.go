//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline sequences one ETL pass: extract the latest day of
// deliveries, derive metrics, and load dimensions and facts into the
// warehouse. All run state lives on the Runner built for that pass;
// nothing survives between runs.
package pipeline

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/fleetlogix/fleetetl/internal/config"
	"github.com/fleetlogix/fleetetl/internal/db"
	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/source"
	"github.com/fleetlogix/fleetetl/internal/transform"
	"github.com/fleetlogix/fleetetl/internal/warehouse"
)

// Metrics aggregates per-run counters. Errors is advisory: it reports
// how many stages failed but does not gate the process exit status.
type Metrics struct {
	RecordsExtracted   int
	RecordsTransformed int
	RecordsLoaded      int
	Errors             int
}

// Runner executes a single pipeline pass. Construct one per run.
type Runner struct {
	cfg       *config.Config
	batchID   int64
	startedAt time.Time
	metrics   Metrics
	log       zerolog.Logger
}

// NewRunner creates a runner with a wall-clock-derived batch id.
func NewRunner(cfg *config.Config) *Runner {
	now := time.Now()
	return &Runner{
		cfg:       cfg,
		batchID:   now.Unix(),
		startedAt: now,
		log:       logging.WithBatch(now.Unix()),
	}
}

// BatchID returns the run's batch identifier.
func (r *Runner) BatchID() int64 {
	return r.batchID
}

// Run executes the full pass. Only a connection failure returns an
// error; stage failures are logged, counted, and the run proceeds to
// cleanup so a scheduler loop is never crashed by one bad day.
func (r *Runner) Run(ctx context.Context) (Metrics, error) {
	r.log.Info().Msg("Starting ETL run")

	src, err := db.Connect(ctx, r.cfg.Source, "source")
	if err != nil {
		r.log.Error().Err(err).Msg("Source connection failed")
		r.metrics.Errors++
		return r.metrics, err
	}
	defer src.Close()

	wh, err := db.Connect(ctx, r.cfg.Warehouse, "warehouse")
	if err != nil {
		r.log.Error().Err(err).Msg("Warehouse connection failed")
		r.metrics.Errors++
		return r.metrics, err
	}
	defer wh.Close()

	r.seedTimeDimensions(ctx, wh)

	records := r.extract(ctx, src)
	if len(records) > 0 {
		transformed := r.transform(records)
		if len(transformed) > 0 {
			r.loadDimensions(ctx, wh, src, transformed)
			r.loadFacts(ctx, wh, transformed)
		}
	}

	r.recordRun(ctx, wh)

	duration := time.Since(r.startedAt)
	r.log.Info().
		Dur("duration", duration).
		Int("records_extracted", r.metrics.RecordsExtracted).
		Int("records_transformed", r.metrics.RecordsTransformed).
		Int("records_loaded", r.metrics.RecordsLoaded).
		Int("errors", r.metrics.Errors).
		Msg("ETL run complete")

	return r.metrics, nil
}

func (r *Runner) seedTimeDimensions(ctx context.Context, wh *pgxpool.Pool) {
	start, end := r.cfg.ETL.DateDimRange()
	if err := warehouse.SeedDateDimension(ctx, wh, start, end); err != nil {
		r.log.Error().Err(err).Msg("dim_date seed failed")
		r.metrics.Errors++
	}
	if err := warehouse.SeedTimeDimension(ctx, wh); err != nil {
		r.log.Error().Err(err).Msg("dim_time seed failed")
		r.metrics.Errors++
	}
}

func (r *Runner) extract(ctx context.Context, src *pgxpool.Pool) []source.DeliveryRecord {
	records, err := source.ExtractDaily(ctx, src)
	if err != nil {
		r.log.Error().Err(err).Msg("Extraction failed")
		r.metrics.Errors++
		return nil
	}
	r.metrics.RecordsExtracted = len(records)
	return records
}

func (r *Runner) transform(records []source.DeliveryRecord) []transform.Record {
	e := r.cfg.ETL
	transformed := transform.Transform(records, transform.Params{
		FuelCostPerLiter:       e.FuelCostPerLiter,
		RevenueBase:            e.RevenueBase,
		RevenuePerKg:           e.RevenuePerKg,
		OnTimeThresholdMinutes: e.OnTimeThresholdMinutes,
		MinPackageWeightKg:     e.MinPackageWeightKg,
		MaxPackageWeightKg:     e.MaxPackageWeightKg,
	})
	r.metrics.RecordsTransformed = len(transformed)
	r.log.Info().
		Int("records", len(transformed)).
		Msg("Transformed deliveries")
	return transformed
}

// loadDimensions seeds the snapshot dimensions and appends new
// customers. Each dimension loads in its own transaction, so one
// failure cannot leave a sibling dimension half-committed; it can still
// leave the set partially seeded, which the next run's gates repair.
func (r *Runner) loadDimensions(ctx context.Context, wh, src *pgxpool.Pool, records []transform.Record) {
	loadDate := r.startedAt

	if err := warehouse.SeedVehicleDimension(ctx, wh, src, loadDate); err != nil {
		r.log.Error().Err(err).Msg("dim_vehicle load failed")
		r.metrics.Errors++
	}
	if err := warehouse.SeedDriverDimension(ctx, wh, src, loadDate); err != nil {
		r.log.Error().Err(err).Msg("dim_driver load failed")
		r.metrics.Errors++
	}
	if err := warehouse.SeedRouteDimension(ctx, wh, src); err != nil {
		r.log.Error().Err(err).Msg("dim_route load failed")
		r.metrics.Errors++
	}
	if _, err := warehouse.LoadNewCustomers(ctx, wh, records, loadDate); err != nil {
		r.log.Error().Err(err).Msg("dim_customer load failed")
		r.metrics.Errors++
	}
}

func (r *Runner) loadFacts(ctx context.Context, wh *pgxpool.Pool, records []transform.Record) {
	resolver, err := warehouse.LoadMapResolver(ctx, wh)
	if err != nil {
		r.log.Error().Err(err).Msg("Key mapping load failed")
		r.metrics.Errors++
		return
	}

	rows := warehouse.BuildFactRows(records, resolver, r.batchID)

	loaded, err := warehouse.LoadFacts(ctx, wh, rows)
	if err != nil {
		r.log.Error().Err(err).Msg("Fact load failed")
		r.metrics.Errors++
		return
	}
	r.metrics.RecordsLoaded = loaded

	if err := warehouse.RecordDailyTotals(ctx, wh, r.batchID, rows); err != nil {
		r.log.Error().Err(err).Msg("Daily totals rollup failed")
		r.metrics.Errors++
	}
}

func (r *Runner) recordRun(ctx context.Context, wh *pgxpool.Pool) {
	run := db.BatchRun{
		BatchID:            r.batchID,
		StartedAt:          r.startedAt,
		FinishedAt:         time.Now(),
		RecordsExtracted:   r.metrics.RecordsExtracted,
		RecordsTransformed: r.metrics.RecordsTransformed,
		RecordsLoaded:      r.metrics.RecordsLoaded,
		Errors:             r.metrics.Errors,
	}
	if err := db.RecordBatchRun(ctx, wh, run); err != nil {
		r.log.Error().Err(err).Msg("Batch run lineage write failed")
		r.metrics.Errors++
	}
}
