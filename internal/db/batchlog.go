//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/pkg/version"
)

// BatchRun is one row of run lineage recorded in the warehouse.
type BatchRun struct {
	BatchID            int64
	StartedAt          time.Time
	FinishedAt         time.Time
	RecordsExtracted   int
	RecordsTransformed int
	RecordsLoaded      int
	Errors             int
}

const createBatchRunsSQL = `
CREATE TABLE IF NOT EXISTS etl_batch_runs (
    batch_id            BIGINT PRIMARY KEY,
    tool_version        TEXT NOT NULL,
    started_at          TIMESTAMPTZ NOT NULL,
    finished_at         TIMESTAMPTZ NOT NULL,
    records_extracted   INTEGER NOT NULL,
    records_transformed INTEGER NOT NULL,
    records_loaded      INTEGER NOT NULL,
    errors              INTEGER NOT NULL
)`

// RecordBatchRun writes one lineage row for a completed pipeline pass.
// A re-run reusing a batch id (possible when two passes start within the
// same second) overwrites the earlier row rather than failing the run.
func RecordBatchRun(ctx context.Context, pool *pgxpool.Pool, run BatchRun) error {
	if _, err := pool.Exec(ctx, createBatchRunsSQL); err != nil {
		return fmt.Errorf("failed to create etl_batch_runs: %w", err)
	}

	_, err := pool.Exec(ctx, `
        INSERT INTO etl_batch_runs (
            batch_id, tool_version, started_at, finished_at,
            records_extracted, records_transformed, records_loaded, errors
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (batch_id) DO UPDATE SET
            tool_version        = EXCLUDED.tool_version,
            started_at          = EXCLUDED.started_at,
            finished_at         = EXCLUDED.finished_at,
            records_extracted   = EXCLUDED.records_extracted,
            records_transformed = EXCLUDED.records_transformed,
            records_loaded      = EXCLUDED.records_loaded,
            errors              = EXCLUDED.errors
    `, run.BatchID, version.Short(), run.StartedAt, run.FinishedAt,
		run.RecordsExtracted, run.RecordsTransformed, run.RecordsLoaded, run.Errors)
	if err != nil {
		return fmt.Errorf("failed to record batch run: %w", err)
	}

	logging.Debug().
		Int64("batch_id", run.BatchID).
		Int("loaded", run.RecordsLoaded).
		Msg("Recorded batch run")

	return nil
}

// LastBatchRun returns the most recent lineage row, if any.
func LastBatchRun(ctx context.Context, pool *pgxpool.Pool) (*BatchRun, error) {
	var run BatchRun
	err := pool.QueryRow(ctx, `
        SELECT batch_id, started_at, finished_at,
               records_extracted, records_transformed, records_loaded, errors
        FROM etl_batch_runs
        ORDER BY batch_id DESC
        LIMIT 1
    `).Scan(&run.BatchID, &run.StartedAt, &run.FinishedAt,
		&run.RecordsExtracted, &run.RecordsTransformed, &run.RecordsLoaded, &run.Errors)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
