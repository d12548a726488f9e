//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/transform"
)

// FactRow is one assembled fact_deliveries row. Surrogate key pointers
// are nil when the natural key did not resolve.
type FactRow struct {
	DateKey          int
	ScheduledTimeKey int
	DeliveredTimeKey int
	VehicleKey       *int64
	DriverKey        *int64
	RouteKey         *int64
	CustomerKey      *int64

	DeliveryID     int64
	TripID         int64
	TrackingNumber string

	PackageWeightKg    float64
	DistanceKm         float64
	FuelConsumedLiters float64

	DeliveryTimeMinutes      float64
	DelayMinutes             float64
	DeliveriesPerHour        float64 // NaN loads as NULL
	FuelEfficiencyKmPerLiter float64 // NaN loads as NULL
	CostPerDelivery          float64
	RevenuePerDelivery       float64

	IsOnTime       bool
	IsDamaged      bool
	HasSignature   bool
	DeliveryStatus string
	BatchID        int64
}

// DateKey derives the numeric YYYYMMDD key for a timestamp.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// TimeKey buckets a timestamp into its half-hour dim_time key: the
// minute rounds down to 0 or 30 and combines as hour*100+minute. Minute
// 59 stays in its own hour. This must match GenerateTimeRows exactly or
// time lookups silently miss.
func TimeKey(t time.Time) int {
	minute := 0
	if t.Minute() >= 30 {
		minute = 30
	}
	return t.Hour()*100 + minute
}

// BuildFactRows resolves each transformed record's natural keys and
// assembles fact rows tagged with the batch id. Unresolved keys become
// NULL references; nothing here fails a row.
func BuildFactRows(records []transform.Record, resolver KeyResolver, batchID int64) []FactRow {
	rows := make([]FactRow, 0, len(records))
	misses := 0

	for _, rec := range records {
		row := FactRow{
			DateKey:          DateKey(rec.ScheduledAt),
			ScheduledTimeKey: TimeKey(rec.ScheduledAt),
			DeliveredTimeKey: TimeKey(rec.DeliveredAt),

			DeliveryID:     rec.DeliveryID,
			TripID:         rec.TripID,
			TrackingNumber: rec.TrackingNumber,

			PackageWeightKg:    rec.PackageWeightKg,
			DistanceKm:         rec.DistanceKm,
			FuelConsumedLiters: rec.FuelConsumedLiters,

			DeliveryTimeMinutes:      rec.DeliveryTimeMinutes,
			DelayMinutes:             rec.DelayMinutes,
			DeliveriesPerHour:        rec.DeliveriesPerHour,
			FuelEfficiencyKmPerLiter: rec.FuelEfficiencyKmPerLiter,
			CostPerDelivery:          rec.CostPerDelivery,
			RevenuePerDelivery:       rec.RevenuePerDelivery,

			IsOnTime:       rec.IsOnTime,
			IsDamaged:      false,
			HasSignature:   rec.RecipientSignature,
			DeliveryStatus: rec.DeliveryStatus,
			BatchID:        batchID,
		}

		if key, ok := resolver.VehicleKey(rec.VehicleID); ok {
			row.VehicleKey = &key
		} else {
			misses++
		}
		if key, ok := resolver.DriverKey(rec.DriverID); ok {
			row.DriverKey = &key
		} else {
			misses++
		}
		if key, ok := resolver.RouteKey(rec.RouteID); ok {
			row.RouteKey = &key
		} else {
			misses++
		}
		if key, ok := resolver.CustomerKey(rec.CustomerName); ok {
			row.CustomerKey = &key
		} else {
			misses++
		}

		rows = append(rows, row)
	}

	if misses > 0 {
		logging.Warn().
			Int("unresolved_keys", misses).
			Msg("Fact rows carry NULL dimension references")
	}

	return rows
}

// LoadFacts replaces and inserts the batch's fact rows in one
// transaction. Existing rows for the batch's delivery ids are deleted
// first, so re-running a window replaces its own deliveries without
// touching facts an earlier, overlapping window loaded for the same
// calendar day. The extract window is data-relative and rarely aligns
// to date keys, so deleting by date key would destroy neighbors.
func LoadFacts(ctx context.Context, wh DB, rows []FactRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.DeliveryID
	}

	tx, err := wh.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin fact load: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"DELETE FROM fact_deliveries WHERE delivery_id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to clear fact window: %w", err)
	}
	if tag.RowsAffected() > 0 {
		logging.Info().
			Int64("rows", tag.RowsAffected()).
			Msg("Replaced facts from a previous run of this window")
	}

	count, err := tx.CopyFrom(ctx,
		pgx.Identifier{"fact_deliveries"},
		[]string{
			"date_key", "scheduled_time_key", "delivered_time_key",
			"vehicle_key", "driver_key", "route_key", "customer_key",
			"delivery_id", "trip_id", "tracking_number",
			"package_weight_kg", "distance_km", "fuel_consumed_liters",
			"delivery_time_minutes", "delay_minutes", "deliveries_per_hour",
			"fuel_efficiency_km_per_liter", "cost_per_delivery",
			"revenue_per_delivery", "is_on_time", "is_damaged",
			"has_signature", "delivery_status", "etl_batch_id",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.DateKey, r.ScheduledTimeKey, r.DeliveredTimeKey,
				r.VehicleKey, r.DriverKey, r.RouteKey, r.CustomerKey,
				r.DeliveryID, r.TripID, r.TrackingNumber,
				r.PackageWeightKg, r.DistanceKm, r.FuelConsumedLiters,
				r.DeliveryTimeMinutes, r.DelayMinutes,
				nullIfNaN(r.DeliveriesPerHour),
				nullIfNaN(r.FuelEfficiencyKmPerLiter),
				r.CostPerDelivery, r.RevenuePerDelivery,
				r.IsOnTime, r.IsDamaged, r.HasSignature,
				r.DeliveryStatus, r.BatchID,
			}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("failed to load facts: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit facts: %w", err)
	}

	logging.Info().Int64("rows", count).Msg("Loaded fact_deliveries")
	return int(count), nil
}

// RecordDailyTotals refreshes the per-date rollups for every date the
// batch touched. Adjacent windows share calendar days, so a date's
// totals aggregate all of its loaded facts regardless of which batch
// loaded them; the batch id only records who refreshed the row last.
func RecordDailyTotals(ctx context.Context, wh DB, batchID int64, rows []FactRow) error {
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var dateKeys []int
	for _, r := range rows {
		if !seen[r.DateKey] {
			seen[r.DateKey] = true
			dateKeys = append(dateKeys, r.DateKey)
		}
	}

	_, err := wh.Exec(ctx, `
        INSERT INTO daily_delivery_totals (
            date_key, total_deliveries, on_time_deliveries, total_delayed,
            avg_delay_minutes, total_revenue, total_cost,
            etl_batch_id, etl_timestamp
        )
        SELECT
            date_key,
            COUNT(*),
            COUNT(*) FILTER (WHERE is_on_time),
            COUNT(*) FILTER (WHERE NOT is_on_time),
            AVG(delay_minutes),
            SUM(revenue_per_delivery),
            SUM(cost_per_delivery),
            $1,
            now()
        FROM fact_deliveries
        WHERE date_key = ANY($2)
        GROUP BY date_key
        ON CONFLICT (date_key) DO UPDATE SET
            total_deliveries   = EXCLUDED.total_deliveries,
            on_time_deliveries = EXCLUDED.on_time_deliveries,
            total_delayed      = EXCLUDED.total_delayed,
            avg_delay_minutes  = EXCLUDED.avg_delay_minutes,
            total_revenue      = EXCLUDED.total_revenue,
            total_cost         = EXCLUDED.total_cost,
            etl_batch_id       = EXCLUDED.etl_batch_id,
            etl_timestamp      = EXCLUDED.etl_timestamp
    `, batchID, dateKeys)
	if err != nil {
		return fmt.Errorf("failed to record daily totals: %w", err)
	}
	return nil
}

// nullIfNaN converts a NaN metric to SQL NULL.
func nullIfNaN(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
