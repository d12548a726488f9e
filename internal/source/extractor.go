//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads delivery data from the operational FleetLogix
// database. The extract window is data-relative: it ends at the newest
// scheduled timestamp present in the source, not at wall-clock time, so
// a delayed run still picks up the same day it would have seen on time.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fleetlogix/fleetetl/internal/logging"
)

// DeliveryRecord is one completed delivery joined with its trip and
// route context, as returned by the daily extract.
type DeliveryRecord struct {
	DeliveryID         int64
	TripID             int64
	TrackingNumber     string
	VehicleID          int64
	DriverID           int64
	RouteID            int64
	CustomerName       string
	DestinationCity    string
	PackageWeightKg    float64
	DistanceKm         float64
	TollCost           float64
	FuelConsumedLiters float64
	ScheduledAt        time.Time
	DeliveredAt        time.Time
	DepartureAt        time.Time
	ArrivalAt          time.Time
	DeliveryStatus     string
	RecipientSignature bool
}

// Querier is the subset of pgx pool/conn behavior the extractor needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const dailyExtractSQL = `
SELECT
    d.delivery_id,
    d.trip_id,
    d.tracking_number,
    t.vehicle_id,
    t.driver_id,
    t.route_id,
    d.customer_name,
    r.destination_city,
    d.package_weight_kg,
    r.distance_km,
    r.toll_cost,
    t.fuel_consumed_liters,
    d.scheduled_datetime,
    d.delivered_datetime,
    t.departure_datetime,
    t.arrival_datetime,
    d.delivery_status,
    d.recipient_signature
FROM deliveries d
JOIN trips t  ON d.trip_id = t.trip_id
JOIN routes r ON r.route_id = t.route_id
WHERE d.delivery_status = 'delivered'
  AND d.scheduled_datetime >=
      (SELECT max(scheduled_datetime) FROM deliveries) - INTERVAL '1 day'
`

// ExtractDaily pulls the most recent day of completed deliveries. A
// query failure is returned as an error; it is never collapsed into an
// empty result, so a broken source is distinguishable from a quiet day.
func ExtractDaily(ctx context.Context, q Querier) ([]DeliveryRecord, error) {
	rows, err := q.Query(ctx, dailyExtractSQL)
	if err != nil {
		return nil, fmt.Errorf("daily extract query failed: %w", err)
	}
	defer rows.Close()

	var records []DeliveryRecord
	for rows.Next() {
		var rec DeliveryRecord
		if err := rows.Scan(
			&rec.DeliveryID, &rec.TripID, &rec.TrackingNumber,
			&rec.VehicleID, &rec.DriverID, &rec.RouteID,
			&rec.CustomerName, &rec.DestinationCity,
			&rec.PackageWeightKg, &rec.DistanceKm, &rec.TollCost,
			&rec.FuelConsumedLiters,
			&rec.ScheduledAt, &rec.DeliveredAt,
			&rec.DepartureAt, &rec.ArrivalAt,
			&rec.DeliveryStatus, &rec.RecipientSignature,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily extract failed: %w", err)
	}

	logging.Info().
		Int("records", len(records)).
		Msg("Extracted daily deliveries")

	return records, nil
}
