//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform computes per-delivery performance metrics over an
// extracted batch. It is pure: no I/O, no clock, everything derived from
// the input rows and the injected business parameters.
package transform

import (
	"math"
	"time"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/source"
)

// Params holds the business constants the metric formulas depend on.
type Params struct {
	// FuelCostPerLiter prices consumed fuel for cost-per-delivery.
	FuelCostPerLiter float64

	// RevenueBase and RevenuePerKg price a delivery: base + weight*rate.
	RevenueBase  float64
	RevenuePerKg float64

	// OnTimeThresholdMinutes is the maximum delay still counted on time.
	OnTimeThresholdMinutes float64

	// MinPackageWeightKg and MaxPackageWeightKg bound the weight filter
	// (exclusive on both ends).
	MinPackageWeightKg float64
	MaxPackageWeightKg float64
}

// OpenEndedValidTo is the sentinel closing date for current dimension rows.
var OpenEndedValidTo = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Record is a delivery with its derived metrics.
type Record struct {
	source.DeliveryRecord

	// DeliveryTimeMinutes is delivered minus scheduled. Negative values
	// mean an early delivery (or a data-quality anomaly) and are kept.
	DeliveryTimeMinutes float64

	// DelayMinutes is the non-negative portion of the delivery time.
	DelayMinutes float64

	IsOnTime bool

	TripDurationHours float64

	// DeliveriesInTrip counts rows sharing this trip within the batch,
	// not against history.
	DeliveriesInTrip int

	// DeliveriesPerHour is NaN when the trip duration is zero.
	DeliveriesPerHour float64

	// FuelEfficiencyKmPerLiter is NaN when no fuel was recorded.
	FuelEfficiencyKmPerLiter float64

	CostPerDelivery    float64
	RevenuePerDelivery float64

	// Slowly-changing-dimension stamps. Every row is inserted as current;
	// historical versioning is not implemented.
	ValidFrom time.Time
	ValidTo   time.Time
	IsCurrent bool
}

// Transform derives metrics for every extracted row and drops rows whose
// package weight falls outside the configured bounds. Dropped rows are
// not individually reported; the caller compares input and output counts.
func Transform(records []source.DeliveryRecord, p Params) []Record {
	deliveriesPerTrip := make(map[int64]int, len(records))
	for _, rec := range records {
		deliveriesPerTrip[rec.TripID]++
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.PackageWeightKg <= p.MinPackageWeightKg ||
			rec.PackageWeightKg >= p.MaxPackageWeightKg {
			continue
		}

		r := Record{DeliveryRecord: rec}

		r.DeliveryTimeMinutes = round2(rec.DeliveredAt.Sub(rec.ScheduledAt).Minutes())
		if r.DeliveryTimeMinutes > 0 {
			r.DelayMinutes = r.DeliveryTimeMinutes
		}
		r.IsOnTime = r.DelayMinutes <= p.OnTimeThresholdMinutes

		r.TripDurationHours = round2(rec.ArrivalAt.Sub(rec.DepartureAt).Hours())
		r.DeliveriesInTrip = deliveriesPerTrip[rec.TripID]
		r.DeliveriesPerHour = round2(safeDiv(float64(r.DeliveriesInTrip), r.TripDurationHours))

		r.FuelEfficiencyKmPerLiter = round2(safeDiv(rec.DistanceKm, rec.FuelConsumedLiters))

		fuelCost := rec.FuelConsumedLiters*p.FuelCostPerLiter + rec.TollCost
		r.CostPerDelivery = round2(fuelCost / float64(r.DeliveriesInTrip))

		r.RevenuePerDelivery = round2(p.RevenueBase + rec.PackageWeightKg*p.RevenuePerKg)

		year, month, day := rec.ScheduledAt.Date()
		r.ValidFrom = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		r.ValidTo = OpenEndedValidTo
		r.IsCurrent = true

		out = append(out, r)
	}

	if dropped := len(records) - len(out); dropped > 0 {
		logging.Warn().
			Int("dropped", dropped).
			Msg("Dropped rows with out-of-range package weight")
	}

	return out
}

// safeDiv divides, yielding NaN on a zero denominator instead of +Inf.
// NaN metrics are loaded as SQL NULL rather than failing the batch.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
