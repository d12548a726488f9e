package transform

import (
	"math"
	"testing"
	"time"

	"github.com/fleetlogix/fleetetl/internal/source"
)

func testParams() Params {
	return Params{
		FuelCostPerLiter:       5000,
		RevenueBase:            20000,
		RevenuePerKg:           500,
		OnTimeThresholdMinutes: 30,
		MinPackageWeightKg:     0,
		MaxPackageWeightKg:     10000,
	}
}

func testRecord() source.DeliveryRecord {
	return source.DeliveryRecord{
		DeliveryID:         1,
		TripID:             100,
		TrackingNumber:     "FLX-0000000001",
		VehicleID:          5,
		DriverID:           9,
		RouteID:            3,
		CustomerName:       "Maria Lopez",
		DestinationCity:    "Monterrey",
		PackageWeightKg:    10,
		DistanceKm:         120,
		TollCost:           5000,
		FuelConsumedLiters: 15,
		ScheduledAt:        time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		DeliveredAt:        time.Date(2024, 3, 15, 10, 20, 0, 0, time.UTC),
		DepartureAt:        time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		ArrivalAt:          time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC),
		DeliveryStatus:     "delivered",
		RecipientSignature: true,
	}
}

func TestTransformMetrics(t *testing.T) {
	out := Transform([]source.DeliveryRecord{testRecord()}, testParams())
	if len(out) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(out))
	}
	r := out[0]

	if r.DeliveryTimeMinutes != 20 {
		t.Errorf("Expected DeliveryTimeMinutes 20, got %v", r.DeliveryTimeMinutes)
	}
	if r.DelayMinutes != 20 {
		t.Errorf("Expected DelayMinutes 20, got %v", r.DelayMinutes)
	}
	if !r.IsOnTime {
		t.Error("Expected delivery within threshold to be on time")
	}
	if r.TripDurationHours != 4 {
		t.Errorf("Expected TripDurationHours 4, got %v", r.TripDurationHours)
	}
	if r.DeliveriesInTrip != 1 {
		t.Errorf("Expected DeliveriesInTrip 1, got %d", r.DeliveriesInTrip)
	}
	if r.DeliveriesPerHour != 0.25 {
		t.Errorf("Expected DeliveriesPerHour 0.25, got %v", r.DeliveriesPerHour)
	}
	if r.FuelEfficiencyKmPerLiter != 8 {
		t.Errorf("Expected FuelEfficiencyKmPerLiter 8, got %v", r.FuelEfficiencyKmPerLiter)
	}
	// 15 L * 5000 + 5000 toll, one delivery in the trip
	if r.CostPerDelivery != 80000 {
		t.Errorf("Expected CostPerDelivery 80000, got %v", r.CostPerDelivery)
	}
	// 20000 base + 10 kg * 500
	if r.RevenuePerDelivery != 25000 {
		t.Errorf("Expected RevenuePerDelivery 25000, got %v", r.RevenuePerDelivery)
	}

	wantValidFrom := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !r.ValidFrom.Equal(wantValidFrom) {
		t.Errorf("Expected ValidFrom %v, got %v", wantValidFrom, r.ValidFrom)
	}
	if !r.ValidTo.Equal(OpenEndedValidTo) {
		t.Errorf("Expected open-ended ValidTo, got %v", r.ValidTo)
	}
	if !r.IsCurrent {
		t.Error("Expected IsCurrent true")
	}
}

func TestTransformEarlyDelivery(t *testing.T) {
	rec := testRecord()
	rec.DeliveredAt = rec.ScheduledAt.Add(-15 * time.Minute)

	out := Transform([]source.DeliveryRecord{rec}, testParams())
	if len(out) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(out))
	}
	r := out[0]

	if r.DeliveryTimeMinutes != -15 {
		t.Errorf("Expected DeliveryTimeMinutes -15, got %v", r.DeliveryTimeMinutes)
	}
	if r.DelayMinutes != 0 {
		t.Errorf("Expected DelayMinutes 0 for early delivery, got %v", r.DelayMinutes)
	}
	if !r.IsOnTime {
		t.Error("Expected early delivery to be on time")
	}
}

func TestTransformOnTimeBoundary(t *testing.T) {
	tests := []struct {
		name       string
		delayedBy  time.Duration
		wantOnTime bool
	}{
		{"exactly at threshold", 30 * time.Minute, true},
		{"one minute over", 31 * time.Minute, false},
		{"just under", 29 * time.Minute, true},
		{"zero delay", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			rec.DeliveredAt = rec.ScheduledAt.Add(tt.delayedBy)

			out := Transform([]source.DeliveryRecord{rec}, testParams())
			if len(out) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(out))
			}
			if out[0].IsOnTime != tt.wantOnTime {
				t.Errorf("Delay %v: expected IsOnTime %v, got %v",
					tt.delayedBy, tt.wantOnTime, out[0].IsOnTime)
			}
		})
	}
}

func TestTransformWeightFilter(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		kept   bool
	}{
		{"zero weight dropped", 0, false},
		{"negative weight dropped", -5, false},
		{"at upper bound dropped", 10000, false},
		{"over upper bound dropped", 10001, false},
		{"just above lower bound kept", 0.01, true},
		{"just below upper bound kept", 9999.99, true},
		{"typical weight kept", 25, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			rec.PackageWeightKg = tt.weight

			out := Transform([]source.DeliveryRecord{rec}, testParams())
			if tt.kept && len(out) != 1 {
				t.Errorf("Weight %v: expected record kept, got %d records", tt.weight, len(out))
			}
			if !tt.kept && len(out) != 0 {
				t.Errorf("Weight %v: expected record dropped, got %d records", tt.weight, len(out))
			}
		})
	}
}

func TestTransformZeroDenominators(t *testing.T) {
	rec := testRecord()
	rec.ArrivalAt = rec.DepartureAt // zero trip duration
	rec.FuelConsumedLiters = 0

	out := Transform([]source.DeliveryRecord{rec}, testParams())
	if len(out) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(out))
	}
	r := out[0]

	if !math.IsNaN(r.DeliveriesPerHour) {
		t.Errorf("Expected NaN DeliveriesPerHour for zero trip duration, got %v", r.DeliveriesPerHour)
	}
	if !math.IsNaN(r.FuelEfficiencyKmPerLiter) {
		t.Errorf("Expected NaN FuelEfficiencyKmPerLiter for zero fuel, got %v", r.FuelEfficiencyKmPerLiter)
	}
	// Cost per delivery divides by the trip's delivery count, not fuel;
	// it stays finite with toll-only cost
	if r.CostPerDelivery != 5000 {
		t.Errorf("Expected CostPerDelivery 5000, got %v", r.CostPerDelivery)
	}
}

func TestTransformDeliveriesPerTrip(t *testing.T) {
	base := testRecord()
	base.DepartureAt = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	base.ArrivalAt = time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC)

	var records []source.DeliveryRecord
	for i := 0; i < 3; i++ {
		rec := base
		rec.DeliveryID = int64(i + 1)
		records = append(records, rec)
	}
	solo := base
	solo.DeliveryID = 4
	solo.TripID = 200
	records = append(records, solo)

	out := Transform(records, testParams())
	if len(out) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(out))
	}

	for _, r := range out[:3] {
		if r.DeliveriesInTrip != 3 {
			t.Errorf("Expected DeliveriesInTrip 3 for trip 100, got %d", r.DeliveriesInTrip)
		}
		if r.DeliveriesPerHour != 1.5 {
			t.Errorf("Expected DeliveriesPerHour 1.5, got %v", r.DeliveriesPerHour)
		}
		// (15 * 5000 + 5000) / 3 deliveries
		if r.CostPerDelivery != 26666.67 {
			t.Errorf("Expected CostPerDelivery 26666.67, got %v", r.CostPerDelivery)
		}
	}
	if out[3].DeliveriesInTrip != 1 {
		t.Errorf("Expected DeliveriesInTrip 1 for trip 200, got %d", out[3].DeliveriesInTrip)
	}
}

func TestTransformEmptyInput(t *testing.T) {
	out := Transform(nil, testParams())
	if len(out) != 0 {
		t.Errorf("Expected empty output, got %d records", len(out))
	}
}
