//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetlogix/fleetetl/internal/logging"
)

// SeederConfig controls the volume of generated demo data.
type SeederConfig struct {
	Vehicles          int
	Drivers           int
	Routes            int
	Days              int
	TripsPerDay       int
	DeliveriesPerTrip int
}

// Seeder populates a FleetLogix source database with plausible fleet
// activity so the pipeline can be exercised end-to-end locally.
type Seeder struct {
	faker *Faker
	cfg   SeederConfig
}

// NewSeeder creates a seeder.
func NewSeeder(cfg SeederConfig) *Seeder {
	return &Seeder{
		faker: NewFaker(),
		cfg:   cfg,
	}
}

var (
	vehicleTypes = []string{"van", "truck", "semi", "motorcycle"}
	fuelTypes    = []string{"diesel", "gasoline", "electric"}
	statuses     = []string{"active", "active", "active", "maintenance"}
)

// Seed generates vehicles, drivers, routes, trips, and deliveries.
// Reference tables insert row by row; trips and deliveries bulk-load.
func (s *Seeder) Seed(ctx context.Context, pool *pgxpool.Pool) error {
	if err := s.seedVehicles(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed vehicles: %w", err)
	}
	if err := s.seedDrivers(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed drivers: %w", err)
	}
	if err := s.seedRoutes(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed routes: %w", err)
	}
	if err := s.seedActivity(ctx, pool); err != nil {
		return fmt.Errorf("failed to seed trips and deliveries: %w", err)
	}
	return nil
}

func (s *Seeder) seedVehicles(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Int("count", s.cfg.Vehicles).Msg("Seeding vehicles")
	now := time.Now()
	for i := 0; i < s.cfg.Vehicles; i++ {
		_, err := pool.Exec(ctx, `
            INSERT INTO vehicles (license_plate, vehicle_type, capacity_kg,
                fuel_type, acquisition_date, status)
            VALUES ($1, $2, $3, $4, $5, $6)
        `,
			s.faker.LicensePlate(),
			Choose(s.faker, vehicleTypes),
			s.faker.Float64(500, 20000),
			Choose(s.faker, fuelTypes),
			s.faker.DateRange(now.AddDate(-10, 0, 0), now),
			Choose(s.faker, statuses),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedDrivers(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Int("count", s.cfg.Drivers).Msg("Seeding drivers")
	now := time.Now()
	for i := 0; i < s.cfg.Drivers; i++ {
		_, err := pool.Exec(ctx, `
            INSERT INTO drivers (employee_code, first_name, last_name,
                license_number, license_expiry, phone, hire_date, status)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `,
			s.faker.EmployeeCode(i+1),
			s.faker.FirstName(),
			s.faker.LastName(),
			"DL-"+s.faker.LicensePlate(),
			s.faker.DateRange(now, now.AddDate(5, 0, 0)),
			s.faker.Phone(),
			s.faker.DateRange(now.AddDate(-8, 0, 0), now.AddDate(0, -1, 0)),
			Choose(s.faker, statuses),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedRoutes(ctx context.Context, pool *pgxpool.Pool) error {
	logging.Info().Int("count", s.cfg.Routes).Msg("Seeding routes")
	for i := 0; i < s.cfg.Routes; i++ {
		distance := s.faker.Float64(10, 600)
		_, err := pool.Exec(ctx, `
            INSERT INTO routes (route_code, origin_city, destination_city,
                distance_km, estimated_duration_hours, toll_cost)
            VALUES ($1, $2, $3, $4, $5, $6)
        `,
			s.faker.RouteCode(i+1),
			s.faker.City(),
			s.faker.City(),
			distance,
			distance/60+s.faker.Float64(0.2, 1.5),
			s.faker.Float64(0, 45000),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// seedActivity generates trips and their deliveries day by day, ending
// today, so a pipeline run right after seeding has a full window.
func (s *Seeder) seedActivity(ctx context.Context, pool *pgxpool.Pool) error {
	total := s.cfg.Days * s.cfg.TripsPerDay
	logging.Info().
		Int("trips", total).
		Int("deliveries", total*s.cfg.DeliveriesPerTrip).
		Msg("Seeding trips and deliveries")

	dayStart := time.Now().AddDate(0, 0, -s.cfg.Days).Truncate(24 * time.Hour)

	type delivery struct {
		tripID    int64
		tracking  string
		customer  string
		weight    float64
		scheduled time.Time
		delivered time.Time
		signature bool
	}

	var deliveries []delivery
	for day := 0; day < s.cfg.Days; day++ {
		date := dayStart.AddDate(0, 0, day)
		for t := 0; t < s.cfg.TripsPerDay; t++ {
			departure := date.Add(time.Duration(s.faker.Int(5*60, 18*60)) * time.Minute)
			arrival := departure.Add(time.Duration(s.faker.Int(60, 9*60)) * time.Minute)

			var tripID int64
			err := pool.QueryRow(ctx, `
                INSERT INTO trips (vehicle_id, driver_id, route_id,
                    departure_datetime, arrival_datetime, fuel_consumed_liters)
                VALUES ($1, $2, $3, $4, $5, $6)
                RETURNING trip_id
            `,
				s.faker.Int(1, s.cfg.Vehicles),
				s.faker.Int(1, s.cfg.Drivers),
				s.faker.Int(1, s.cfg.Routes),
				departure,
				arrival,
				s.faker.Float64(5, 120),
			).Scan(&tripID)
			if err != nil {
				return err
			}

			for d := 0; d < s.cfg.DeliveriesPerTrip; d++ {
				scheduled := departure.Add(time.Duration(s.faker.Int(10, 300)) * time.Minute)
				// Roughly a third run late; a few arrive early.
				offset := s.faker.Int(-20, 90)
				deliveries = append(deliveries, delivery{
					tripID:    tripID,
					tracking:  s.faker.TrackingNumber(),
					customer:  s.faker.Company(),
					weight:    s.faker.Float64(0.5, 800),
					scheduled: scheduled,
					delivered: scheduled.Add(time.Duration(offset) * time.Minute),
					signature: s.faker.Bool(0.8),
				})
			}
		}
	}

	_, err := pool.CopyFrom(ctx,
		pgx.Identifier{"deliveries"},
		[]string{
			"trip_id", "tracking_number", "customer_name",
			"package_weight_kg", "scheduled_datetime", "delivered_datetime",
			"delivery_status", "recipient_signature",
		},
		pgx.CopyFromSlice(len(deliveries), func(i int) ([]any, error) {
			d := deliveries[i]
			return []any{
				d.tripID, d.tracking, d.customer,
				d.weight, d.scheduled, d.delivered,
				"delivered", d.signature,
			}, nil
		}))
	if err != nil {
		return err
	}

	logging.Info().Int("deliveries", len(deliveries)).Msg("Seeding complete")
	return nil
}
