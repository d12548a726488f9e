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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/transform"
)

// DateRow is one generated dim_date row.
type DateRow struct {
	DateKey       int
	FullDate      time.Time
	DayOfWeek     int // ISO: Monday=1 .. Sunday=7
	DayName       string
	DayOfMonth    int
	DayOfYear     int
	WeekOfYear    int
	MonthNum      int
	MonthName     string
	Quarter       int
	Year          int
	IsWeekend     bool
	IsHoliday     bool
	FiscalQuarter int
	FiscalYear    int
}

// TimeRow is one generated dim_time row (half-hour granularity).
type TimeRow struct {
	TimeKey        int
	Hour           int
	Minute         int
	Second         int
	TimeOfDay      string
	Hour24         string
	Hour12         string
	AMPM           string
	IsBusinessHour bool
	Shift          string
}

// GenerateDateRows produces one row per calendar day in [start, end],
// both inclusive. No holiday calendar is integrated (is_holiday stays
// false) and the fiscal fields mirror the calendar ones.
func GenerateDateRows(start, end time.Time) []DateRow {
	var rows []DateRow
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, isoWeek := d.ISOWeek()
		quarter := (int(d.Month())-1)/3 + 1
		weekday := int(d.Weekday())
		isoWeekday := (weekday+6)%7 + 1

		rows = append(rows, DateRow{
			DateKey:       d.Year()*10000 + int(d.Month())*100 + d.Day(),
			FullDate:      d,
			DayOfWeek:     isoWeekday,
			DayName:       d.Weekday().String(),
			DayOfMonth:    d.Day(),
			DayOfYear:     d.YearDay(),
			WeekOfYear:    isoWeek,
			MonthNum:      int(d.Month()),
			MonthName:     d.Month().String(),
			Quarter:       quarter,
			Year:          d.Year(),
			IsWeekend:     isoWeekday >= 6,
			IsHoliday:     false,
			FiscalQuarter: quarter,
			FiscalYear:    d.Year(),
		})
	}
	return rows
}

// GenerateTimeRows produces 48 rows: one per half-hour slot of the day.
func GenerateTimeRows() []TimeRow {
	rows := make([]TimeRow, 0, 48)
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 30} {
			hour12 := hour % 12
			if hour12 == 0 {
				hour12 = 12
			}
			ampm := "AM"
			if hour >= 12 {
				ampm = "PM"
			}

			timeOfDay := "Night"
			switch {
			case hour < 12:
				timeOfDay = "Morning"
			case hour < 20:
				timeOfDay = "Afternoon"
			}

			shift := "Shift 3"
			switch {
			case hour >= 6 && hour < 14:
				shift = "Shift 1"
			case hour >= 14 && hour < 22:
				shift = "Shift 2"
			}

			rows = append(rows, TimeRow{
				TimeKey:        hour*100 + minute,
				Hour:           hour,
				Minute:         minute,
				Second:         0,
				TimeOfDay:      timeOfDay,
				Hour24:         fmt.Sprintf("%02d:%02d", hour, minute),
				Hour12:         fmt.Sprintf("%d:%02d", hour12, minute),
				AMPM:           ampm,
				IsBusinessHour: hour >= 8 && hour < 18,
				Shift:          shift,
			})
		}
	}
	return rows
}

// dimensionSeeded reports whether a dimension table already has rows.
func dimensionSeeded(ctx context.Context, db DB, table string) (bool, error) {
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	if count > 0 {
		logging.Info().
			Str("table", table).
			Int("rows", count).
			Msg("Dimension already seeded")
	}
	return count > 0, nil
}

// SeedDateDimension populates dim_date once. Re-runs no-op against the
// row-count gate. The insert runs in its own transaction.
func SeedDateDimension(ctx context.Context, db DB, start, end time.Time) error {
	seeded, err := dimensionSeeded(ctx, db, "dim_date")
	if err != nil || seeded {
		return err
	}

	rows := GenerateDateRows(start, end)

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dim_date load: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"dim_date"},
		[]string{
			"date_key", "full_date", "day_of_week", "day_name",
			"day_of_month", "day_of_year", "week_of_year", "month_num",
			"month_name", "quarter", "year", "is_weekend", "is_holiday",
			"fiscal_quarter", "fiscal_year",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.DateKey, r.FullDate, r.DayOfWeek, r.DayName,
				r.DayOfMonth, r.DayOfYear, r.WeekOfYear, r.MonthNum,
				r.MonthName, r.Quarter, r.Year, r.IsWeekend, r.IsHoliday,
				r.FiscalQuarter, r.FiscalYear,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to load dim_date: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dim_date: %w", err)
	}

	logging.Info().Int("rows", len(rows)).Msg("Seeded dim_date")
	return nil
}

// SeedTimeDimension populates dim_time once.
func SeedTimeDimension(ctx context.Context, db DB) error {
	seeded, err := dimensionSeeded(ctx, db, "dim_time")
	if err != nil || seeded {
		return err
	}

	rows := GenerateTimeRows()

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dim_time load: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"dim_time"},
		[]string{
			"time_key", "hour", "minute", "second", "time_of_day",
			"hour_24", "hour_12", "am_pm", "is_business_hour", "shift",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.TimeKey, r.Hour, r.Minute, r.Second, r.TimeOfDay,
				r.Hour24, r.Hour12, r.AMPM, r.IsBusinessHour, r.Shift,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to load dim_time: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dim_time: %w", err)
	}

	logging.Info().Int("rows", len(rows)).Msg("Seeded dim_time")
	return nil
}

// MonthsBetween returns whole months from one date to another, the way
// a tenure report counts them: partial months do not count.
func MonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// ClassifyRoute bands a route's difficulty and type from distance alone.
func ClassifyRoute(distanceKm float64) (difficulty, routeType string) {
	switch {
	case distanceKm < 100:
		difficulty = "Easy"
	case distanceKm < 300:
		difficulty = "Medium"
	default:
		difficulty = "Hard"
	}
	switch {
	case distanceKm < 50:
		routeType = "Urban"
	case distanceKm < 200:
		routeType = "Intercity"
	default:
		routeType = "Rural"
	}
	return difficulty, routeType
}

// SeedVehicleDimension snapshots the source vehicles table on first run.
// There is no ongoing sync: vehicles added later reach the dimension only
// through a manual reseed.
func SeedVehicleDimension(ctx context.Context, wh DB, src DB, loadDate time.Time) error {
	seeded, err := dimensionSeeded(ctx, wh, "dim_vehicle")
	if err != nil || seeded {
		return err
	}

	rows, err := src.Query(ctx, `
        SELECT vehicle_id, license_plate, vehicle_type, capacity_kg,
               fuel_type, acquisition_date, status
        FROM vehicles`)
	if err != nil {
		return fmt.Errorf("failed to read source vehicles: %w", err)
	}
	defer rows.Close()

	type vehicle struct {
		id              int64
		plate, vtype    string
		capacity        float64
		fuelType        string
		acquisitionDate time.Time
		status          string
	}
	var vehicles []vehicle
	for rows.Next() {
		var v vehicle
		if err := rows.Scan(&v.id, &v.plate, &v.vtype, &v.capacity,
			&v.fuelType, &v.acquisitionDate, &v.status); err != nil {
			return fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read source vehicles: %w", err)
	}

	tx, err := wh.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dim_vehicle load: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"dim_vehicle"},
		[]string{
			"vehicle_id", "license_plate", "vehicle_type", "capacity_kg",
			"fuel_type", "acquisition_date", "status",
			"valid_from", "valid_to", "is_current",
		},
		pgx.CopyFromSlice(len(vehicles), func(i int) ([]any, error) {
			v := vehicles[i]
			return []any{
				v.id, v.plate, v.vtype, v.capacity, v.fuelType,
				v.acquisitionDate, v.status,
				loadDate, transform.OpenEndedValidTo, true,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to load dim_vehicle: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dim_vehicle: %w", err)
	}

	logging.Info().Int("rows", len(vehicles)).Msg("Seeded dim_vehicle")
	return nil
}

// SeedDriverDimension snapshots the source drivers table on first run.
// Tenure is frozen at load time; it is not recomputed on later runs.
func SeedDriverDimension(ctx context.Context, wh DB, src DB, loadDate time.Time) error {
	seeded, err := dimensionSeeded(ctx, wh, "dim_driver")
	if err != nil || seeded {
		return err
	}

	rows, err := src.Query(ctx, `
        SELECT driver_id, employee_code, first_name, last_name,
               license_number, license_expiry, phone, hire_date, status
        FROM drivers`)
	if err != nil {
		return fmt.Errorf("failed to read source drivers: %w", err)
	}
	defer rows.Close()

	type driver struct {
		id                  int64
		code, first, last   string
		licenseNum          string
		licenseExpiry       time.Time
		phone               *string
		hireDate            time.Time
		status              string
	}
	var drivers []driver
	for rows.Next() {
		var d driver
		if err := rows.Scan(&d.id, &d.code, &d.first, &d.last,
			&d.licenseNum, &d.licenseExpiry, &d.phone, &d.hireDate,
			&d.status); err != nil {
			return fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read source drivers: %w", err)
	}

	tx, err := wh.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dim_driver load: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"dim_driver"},
		[]string{
			"driver_id", "employee_code", "full_name", "license_number",
			"license_expiry", "phone", "hire_date", "experience_months",
			"status", "performance_category",
			"valid_from", "valid_to", "is_current",
		},
		pgx.CopyFromSlice(len(drivers), func(i int) ([]any, error) {
			d := drivers[i]
			return []any{
				d.id, d.code, d.first + " " + d.last, d.licenseNum,
				d.licenseExpiry, d.phone, d.hireDate,
				MonthsBetween(d.hireDate, loadDate),
				d.status, "Regular",
				loadDate, transform.OpenEndedValidTo, true,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to load dim_driver: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dim_driver: %w", err)
	}

	logging.Info().Int("rows", len(drivers)).Msg("Seeded dim_driver")
	return nil
}

// SeedRouteDimension snapshots the source routes table on first run.
func SeedRouteDimension(ctx context.Context, wh DB, src DB) error {
	seeded, err := dimensionSeeded(ctx, wh, "dim_route")
	if err != nil || seeded {
		return err
	}

	rows, err := src.Query(ctx, `
        SELECT route_id, route_code, origin_city, destination_city,
               distance_km, estimated_duration_hours, toll_cost
        FROM routes`)
	if err != nil {
		return fmt.Errorf("failed to read source routes: %w", err)
	}
	defer rows.Close()

	type route struct {
		id                 int64
		code, origin, dest string
		distance, duration float64
		toll               float64
	}
	var routes []route
	for rows.Next() {
		var r route
		if err := rows.Scan(&r.id, &r.code, &r.origin, &r.dest,
			&r.distance, &r.duration, &r.toll); err != nil {
			return fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read source routes: %w", err)
	}

	tx, err := wh.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin dim_route load: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"dim_route"},
		[]string{
			"route_id", "route_code", "origin_city", "destination_city",
			"distance_km", "estimated_duration_hours", "toll_cost",
			"difficulty_level", "route_type",
		},
		pgx.CopyFromSlice(len(routes), func(i int) ([]any, error) {
			r := routes[i]
			difficulty, routeType := ClassifyRoute(r.distance)
			return []any{
				r.id, r.code, r.origin, r.dest,
				r.distance, r.duration, r.toll,
				difficulty, routeType,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to load dim_route: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dim_route: %w", err)
	}

	logging.Info().Int("rows", len(routes)).Msg("Seeded dim_route")
	return nil
}

// NewCustomers returns the distinct (name, city) pairs from the batch
// whose names are not in existing, preserving first-seen order.
func NewCustomers(records []transform.Record, existing map[string]bool) [][2]string {
	seen := make(map[string]bool, len(records))
	var out [][2]string
	for _, rec := range records {
		if seen[rec.CustomerName] || existing[rec.CustomerName] {
			continue
		}
		seen[rec.CustomerName] = true
		out = append(out, [2]string{rec.CustomerName, rec.DestinationCity})
	}
	return out
}

// LoadNewCustomers appends customers first seen in this batch. Unlike
// the snapshot dimensions this runs every pass. The ON CONFLICT guard
// makes the check-then-insert safe against a concurrent run.
func LoadNewCustomers(ctx context.Context, wh DB, records []transform.Record, loadDate time.Time) (int, error) {
	rows, err := wh.Query(ctx, "SELECT customer_name FROM dim_customer")
	if err != nil {
		return 0, fmt.Errorf("failed to read existing customers: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, fmt.Errorf("failed to scan customer name: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read existing customers: %w", err)
	}

	newCustomers := NewCustomers(records, existing)
	if len(newCustomers) == 0 {
		logging.Info().Msg("No new customers")
		return 0, nil
	}

	tx, err := wh.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin dim_customer load: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, c := range newCustomers {
		tag, err := tx.Exec(ctx, `
            INSERT INTO dim_customer (customer_name, customer_type, city,
                first_delivery_date, total_deliveries, customer_category)
            VALUES ($1, 'Individual', $2, $3, 0, 'Regular')
            ON CONFLICT (customer_name) DO NOTHING
        `, c[0], c[1], loadDate)
		if err != nil {
			return 0, fmt.Errorf("failed to insert customer %q: %w", c[0], err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit dim_customer: %w", err)
	}

	logging.Info().Int("rows", inserted).Msg("Loaded new customers")
	return inserted, nil
}
