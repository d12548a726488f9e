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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fleetlogix/fleetetl/internal/logging"
)

// KeyResolver maps natural keys to dimension surrogate keys. A miss is
// reported, not fatal: the fact row loads with a NULL reference.
type KeyResolver interface {
	VehicleKey(id int64) (int64, bool)
	DriverKey(id int64) (int64, bool)
	RouteKey(id int64) (int64, bool)
	CustomerKey(name string) (int64, bool)
}

// MapResolver holds every dimension's key mapping in memory, fetched
// with one query per dimension. This trades memory for round-trips and
// assumes dimension cardinality stays small; switch to QueryResolver
// when it does not.
type MapResolver struct {
	vehicles  map[int64]int64
	drivers   map[int64]int64
	routes    map[int64]int64
	customers map[string]int64
}

// LoadMapResolver bulk-fetches all four key mappings. Driver keys come
// from current rows only; the other dimensions have no versioning.
func LoadMapResolver(ctx context.Context, wh DB) (*MapResolver, error) {
	r := &MapResolver{
		vehicles:  make(map[int64]int64),
		drivers:   make(map[int64]int64),
		routes:    make(map[int64]int64),
		customers: make(map[string]int64),
	}

	if err := loadInt64Map(ctx, wh,
		"SELECT vehicle_id, vehicle_key FROM dim_vehicle", r.vehicles); err != nil {
		return nil, fmt.Errorf("failed to load vehicle keys: %w", err)
	}
	if err := loadInt64Map(ctx, wh,
		"SELECT driver_id, driver_key FROM dim_driver WHERE is_current = TRUE", r.drivers); err != nil {
		return nil, fmt.Errorf("failed to load driver keys: %w", err)
	}
	if err := loadInt64Map(ctx, wh,
		"SELECT route_id, route_key FROM dim_route", r.routes); err != nil {
		return nil, fmt.Errorf("failed to load route keys: %w", err)
	}

	rows, err := wh.Query(ctx, "SELECT customer_name, customer_key FROM dim_customer")
	if err != nil {
		return nil, fmt.Errorf("failed to load customer keys: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var key int64
		if err := rows.Scan(&name, &key); err != nil {
			return nil, fmt.Errorf("failed to scan customer key: %w", err)
		}
		r.customers[name] = key
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load customer keys: %w", err)
	}

	logging.Debug().
		Int("vehicles", len(r.vehicles)).
		Int("drivers", len(r.drivers)).
		Int("routes", len(r.routes)).
		Int("customers", len(r.customers)).
		Msg("Loaded dimension key mappings")

	return r, nil
}

func loadInt64Map(ctx context.Context, wh DB, sql string, dst map[int64]int64) error {
	rows, err := wh.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, key int64
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		dst[id] = key
	}
	return rows.Err()
}

// NewMapResolver builds a resolver from explicit mappings.
func NewMapResolver(vehicles, drivers, routes map[int64]int64, customers map[string]int64) *MapResolver {
	return &MapResolver{
		vehicles:  vehicles,
		drivers:   drivers,
		routes:    routes,
		customers: customers,
	}
}

func (r *MapResolver) VehicleKey(id int64) (int64, bool) {
	key, ok := r.vehicles[id]
	return key, ok
}

func (r *MapResolver) DriverKey(id int64) (int64, bool) {
	key, ok := r.drivers[id]
	return key, ok
}

func (r *MapResolver) RouteKey(id int64) (int64, bool) {
	key, ok := r.routes[id]
	return key, ok
}

func (r *MapResolver) CustomerKey(name string) (int64, bool) {
	key, ok := r.customers[name]
	return key, ok
}

// QueryResolver resolves each key with a point query. It is the escape
// hatch for dimensions too large to cache; lookup errors other than a
// plain miss are logged and treated as misses so a degraded warehouse
// still loads orphan-safe facts.
type QueryResolver struct {
	ctx context.Context
	wh  DB
}

// NewQueryResolver creates an on-demand resolver bound to a context.
func NewQueryResolver(ctx context.Context, wh DB) *QueryResolver {
	return &QueryResolver{ctx: ctx, wh: wh}
}

func (r *QueryResolver) lookup(sql string, arg any) (int64, bool) {
	var key int64
	err := r.wh.QueryRow(r.ctx, sql, arg).Scan(&key)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			logging.Warn().Err(err).Msg("Dimension key lookup failed")
		}
		return 0, false
	}
	return key, true
}

func (r *QueryResolver) VehicleKey(id int64) (int64, bool) {
	return r.lookup("SELECT vehicle_key FROM dim_vehicle WHERE vehicle_id = $1", id)
}

func (r *QueryResolver) DriverKey(id int64) (int64, bool) {
	return r.lookup("SELECT driver_key FROM dim_driver WHERE driver_id = $1 AND is_current = TRUE", id)
}

func (r *QueryResolver) RouteKey(id int64) (int64, bool) {
	return r.lookup("SELECT route_key FROM dim_route WHERE route_id = $1", id)
}

func (r *QueryResolver) CustomerKey(name string) (int64, bool) {
	return r.lookup("SELECT customer_key FROM dim_customer WHERE customer_name = $1", name)
}
