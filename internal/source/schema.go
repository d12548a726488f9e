package source

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for the operational database. Used by the seed command to
// stand up a demo source; production sources already have these tables.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS vehicles (
    vehicle_id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    license_plate    VARCHAR(10) NOT NULL,
    vehicle_type     VARCHAR(20) NOT NULL,
    capacity_kg      NUMERIC(8,2) NOT NULL,
    fuel_type        VARCHAR(20) NOT NULL,
    acquisition_date DATE NOT NULL,
    status           VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS drivers (
    driver_id      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    employee_code  VARCHAR(20) NOT NULL,
    first_name     VARCHAR(50) NOT NULL,
    last_name      VARCHAR(50) NOT NULL,
    license_number VARCHAR(20) NOT NULL,
    license_expiry DATE NOT NULL,
    phone          VARCHAR(20),
    hire_date      DATE NOT NULL,
    status         VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS routes (
    route_id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    route_code               VARCHAR(20) NOT NULL,
    origin_city              VARCHAR(100) NOT NULL,
    destination_city         VARCHAR(100) NOT NULL,
    distance_km              NUMERIC(8,2) NOT NULL,
    estimated_duration_hours NUMERIC(6,2) NOT NULL,
    toll_cost                NUMERIC(10,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
    trip_id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    vehicle_id            BIGINT NOT NULL REFERENCES vehicles(vehicle_id),
    driver_id             BIGINT NOT NULL REFERENCES drivers(driver_id),
    route_id              BIGINT NOT NULL REFERENCES routes(route_id),
    departure_datetime    TIMESTAMP NOT NULL,
    arrival_datetime      TIMESTAMP NOT NULL,
    fuel_consumed_liters  NUMERIC(8,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS deliveries (
    delivery_id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    trip_id             BIGINT NOT NULL REFERENCES trips(trip_id),
    tracking_number     VARCHAR(30) NOT NULL,
    customer_name       VARCHAR(100) NOT NULL,
    package_weight_kg   NUMERIC(8,2) NOT NULL,
    scheduled_datetime  TIMESTAMP NOT NULL,
    delivered_datetime  TIMESTAMP,
    delivery_status     VARCHAR(20) NOT NULL,
    recipient_signature BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_deliveries_scheduled ON deliveries(scheduled_datetime);
CREATE INDEX IF NOT EXISTS idx_deliveries_trip ON deliveries(trip_id);
CREATE INDEX IF NOT EXISTS idx_trips_route ON trips(route_id);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS deliveries CASCADE;
DROP TABLE IF EXISTS trips CASCADE;
DROP TABLE IF EXISTS routes CASCADE;
DROP TABLE IF EXISTS drivers CASCADE;
DROP TABLE IF EXISTS vehicles CASCADE;
`

// CreateSchema creates the operational schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the operational schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
