// Package warehouse implements the dimensional model: star-schema DDL,
// dimension seeding, surrogate key resolution, and fact loading.
package warehouse

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is an interface that both *pgxpool.Pool and *pgx.Conn satisfy.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema SQL for the dimensional warehouse.
//
// Fact rows reference dimensions through nullable surrogate keys with no
// FK constraints: an unresolved natural key loads as NULL rather than
// failing the batch. Fact loading deletes by delivery id before insert;
// the unique index on (delivery_id, date_key) backstops that against a
// concurrent run slipping a duplicate in between.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS dim_date (
    date_key       INTEGER PRIMARY KEY,
    full_date      DATE NOT NULL,
    day_of_week    SMALLINT NOT NULL,
    day_name       VARCHAR(10) NOT NULL,
    day_of_month   SMALLINT NOT NULL,
    day_of_year    SMALLINT NOT NULL,
    week_of_year   SMALLINT NOT NULL,
    month_num      SMALLINT NOT NULL,
    month_name     VARCHAR(10) NOT NULL,
    quarter        SMALLINT NOT NULL,
    year           SMALLINT NOT NULL,
    is_weekend     BOOLEAN NOT NULL,
    is_holiday     BOOLEAN NOT NULL,
    fiscal_quarter SMALLINT NOT NULL,
    fiscal_year    SMALLINT NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_time (
    time_key         INTEGER PRIMARY KEY,
    hour             SMALLINT NOT NULL,
    minute           SMALLINT NOT NULL,
    second           SMALLINT NOT NULL,
    time_of_day      VARCHAR(10) NOT NULL,
    hour_24          CHAR(5) NOT NULL,
    hour_12          VARCHAR(8) NOT NULL,
    am_pm            CHAR(2) NOT NULL,
    is_business_hour BOOLEAN NOT NULL,
    shift            VARCHAR(10) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_vehicle (
    vehicle_key      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    vehicle_id       BIGINT NOT NULL,
    license_plate    VARCHAR(10) NOT NULL,
    vehicle_type     VARCHAR(20) NOT NULL,
    capacity_kg      NUMERIC(8,2) NOT NULL,
    fuel_type        VARCHAR(20) NOT NULL,
    acquisition_date DATE NOT NULL,
    status           VARCHAR(20) NOT NULL,
    valid_from       DATE NOT NULL,
    valid_to         DATE NOT NULL,
    is_current       BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_driver (
    driver_key           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    driver_id            BIGINT NOT NULL,
    employee_code        VARCHAR(20) NOT NULL,
    full_name            VARCHAR(101) NOT NULL,
    license_number       VARCHAR(20) NOT NULL,
    license_expiry       DATE NOT NULL,
    phone                VARCHAR(20),
    hire_date            DATE NOT NULL,
    experience_months    INTEGER NOT NULL,
    status               VARCHAR(20) NOT NULL,
    performance_category VARCHAR(20) NOT NULL,
    valid_from           DATE NOT NULL,
    valid_to             DATE NOT NULL,
    is_current           BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_route (
    route_key                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    route_id                 BIGINT NOT NULL,
    route_code               VARCHAR(20) NOT NULL,
    origin_city              VARCHAR(100) NOT NULL,
    destination_city         VARCHAR(100) NOT NULL,
    distance_km              NUMERIC(8,2) NOT NULL,
    estimated_duration_hours NUMERIC(6,2) NOT NULL,
    toll_cost                NUMERIC(10,2) NOT NULL,
    difficulty_level         VARCHAR(10) NOT NULL,
    route_type               VARCHAR(10) NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_customer (
    customer_key        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    customer_name       VARCHAR(100) NOT NULL,
    customer_type       VARCHAR(20) NOT NULL,
    city                VARCHAR(100) NOT NULL,
    first_delivery_date DATE NOT NULL,
    total_deliveries    INTEGER NOT NULL,
    customer_category   VARCHAR(20) NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_dim_customer_name
    ON dim_customer(customer_name);

CREATE TABLE IF NOT EXISTS fact_deliveries (
    fact_key                     BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    date_key                     INTEGER NOT NULL,
    scheduled_time_key           INTEGER,
    delivered_time_key           INTEGER,
    vehicle_key                  BIGINT,
    driver_key                   BIGINT,
    route_key                    BIGINT,
    customer_key                 BIGINT,
    delivery_id                  BIGINT NOT NULL,
    trip_id                      BIGINT NOT NULL,
    tracking_number              VARCHAR(30) NOT NULL,
    package_weight_kg            DOUBLE PRECISION NOT NULL,
    distance_km                  DOUBLE PRECISION NOT NULL,
    fuel_consumed_liters         DOUBLE PRECISION NOT NULL,
    delivery_time_minutes        DOUBLE PRECISION NOT NULL,
    delay_minutes                DOUBLE PRECISION NOT NULL,
    deliveries_per_hour          DOUBLE PRECISION,
    fuel_efficiency_km_per_liter DOUBLE PRECISION,
    cost_per_delivery            DOUBLE PRECISION NOT NULL,
    revenue_per_delivery         DOUBLE PRECISION NOT NULL,
    is_on_time                   BOOLEAN NOT NULL,
    is_damaged                   BOOLEAN NOT NULL,
    has_signature                BOOLEAN NOT NULL,
    delivery_status              VARCHAR(20) NOT NULL,
    etl_batch_id                 BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_fact_deliveries_delivery_date
    ON fact_deliveries(delivery_id, date_key);
CREATE INDEX IF NOT EXISTS idx_fact_deliveries_date ON fact_deliveries(date_key);
CREATE INDEX IF NOT EXISTS idx_fact_deliveries_batch ON fact_deliveries(etl_batch_id);

CREATE TABLE IF NOT EXISTS daily_delivery_totals (
    date_key           INTEGER PRIMARY KEY,
    total_deliveries   INTEGER NOT NULL,
    on_time_deliveries INTEGER NOT NULL,
    total_delayed      INTEGER NOT NULL,
    avg_delay_minutes  DOUBLE PRECISION,
    total_revenue      DOUBLE PRECISION NOT NULL,
    total_cost         DOUBLE PRECISION NOT NULL,
    etl_batch_id       BIGINT NOT NULL,
    etl_timestamp      TIMESTAMPTZ NOT NULL
);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS daily_delivery_totals CASCADE;
DROP TABLE IF EXISTS fact_deliveries CASCADE;
DROP TABLE IF EXISTS dim_customer CASCADE;
DROP TABLE IF EXISTS dim_route CASCADE;
DROP TABLE IF EXISTS dim_driver CASCADE;
DROP TABLE IF EXISTS dim_vehicle CASCADE;
DROP TABLE IF EXISTS dim_time CASCADE;
DROP TABLE IF EXISTS dim_date CASCADE;
DROP TABLE IF EXISTS etl_batch_runs CASCADE;
`

// CreateSchema creates the warehouse schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the warehouse schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
