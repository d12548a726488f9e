//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for fleetetl.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for fleetetl.
type Config struct {
	// Source is the operational (source) PostgreSQL connection string.
	Source string `mapstructure:"source"`

	// Warehouse is the dimensional warehouse connection string.
	Warehouse string `mapstructure:"warehouse"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// ETL holds the business parameters used by the transform and load stages.
	ETL ETLConfig `mapstructure:"etl"`

	// Schedule holds configuration for the schedule subcommand.
	Schedule ScheduleConfig `mapstructure:"schedule"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// ETLConfig holds the business parameters of the pipeline. These were
// implicit constants in earlier versions of the pipeline; they are
// configuration now so that a pricing change does not require a release.
type ETLConfig struct {
	// FuelCostPerLiter is the assumed fuel cost used for cost-per-delivery.
	FuelCostPerLiter float64 `mapstructure:"fuel_cost_per_liter"`

	// RevenueBase is the flat amount billed per delivery.
	RevenueBase float64 `mapstructure:"revenue_base"`

	// RevenuePerKg is the weight surcharge billed per kilogram.
	RevenuePerKg float64 `mapstructure:"revenue_per_kg"`

	// OnTimeThresholdMinutes is the maximum delay still counted as on time.
	OnTimeThresholdMinutes float64 `mapstructure:"on_time_threshold_minutes"`

	// MinPackageWeightKg and MaxPackageWeightKg bound the weight filter.
	// Rows at or outside the bounds are dropped, not corrected.
	MinPackageWeightKg float64 `mapstructure:"min_package_weight_kg"`
	MaxPackageWeightKg float64 `mapstructure:"max_package_weight_kg"`

	// DateDimStart and DateDimEnd bound the calendar covered by dim_date
	// (inclusive, YYYY-MM-DD).
	DateDimStart string `mapstructure:"date_dim_start"`
	DateDimEnd   string `mapstructure:"date_dim_end"`
}

// ScheduleConfig holds configuration for the daily schedule loop.
type ScheduleConfig struct {
	// At is the local time of day to run, in HH:MM.
	At string `mapstructure:"at"`
}

// SeedConfig holds configuration for demo source-database seeding.
type SeedConfig struct {
	Vehicles          int `mapstructure:"vehicles"`
	Drivers           int `mapstructure:"drivers"`
	Routes            int `mapstructure:"routes"`
	Days              int `mapstructure:"days"`
	TripsPerDay       int `mapstructure:"trips_per_day"`
	DeliveriesPerTrip int `mapstructure:"deliveries_per_trip"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		ETL: ETLConfig{
			FuelCostPerLiter:       5000,
			RevenueBase:            20000,
			RevenuePerKg:           500,
			OnTimeThresholdMinutes: 30,
			MinPackageWeightKg:     0,
			MaxPackageWeightKg:     10000,
			DateDimStart:           "2020-01-01",
			DateDimEnd:             "2030-12-31",
		},
		Schedule: ScheduleConfig{
			At: "02:00",
		},
		Seed: SeedConfig{
			Vehicles:          50,
			Drivers:           80,
			Routes:            30,
			Days:              7,
			TripsPerDay:       40,
			DeliveriesPerTrip: 8,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./fleetetl.yaml
// 3. ~/.config/fleetetl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("fleetetl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "fleetetl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Warehouse == "" {
		return fmt.Errorf("warehouse connection string is required")
	}
	return nil
}

// ValidateRun checks configuration required for a pipeline pass.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source == "" {
		return fmt.Errorf("source connection string is required")
	}
	if err := c.ETL.Validate(); err != nil {
		return err
	}
	return nil
}

// ValidateSchedule checks configuration required for the schedule loop.
func (c *Config) ValidateSchedule() error {
	if err := c.ValidateRun(); err != nil {
		return err
	}
	if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
		return fmt.Errorf("schedule time must be HH:MM: %w", err)
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if c.Source == "" {
		return fmt.Errorf("source connection string is required")
	}
	s := c.Seed
	if s.Vehicles < 1 || s.Drivers < 1 || s.Routes < 1 {
		return fmt.Errorf("seed counts must be at least 1")
	}
	if s.Days < 1 || s.TripsPerDay < 1 || s.DeliveriesPerTrip < 1 {
		return fmt.Errorf("seed volume settings must be at least 1")
	}
	return nil
}

// Validate checks the ETL business parameters.
func (e *ETLConfig) Validate() error {
	if e.FuelCostPerLiter < 0 {
		return fmt.Errorf("fuel_cost_per_liter must be non-negative")
	}
	if e.OnTimeThresholdMinutes < 0 {
		return fmt.Errorf("on_time_threshold_minutes must be non-negative")
	}
	if e.MaxPackageWeightKg <= e.MinPackageWeightKg {
		return fmt.Errorf("max_package_weight_kg must exceed min_package_weight_kg")
	}
	start, err := time.Parse("2006-01-02", e.DateDimStart)
	if err != nil {
		return fmt.Errorf("date_dim_start must be YYYY-MM-DD: %w", err)
	}
	end, err := time.Parse("2006-01-02", e.DateDimEnd)
	if err != nil {
		return fmt.Errorf("date_dim_end must be YYYY-MM-DD: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("date_dim_end must not precede date_dim_start")
	}
	return nil
}

// DateDimRange returns the parsed inclusive date dimension bounds.
// Validate must have been called first.
func (e *ETLConfig) DateDimRange() (time.Time, time.Time) {
	start, _ := time.Parse("2006-01-02", e.DateDimStart)
	end, _ := time.Parse("2006-01-02", e.DateDimEnd)
	return start, end
}
