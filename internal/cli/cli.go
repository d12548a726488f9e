//-------------------------------------------------------------------------
//
// FleetLogix Warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for fleetetl.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/fleetlogix/fleetetl/internal/config"
	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/pkg/version"
)

var (
	// Global flags
	cfgFile   string
	sourceURL string
	whURL     string
	logLevel  string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "fleetetl",
		Short: "FleetLogix delivery warehouse ETL pipeline",
		Long: `fleetetl extracts completed deliveries from the FleetLogix
operational database, derives per-delivery performance metrics, and loads
them into a dimensional warehouse (star schema with date, time, vehicle,
driver, route, and customer dimensions).

One pass covers the most recent day of data present in the source. Runs
are idempotent: dimensions seed once, and re-running a day's window
replaces its fact rows instead of duplicating them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./fleetetl.yaml)")
	rootCmd.PersistentFlags().StringVar(&sourceURL, "source", "",
		"source PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&whURL, "warehouse", "",
		"warehouse PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(initWarehouseCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if sourceURL != "" {
		cfg.Source = sourceURL
	}
	if whURL != "" {
		cfg.Warehouse = whURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
