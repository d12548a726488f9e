// Package main is the Lambda entry point for route deviation checks.
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/tracking"
)

// defaultThresholdKm is how far a vehicle may stray from its route's
// waypoints before an alert is recorded.
const defaultThresholdKm = 5.0

func main() {
	ctx := context.Background()

	tables := tracking.DefaultTables()
	if t := os.Getenv("ROUTE_WAYPOINTS_TABLE"); t != "" {
		tables.RouteWaypoints = t
	}
	if t := os.Getenv("ALERTS_TABLE"); t != "" {
		tables.Alerts = t
	}

	threshold := defaultThresholdKm
	if v := os.Getenv("DEVIATION_THRESHOLD_KM"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			logging.Fatal().Str("value", v).Msg("Invalid DEVIATION_THRESHOLD_KM")
		}
		threshold = parsed
	}

	store, err := tracking.NewStore(ctx, tables)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create tracking store")
	}

	handler := tracking.NewDeviationHandler(store, threshold)
	lambda.Start(handler.HandleRequest)
}
