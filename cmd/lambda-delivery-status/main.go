// Package main is the Lambda entry point for delivery status lookups.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/fleetlogix/fleetetl/internal/logging"
	"github.com/fleetlogix/fleetetl/internal/tracking"
)

func main() {
	ctx := context.Background()

	tables := tracking.DefaultTables()
	if t := os.Getenv("DELIVERY_STATUS_TABLE"); t != "" {
		tables.DeliveryStatus = t
	}

	store, err := tracking.NewStore(ctx, tables)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create tracking store")
	}

	handler := tracking.NewStatusHandler(store)
	lambda.Start(handler.HandleRequest)
}
