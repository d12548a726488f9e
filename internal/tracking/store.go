package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Tables names the DynamoDB tables the tracking handlers use.
type Tables struct {
	DeliveryStatus  string
	VehicleTracking string
	RouteWaypoints  string
	Alerts          string
}

// DefaultTables returns the standard table names.
func DefaultTables() Tables {
	return Tables{
		DeliveryStatus:  "deliveries_status",
		VehicleTracking: "vehicle_tracking",
		RouteWaypoints:  "routes_waypoints",
		Alerts:          "alerts_history",
	}
}

// Store handles DynamoDB access for the tracking handlers.
type Store struct {
	client *dynamodb.Client
	tables Tables
}

// NewStore creates a store using the default AWS configuration.
func NewStore(ctx context.Context, tables Tables) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Store{
		client: dynamodb.NewFromConfig(cfg),
		tables: tables,
	}, nil
}

// DeliveryStatus is the live completion state of one delivery.
type DeliveryStatus struct {
	DeliveryID     string `json:"delivery_id" dynamodbav:"delivery_id"`
	TrackingNumber string `json:"tracking_number" dynamodbav:"tracking_number"`
	Status         string `json:"status" dynamodbav:"status"`
	DeliveredAt    string `json:"delivered_datetime,omitempty" dynamodbav:"delivered_datetime,omitempty"`
}

// GetDeliveryStatus looks up a delivery by id. Returns nil when the
// delivery is unknown.
func (s *Store) GetDeliveryStatus(ctx context.Context, deliveryID string) (*DeliveryStatus, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.DeliveryStatus),
		Key: map[string]types.AttributeValue{
			"delivery_id": &types.AttributeValueMemberS{Value: deliveryID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery status: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var status DeliveryStatus
	if err := attributevalue.UnmarshalMap(result.Item, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal delivery status: %w", err)
	}
	return &status, nil
}

// TrackingSnapshot is one persisted position/ETA observation.
type TrackingSnapshot struct {
	VehicleID           string     `json:"vehicle_id" dynamodbav:"vehicle_id"`
	Timestamp           string     `json:"timestamp" dynamodbav:"timestamp"`
	CurrentLocation     Coordinate `json:"current_location" dynamodbav:"current_location"`
	Destination         Coordinate `json:"destination" dynamodbav:"destination"`
	DistanceRemainingKm float64    `json:"distance_remaining_km" dynamodbav:"distance_remaining_km"`
	ETA                 string     `json:"eta,omitempty" dynamodbav:"eta,omitempty"`
	CurrentSpeedKmh     float64    `json:"current_speed_kmh" dynamodbav:"current_speed_kmh"`
}

// PutTrackingSnapshot stores a tracking snapshot.
func (s *Store) PutTrackingSnapshot(ctx context.Context, snap TrackingSnapshot) error {
	item, err := attributevalue.MarshalMap(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking snapshot: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.VehicleTracking),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put tracking snapshot: %w", err)
	}
	return nil
}

type routeWaypoints struct {
	RouteID   string       `dynamodbav:"route_id"`
	Waypoints []Coordinate `dynamodbav:"waypoints"`
}

// GetRouteWaypoints returns the stored waypoints for a route. The bool
// reports whether the route exists at all.
func (s *Store) GetRouteWaypoints(ctx context.Context, routeID string) ([]Coordinate, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.RouteWaypoints),
		Key: map[string]types.AttributeValue{
			"route_id": &types.AttributeValueMemberS{Value: routeID},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get route waypoints: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var route routeWaypoints
	if err := attributevalue.UnmarshalMap(result.Item, &route); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal route waypoints: %w", err)
	}
	return route.Waypoints, true, nil
}

// DeviationAlert is one persisted route-deviation event.
type DeviationAlert struct {
	VehicleID       string     `json:"vehicle_id" dynamodbav:"vehicle_id"`
	Timestamp       string     `json:"timestamp" dynamodbav:"timestamp"`
	DriverID        string     `json:"driver_id,omitempty" dynamodbav:"driver_id,omitempty"`
	RouteID         string     `json:"route_id" dynamodbav:"route_id"`
	DeviationKm     float64    `json:"deviation_km" dynamodbav:"deviation_km"`
	CurrentLocation Coordinate `json:"current_location" dynamodbav:"current_location"`
	AlertType       string     `json:"alert_type" dynamodbav:"alert_type"`
}

// PutDeviationAlert stores a deviation alert.
func (s *Store) PutDeviationAlert(ctx context.Context, alert DeviationAlert) error {
	item, err := attributevalue.MarshalMap(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal deviation alert: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Alerts),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put deviation alert: %w", err)
	}
	return nil
}

// NowUTC returns the current UTC time formatted for storage.
func NowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
