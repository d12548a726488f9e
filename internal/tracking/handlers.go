package tracking

import (
	"context"
	"encoding/json"
	"math"
	"time"
)

// Response is the API Gateway proxy response shape shared by all three
// handlers.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// parseEventBody extracts the request payload. API Gateway proxy
// integration wraps it as a JSON string under "body"; direct invocation
// sends the payload as the event itself.
func parseEventBody(event json.RawMessage) json.RawMessage {
	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(event, &envelope); err == nil && len(envelope.Body) > 0 {
		var s string
		if json.Unmarshal(envelope.Body, &s) == nil {
			return json.RawMessage(s)
		}
		return envelope.Body
	}
	return event
}

func jsonResponse(statusCode int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{StatusCode: 500, Body: `{"error":"failed to encode response"}`}
	}
	return Response{StatusCode: statusCode, Body: string(body)}
}

func errorResponse(statusCode int, msg string) Response {
	return jsonResponse(statusCode, map[string]string{"error": msg})
}

type statusStore interface {
	GetDeliveryStatus(ctx context.Context, deliveryID string) (*DeliveryStatus, error)
}

// StatusHandler answers delivery completion lookups.
type StatusHandler struct {
	store statusStore
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(store statusStore) *StatusHandler {
	return &StatusHandler{store: store}
}

// HandleRequest looks up a delivery's live status by id.
func (h *StatusHandler) HandleRequest(ctx context.Context, event json.RawMessage) (Response, error) {
	var req struct {
		DeliveryID     string `json:"delivery_id"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := json.Unmarshal(parseEventBody(event), &req); err != nil {
		return errorResponse(400, "invalid request body"), nil
	}
	if req.DeliveryID == "" {
		return errorResponse(400, "delivery_id is required"), nil
	}

	status, err := h.store.GetDeliveryStatus(ctx, req.DeliveryID)
	if err != nil {
		return errorResponse(500, err.Error()), nil
	}
	if status == nil {
		return jsonResponse(404, map[string]string{
			"error":       "delivery not found",
			"delivery_id": req.DeliveryID,
		}), nil
	}

	return jsonResponse(200, map[string]any{
		"delivery_id":        req.DeliveryID,
		"tracking_number":    status.TrackingNumber,
		"is_completed":       status.Status == "delivered",
		"status":             status.Status,
		"delivered_datetime": status.DeliveredAt,
	}), nil
}

// defaultSpeedKmh is assumed when the request omits the current speed.
const defaultSpeedKmh = 60

type etaStore interface {
	PutTrackingSnapshot(ctx context.Context, snap TrackingSnapshot) error
}

// ETAHandler estimates arrival time from position, destination, and
// speed, and persists the observation.
type ETAHandler struct {
	store etaStore
	now   func() time.Time
}

// NewETAHandler creates an ETA handler.
func NewETAHandler(store etaStore) *ETAHandler {
	return &ETAHandler{store: store, now: time.Now}
}

// HandleRequest computes remaining distance and ETA for a vehicle.
// A non-positive speed yields no ETA but the snapshot still persists.
func (h *ETAHandler) HandleRequest(ctx context.Context, event json.RawMessage) (Response, error) {
	var req struct {
		VehicleID       string      `json:"vehicle_id"`
		CurrentLocation *Coordinate `json:"current_location"`
		Destination     *Coordinate `json:"destination"`
		CurrentSpeedKmh *float64    `json:"current_speed_kmh"`
	}
	if err := json.Unmarshal(parseEventBody(event), &req); err != nil {
		return errorResponse(400, "invalid request body"), nil
	}
	if req.VehicleID == "" || req.CurrentLocation == nil || req.Destination == nil {
		return errorResponse(400, "vehicle_id, current_location and destination are required"), nil
	}

	speed := float64(defaultSpeedKmh)
	if req.CurrentSpeedKmh != nil {
		speed = *req.CurrentSpeedKmh
	}

	distance := round2(ApproxDistanceKm(*req.CurrentLocation, *req.Destination))

	now := h.now().UTC()
	var eta string
	var estimatedMinutes any
	if speed > 0 {
		hours := distance / speed
		eta = now.Add(time.Duration(hours * float64(time.Hour))).Format(time.RFC3339)
		estimatedMinutes = int(math.Round(hours * 60))
	}

	snap := TrackingSnapshot{
		VehicleID:           req.VehicleID,
		Timestamp:           now.Format(time.RFC3339),
		CurrentLocation:     *req.CurrentLocation,
		Destination:         *req.Destination,
		DistanceRemainingKm: distance,
		ETA:                 eta,
		CurrentSpeedKmh:     speed,
	}
	if err := h.store.PutTrackingSnapshot(ctx, snap); err != nil {
		return errorResponse(500, err.Error()), nil
	}

	etaField := "unavailable"
	if eta != "" {
		etaField = eta
	}
	return jsonResponse(200, map[string]any{
		"vehicle_id":            req.VehicleID,
		"distance_remaining_km": distance,
		"eta":                   etaField,
		"estimated_minutes":     estimatedMinutes,
	}), nil
}

type deviationStore interface {
	GetRouteWaypoints(ctx context.Context, routeID string) ([]Coordinate, bool, error)
	PutDeviationAlert(ctx context.Context, alert DeviationAlert) error
}

// DeviationHandler checks a vehicle's position against its route's
// waypoints and records an alert when it strays too far.
type DeviationHandler struct {
	store       deviationStore
	thresholdKm float64
	now         func() time.Time
}

// NewDeviationHandler creates a deviation handler with the given alert
// threshold in kilometers.
func NewDeviationHandler(store deviationStore, thresholdKm float64) *DeviationHandler {
	return &DeviationHandler{store: store, thresholdKm: thresholdKm, now: time.Now}
}

// HandleRequest reports whether the vehicle has deviated from its
// route. Deviation means strictly beyond the threshold; a vehicle
// exactly at the threshold is still on route.
func (h *DeviationHandler) HandleRequest(ctx context.Context, event json.RawMessage) (Response, error) {
	var req struct {
		VehicleID       string      `json:"vehicle_id"`
		CurrentLocation *Coordinate `json:"current_location"`
		RouteID         string      `json:"route_id"`
		DriverID        string      `json:"driver_id"`
	}
	if err := json.Unmarshal(parseEventBody(event), &req); err != nil {
		return errorResponse(400, "invalid request body"), nil
	}
	if req.VehicleID == "" || req.CurrentLocation == nil || req.RouteID == "" {
		return errorResponse(400, "vehicle_id, current_location and route_id are required"), nil
	}

	waypoints, found, err := h.store.GetRouteWaypoints(ctx, req.RouteID)
	if err != nil {
		return errorResponse(500, err.Error()), nil
	}
	if !found {
		return errorResponse(404, "route not found"), nil
	}

	minDistance, ok := MinDistanceKm(*req.CurrentLocation, waypoints)
	isDeviated := ok && minDistance > h.thresholdKm
	deviation := round2(minDistance)

	if isDeviated {
		alert := DeviationAlert{
			VehicleID:       req.VehicleID,
			Timestamp:       h.now().UTC().Format(time.RFC3339),
			DriverID:        req.DriverID,
			RouteID:         req.RouteID,
			DeviationKm:     deviation,
			CurrentLocation: *req.CurrentLocation,
			AlertType:       "ROUTE_DEVIATION",
		}
		if err := h.store.PutDeviationAlert(ctx, alert); err != nil {
			return errorResponse(500, err.Error()), nil
		}
	}

	return jsonResponse(200, map[string]any{
		"vehicle_id":   req.VehicleID,
		"is_deviated":  isDeviated,
		"deviation_km": deviation,
		"alert_sent":   isDeviated,
		"threshold_km": h.thresholdKm,
	}), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
