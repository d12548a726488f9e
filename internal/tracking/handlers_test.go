package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func decodeBody(t *testing.T, resp Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", resp.Body, err)
	}
	return body
}

type fakeStatusStore struct {
	status *DeliveryStatus
	err    error
}

func (f *fakeStatusStore) GetDeliveryStatus(ctx context.Context, deliveryID string) (*DeliveryStatus, error) {
	return f.status, f.err
}

func TestStatusHandlerMissingID(t *testing.T) {
	h := NewStatusHandler(&fakeStatusStore{})

	resp, err := h.HandleRequest(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestStatusHandlerNotFound(t *testing.T) {
	h := NewStatusHandler(&fakeStatusStore{status: nil})

	resp, err := h.HandleRequest(context.Background(),
		json.RawMessage(`{"delivery_id":"D-404"}`))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["delivery_id"] != "D-404" {
		t.Errorf("Expected delivery_id echoed, got %v", body["delivery_id"])
	}
}

func TestStatusHandlerDelivered(t *testing.T) {
	h := NewStatusHandler(&fakeStatusStore{status: &DeliveryStatus{
		DeliveryID:     "D-1",
		TrackingNumber: "FLX-0000000001",
		Status:         "delivered",
		DeliveredAt:    "2024-03-15T10:20:00Z",
	}})

	resp, err := h.HandleRequest(context.Background(),
		json.RawMessage(`{"delivery_id":"D-1"}`))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["is_completed"] != true {
		t.Errorf("Expected is_completed true, got %v", body["is_completed"])
	}
	if body["status"] != "delivered" {
		t.Errorf("Expected status delivered, got %v", body["status"])
	}
	if body["tracking_number"] != "FLX-0000000001" {
		t.Errorf("Expected tracking number, got %v", body["tracking_number"])
	}
}

func TestStatusHandlerInTransit(t *testing.T) {
	h := NewStatusHandler(&fakeStatusStore{status: &DeliveryStatus{
		DeliveryID: "D-2",
		Status:     "in_transit",
	}})

	resp, _ := h.HandleRequest(context.Background(),
		json.RawMessage(`{"delivery_id":"D-2"}`))
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["is_completed"] != false {
		t.Errorf("Expected is_completed false, got %v", body["is_completed"])
	}
}

func TestStatusHandlerStoreError(t *testing.T) {
	h := NewStatusHandler(&fakeStatusStore{err: errors.New("dynamodb unavailable")})

	resp, err := h.HandleRequest(context.Background(),
		json.RawMessage(`{"delivery_id":"D-1"}`))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestStatusHandlerProxyEnvelope(t *testing.T) {
	h := NewStatusHandler(&fakeStatusStore{status: &DeliveryStatus{
		DeliveryID: "D-3",
		Status:     "delivered",
	}})

	// API Gateway proxy integration wraps the payload as a JSON string
	event := json.RawMessage(`{"body":"{\"delivery_id\":\"D-3\"}"}`)
	resp, err := h.HandleRequest(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

type fakeETAStore struct {
	snapshots []TrackingSnapshot
	err       error
}

func (f *fakeETAStore) PutTrackingSnapshot(ctx context.Context, snap TrackingSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func TestETAHandler(t *testing.T) {
	store := &fakeETAStore{}
	h := NewETAHandler(store)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	event := json.RawMessage(`{
		"vehicle_id": "V-1",
		"current_location": {"lat": 19.0, "lon": -99.0},
		"destination": {"lat": 20.0, "lon": -99.0},
		"current_speed_kmh": 55.5
	}`)

	resp, err := h.HandleRequest(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["distance_remaining_km"] != 111.0 {
		t.Errorf("Expected distance 111, got %v", body["distance_remaining_km"])
	}
	// 111 km at 55.5 km/h is exactly two hours
	if body["estimated_minutes"] != 120.0 {
		t.Errorf("Expected 120 minutes, got %v", body["estimated_minutes"])
	}
	wantETA := now.Add(2 * time.Hour).Format(time.RFC3339)
	if body["eta"] != wantETA {
		t.Errorf("Expected eta %s, got %v", wantETA, body["eta"])
	}

	if len(store.snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot persisted, got %d", len(store.snapshots))
	}
	snap := store.snapshots[0]
	if snap.VehicleID != "V-1" || snap.CurrentSpeedKmh != 55.5 {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}
	if snap.ETA != wantETA {
		t.Errorf("Expected snapshot ETA %s, got %s", wantETA, snap.ETA)
	}
}

func TestETAHandlerDefaultSpeed(t *testing.T) {
	store := &fakeETAStore{}
	h := NewETAHandler(store)

	event := json.RawMessage(`{
		"vehicle_id": "V-2",
		"current_location": {"lat": 0, "lon": 0},
		"destination": {"lat": 0, "lon": 0.5}
	}`)

	resp, _ := h.HandleRequest(context.Background(), event)
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if len(store.snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(store.snapshots))
	}
	if store.snapshots[0].CurrentSpeedKmh != defaultSpeedKmh {
		t.Errorf("Expected default speed %d, got %v",
			defaultSpeedKmh, store.snapshots[0].CurrentSpeedKmh)
	}
}

func TestETAHandlerZeroSpeed(t *testing.T) {
	store := &fakeETAStore{}
	h := NewETAHandler(store)

	event := json.RawMessage(`{
		"vehicle_id": "V-3",
		"current_location": {"lat": 0, "lon": 0},
		"destination": {"lat": 1, "lon": 0},
		"current_speed_kmh": 0
	}`)

	resp, _ := h.HandleRequest(context.Background(), event)
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["eta"] != "unavailable" {
		t.Errorf("Expected eta unavailable for stopped vehicle, got %v", body["eta"])
	}
	if body["estimated_minutes"] != nil {
		t.Errorf("Expected nil estimated_minutes, got %v", body["estimated_minutes"])
	}

	// The observation is still recorded
	if len(store.snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(store.snapshots))
	}
	if store.snapshots[0].ETA != "" {
		t.Errorf("Expected empty snapshot ETA, got %s", store.snapshots[0].ETA)
	}
}

func TestETAHandlerMissingFields(t *testing.T) {
	h := NewETAHandler(&fakeETAStore{})

	resp, _ := h.HandleRequest(context.Background(),
		json.RawMessage(`{"vehicle_id":"V-4"}`))
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

type fakeDeviationStore struct {
	waypoints []Coordinate
	found     bool
	err       error
	alerts    []DeviationAlert
}

func (f *fakeDeviationStore) GetRouteWaypoints(ctx context.Context, routeID string) ([]Coordinate, bool, error) {
	return f.waypoints, f.found, f.err
}

func (f *fakeDeviationStore) PutDeviationAlert(ctx context.Context, alert DeviationAlert) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

func deviationEvent(lat, lon float64) json.RawMessage {
	event := map[string]any{
		"vehicle_id":       "V-1",
		"route_id":         "R-1",
		"driver_id":        "DR-1",
		"current_location": Coordinate{Lat: lat, Lon: lon},
	}
	raw, _ := json.Marshal(event)
	return raw
}

func TestDeviationHandlerOnRoute(t *testing.T) {
	store := &fakeDeviationStore{
		waypoints: []Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}},
		found:     true,
	}
	h := NewDeviationHandler(store, 5)

	resp, err := h.HandleRequest(context.Background(), deviationEvent(0, 0.02))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["is_deviated"] != false {
		t.Errorf("Expected is_deviated false, got %v", body["is_deviated"])
	}
	if body["alert_sent"] != false {
		t.Errorf("Expected alert_sent false, got %v", body["alert_sent"])
	}
	if len(store.alerts) != 0 {
		t.Errorf("Expected no alerts persisted, got %d", len(store.alerts))
	}
}

func TestDeviationHandlerDeviated(t *testing.T) {
	store := &fakeDeviationStore{
		waypoints: []Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}},
		found:     true,
	}
	h := NewDeviationHandler(store, 5)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	// 0.1 degrees of longitude is ~11.1 km off route
	resp, err := h.HandleRequest(context.Background(), deviationEvent(0, 0.1))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["is_deviated"] != true {
		t.Errorf("Expected is_deviated true, got %v", body["is_deviated"])
	}
	if body["deviation_km"] != 11.1 {
		t.Errorf("Expected deviation_km 11.1, got %v", body["deviation_km"])
	}
	if body["alert_sent"] != true {
		t.Errorf("Expected alert_sent true, got %v", body["alert_sent"])
	}

	if len(store.alerts) != 1 {
		t.Fatalf("Expected 1 alert persisted, got %d", len(store.alerts))
	}
	alert := store.alerts[0]
	if alert.AlertType != "ROUTE_DEVIATION" {
		t.Errorf("Expected alert type ROUTE_DEVIATION, got %s", alert.AlertType)
	}
	if alert.RouteID != "R-1" || alert.DriverID != "DR-1" {
		t.Errorf("Unexpected alert identifiers: %+v", alert)
	}
	if alert.Timestamp != now.Format(time.RFC3339) {
		t.Errorf("Expected timestamp %s, got %s", now.Format(time.RFC3339), alert.Timestamp)
	}
}

func TestDeviationHandlerAtThreshold(t *testing.T) {
	store := &fakeDeviationStore{
		waypoints: []Coordinate{{Lat: 0, Lon: 0}},
		found:     true,
	}
	loc := Coordinate{Lat: 0, Lon: 0.05}
	// Threshold set to the exact distance: at the line is still on route
	threshold := ApproxDistanceKm(loc, store.waypoints[0])
	h := NewDeviationHandler(store, threshold)

	resp, _ := h.HandleRequest(context.Background(), deviationEvent(loc.Lat, loc.Lon))
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["is_deviated"] != false {
		t.Errorf("Expected vehicle exactly at threshold to be on route, got %v", body["is_deviated"])
	}
	if len(store.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(store.alerts))
	}
}

func TestDeviationHandlerNoWaypoints(t *testing.T) {
	// A route that exists but has no stored waypoints cannot be
	// deviated from: report on-route, record nothing.
	store := &fakeDeviationStore{waypoints: nil, found: true}
	h := NewDeviationHandler(store, 5)

	resp, err := h.HandleRequest(context.Background(), deviationEvent(10, 10))
	if err != nil {
		t.Fatalf("HandleRequest returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["is_deviated"] != false {
		t.Errorf("Expected is_deviated false, got %v", body["is_deviated"])
	}
	if body["deviation_km"] != 0.0 {
		t.Errorf("Expected deviation_km 0, got %v", body["deviation_km"])
	}
	if len(store.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(store.alerts))
	}
}

func TestDeviationHandlerRouteNotFound(t *testing.T) {
	h := NewDeviationHandler(&fakeDeviationStore{found: false}, 5)

	resp, _ := h.HandleRequest(context.Background(), deviationEvent(0, 0))
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestDeviationHandlerMissingFields(t *testing.T) {
	h := NewDeviationHandler(&fakeDeviationStore{found: true}, 5)

	resp, _ := h.HandleRequest(context.Background(),
		json.RawMessage(`{"vehicle_id":"V-1"}`))
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}
