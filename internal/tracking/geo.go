// Package tracking implements the live-tracking request handlers:
// delivery status lookup, ETA estimation, and route deviation alerts.
// State lives in DynamoDB; the warehouse pipeline never touches it.
package tracking

import "math"

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" dynamodbav:"lat"`
	Lon float64 `json:"lon" dynamodbav:"lon"`
}

// kmPerDegree is the flat-earth approximation used for short distances.
const kmPerDegree = 111.0

// ApproxDistanceKm estimates the distance between two coordinates using
// a planar approximation (111 km per degree). Good enough at delivery
// scale; not a great-circle distance.
func ApproxDistanceKm(a, b Coordinate) float64 {
	latDiff := a.Lat - b.Lat
	lonDiff := a.Lon - b.Lon
	return math.Sqrt(latDiff*latDiff+lonDiff*lonDiff) * kmPerDegree
}

// MinDistanceKm returns the smallest distance from loc to any waypoint.
// The second return is false when there are no waypoints to compare.
func MinDistanceKm(loc Coordinate, waypoints []Coordinate) (float64, bool) {
	if len(waypoints) == 0 {
		return 0, false
	}
	min := math.Inf(1)
	for _, wp := range waypoints {
		if d := ApproxDistanceKm(loc, wp); d < min {
			min = d
		}
	}
	return min, true
}
