package domain

import "time"

// Represents an optimized visiting order starting at Origin.
// A RoutePlan is ephemeral planning output and is never persisted.
type RoutePlan struct {
	Origin            Address
	Stops             []Address
	ReturnToOrigin    bool
	TotalDistanceKm   float64
	EstimatedDuration time.Duration
}

// Waypoints returns the points a renderer should draw, in visiting order:
// origin, stops sorted by delivery order, and origin again when returning.
// Stops without coordinates are skipped.
func Waypoints(origin Coordinates, stops []Address, returnToOrigin bool) []Coordinates {
	sorted := SortByDeliveryOrder(stops)

	points := make([]Coordinates, 0, len(sorted)+2)
	points = append(points, origin)
	for _, s := range sorted {
		if s.Coordinates == nil {
			continue
		}
		points = append(points, *s.Coordinates)
	}

	if returnToOrigin {
		points = append(points, origin)
	}

	return points
}
