package ports

import "route-planner-service/internal/domain"

// Contract for the effective travel distance between two points.
type DistanceModel interface {
	// Return a non-negative, symmetric distance in kilometers.
	Distance(a, b domain.Coordinates) float64
}
