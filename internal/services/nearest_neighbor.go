package services

import (
	"fmt"
	"math"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"slices"
)

// OptimizeRoute orders stops with a greedy nearest-neighbor heuristic.
//
// Starting at origin, it repeatedly moves to the closest unvisited stop under
// model. Ties keep the earliest stop in input order. The result is a copy of
// stops with DeliveryOrder set to 1..n; the input is not modified.
// It does not attempt global optimization; n is expected to be small.
func OptimizeRoute(origin domain.Coordinates, stops []domain.Address, model ports.DistanceModel) ([]domain.Address, error) {
	for _, s := range stops {
		if s.Coordinates == nil {
			return nil, fmt.Errorf("optimize route: stop %q is not geocoded: %w", s.ID, domain.ErrInvalidInput)
		}
	}

	if len(stops) == 0 {
		return []domain.Address{}, nil
	}

	unvisited := slices.Clone(stops)
	ordered := make([]domain.Address, 0, len(stops))
	current := origin

	for len(unvisited) > 0 {
		nearest := 0
		shortest := math.Inf(1)

		// Strict comparison: the first stop scanned wins an exact tie.
		for i, s := range unvisited {
			d := model.Distance(current, *s.Coordinates)
			if d < shortest {
				shortest = d
				nearest = i
			}
		}

		next := unvisited[nearest]
		unvisited = slices.Delete(unvisited, nearest, nearest+1)
		ordered = append(ordered, next)
		current = *next.Coordinates
	}

	return domain.Renumber(ordered), nil
}
