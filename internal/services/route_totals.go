package services

import (
	"math"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"time"
)

const DefaultAverageSpeedKmh = 40.0

// TotalDistance sums the legs origin -> stop1 -> ... -> stopN in the given
// order, plus stopN -> origin when returnToOrigin is set. It never reorders.
// Stops without coordinates are skipped.
func TotalDistance(origin domain.Coordinates, ordered []domain.Address, returnToOrigin bool, model ports.DistanceModel) float64 {
	if len(ordered) == 0 {
		return 0
	}

	total := 0.0
	prev := origin
	for _, s := range ordered {
		if s.Coordinates == nil {
			continue
		}
		total += model.Distance(prev, *s.Coordinates)
		prev = *s.Coordinates
	}

	if returnToOrigin {
		total += model.Distance(prev, origin)
	}

	return total
}

// EstimateDuration converts a distance to travel time at an assumed average speed.
func EstimateDuration(distanceKm, speedKmh float64) time.Duration {
	if distanceKm <= 0 || speedKmh <= 0 || math.IsInf(distanceKm, 0) || math.IsNaN(distanceKm) {
		return 0
	}
	hours := distanceKm / speedKmh
	return time.Duration(hours * float64(time.Hour))
}

// SplitDuration returns whole hours and rounded remaining minutes, with minutes < 60.
func SplitDuration(d time.Duration) (hours, minutes int) {
	if d <= 0 {
		return 0, 0
	}
	totalHours := d.Hours()
	hours = int(math.Floor(totalHours))
	minutes = int(math.Round((totalHours - float64(hours)) * 60))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return hours, minutes
}
