package services

import (
	"math"
	"route-planner-service/internal/domain"
	"testing"
	"time"
)

func TestTotalDistance(t *testing.T) {
	model := NewGeoDistance(nil)
	origin := domain.Coordinates{Lat: 0, Lng: 0}
	ordered := []domain.Address{stop("a", 1, 0), stop("b", 2, 0)}

	oneWay := TotalDistance(origin, ordered, false, model)
	want := Haversine(origin, *ordered[0].Coordinates) + Haversine(*ordered[0].Coordinates, *ordered[1].Coordinates)
	if math.Abs(oneWay-want) > 1e-9 {
		t.Fatalf("one way = %v, want %v", oneWay, want)
	}

	round := TotalDistance(origin, ordered, true, model)
	want += Haversine(*ordered[1].Coordinates, origin)
	if math.Abs(round-want) > 1e-9 {
		t.Fatalf("round trip = %v, want %v", round, want)
	}

	if got := TotalDistance(origin, nil, true, model); got != 0 {
		t.Fatalf("empty route = %v, want 0", got)
	}
}

func TestTotalDistanceDoesNotReorder(t *testing.T) {
	model := NewGeoDistance(nil)
	origin := domain.Coordinates{Lat: 0, Lng: 0}
	zigzag := []domain.Address{stop("far", 3, 0), stop("near", 1, 0)}

	got := TotalDistance(origin, zigzag, false, model)
	want := Haversine(origin, domain.Coordinates{Lat: 3}) + Haversine(domain.Coordinates{Lat: 3}, domain.Coordinates{Lat: 1})
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("total = %v, want %v", got, want)
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		km, speed float64
		want      time.Duration
	}{
		{40, 40, time.Hour},
		{60, 40, 90 * time.Minute},
		{0, 40, 0},
		{10, 0, 0},
		{-5, 40, 0},
	}

	for _, tt := range tests {
		if got := EstimateDuration(tt.km, tt.speed); got != tt.want {
			t.Fatalf("EstimateDuration(%v, %v) = %v, want %v", tt.km, tt.speed, got, tt.want)
		}
	}
}

func TestSplitDuration(t *testing.T) {
	tests := []struct {
		d              time.Duration
		hours, minutes int
	}{
		{0, 0, 0},
		{90 * time.Minute, 1, 30},
		{2*time.Hour + 59*time.Minute + 50*time.Second, 3, 0},
		{25 * time.Minute, 0, 25},
	}

	for _, tt := range tests {
		h, m := SplitDuration(tt.d)
		if h != tt.hours || m != tt.minutes {
			t.Fatalf("SplitDuration(%v) = %dh%dm, want %dh%dm", tt.d, h, m, tt.hours, tt.minutes)
		}
	}
}
