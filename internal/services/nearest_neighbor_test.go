package services

import (
	"errors"
	"route-planner-service/internal/domain"
	"testing"
)

func stop(id string, lat, lng float64) domain.Address {
	return domain.Address{ID: id, PostalCode: id, Coordinates: &domain.Coordinates{Lat: lat, Lng: lng}}
}

func TestOptimizeRouteCollinear(t *testing.T) {
	origin := domain.Coordinates{Lat: 0, Lng: 0}
	stops := []domain.Address{
		stop("one", 1, 0),
		stop("three", 3, 0),
		stop("two", 2, 0),
	}

	got, err := OptimizeRoute(origin, stops, NewGeoDistance(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("expected %d stops, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("stop %d = %q, want %q", i, got[i].ID, id)
		}
		if got[i].DeliveryOrder != i+1 {
			t.Fatalf("stop %q order = %d, want %d", got[i].ID, got[i].DeliveryOrder, i+1)
		}
	}

	if stops[0].DeliveryOrder != 0 || stops[1].ID != "three" {
		t.Fatalf("input was modified: %+v", stops)
	}
}

func TestOptimizeRouteIsPermutation(t *testing.T) {
	origin := domain.Coordinates{Lat: -23.55, Lng: -46.63}
	stops := []domain.Address{
		stop("a", -23.60, -46.70),
		stop("b", -23.40, -46.50),
		stop("c", -23.55, -46.64),
		stop("d", -22.90, -43.17),
		stop("e", -23.70, -46.55),
		stop("f", -23.50, -46.90),
	}

	got, err := OptimizeRoute(origin, stops, NewGeoDistance(DefaultBarriers))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(stops) {
		t.Fatalf("expected %d stops, got %d", len(stops), len(got))
	}

	seen := map[string]bool{}
	for i, s := range got {
		if seen[s.ID] {
			t.Fatalf("stop %q appears twice", s.ID)
		}
		seen[s.ID] = true
		if s.DeliveryOrder != i+1 {
			t.Fatalf("stop %q order = %d, want %d", s.ID, s.DeliveryOrder, i+1)
		}
	}
	for _, s := range stops {
		if !seen[s.ID] {
			t.Fatalf("stop %q missing from output", s.ID)
		}
	}

	if got[0].ID != "c" {
		t.Fatalf("first stop = %q, want the closest stop c", got[0].ID)
	}
}

func TestOptimizeRouteTieKeepsInputOrder(t *testing.T) {
	origin := domain.Coordinates{Lat: 0, Lng: 0}
	stops := []domain.Address{
		stop("east", 0, 1),
		stop("west", 0, -1),
	}

	got, err := OptimizeRoute(origin, stops, NewGeoDistance(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != "east" {
		t.Fatalf("first stop = %q, want east", got[0].ID)
	}
}

func TestOptimizeRouteEdgeCases(t *testing.T) {
	origin := domain.Coordinates{Lat: 0, Lng: 0}
	model := NewGeoDistance(nil)

	got, err := OptimizeRoute(origin, nil, model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no stops, got %d", len(got))
	}

	got, err = OptimizeRoute(origin, []domain.Address{stop("only", 5, 5)}, model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DeliveryOrder != 1 {
		t.Fatalf("single stop = %+v, want order 1", got)
	}

	_, err = OptimizeRoute(origin, []domain.Address{stop("ok", 1, 1), {ID: "pending"}}, model)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for ungeocoded stop, got %v", err)
	}
}
