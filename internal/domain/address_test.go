package domain

import "testing"

func TestSortByDeliveryOrder(t *testing.T) {
	in := []Address{
		{ID: "unordered-a"},
		{ID: "third", DeliveryOrder: 3},
		{ID: "first", DeliveryOrder: 1},
		{ID: "unordered-b"},
		{ID: "second", DeliveryOrder: 2},
	}

	got := SortByDeliveryOrder(in)

	want := []string{"first", "second", "third", "unordered-a", "unordered-b"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, got[i].ID, id)
		}
	}
	if in[0].ID != "unordered-a" {
		t.Fatalf("input was modified")
	}
}

func TestRenumber(t *testing.T) {
	in := []Address{{ID: "a", DeliveryOrder: 3}, {ID: "b", DeliveryOrder: 1}}

	got := Renumber(in)
	if got[0].DeliveryOrder != 1 || got[1].DeliveryOrder != 2 {
		t.Fatalf("orders = %d, %d; want 1, 2", got[0].DeliveryOrder, got[1].DeliveryOrder)
	}
	if in[0].DeliveryOrder != 3 {
		t.Fatalf("input was modified")
	}
}

func TestAllDelivered(t *testing.T) {
	if AllDelivered(nil) {
		t.Fatalf("empty route should not count as delivered")
	}
	if AllDelivered([]Address{{Checked: true}, {Checked: false}}) {
		t.Fatalf("expected false with an unchecked stop")
	}
	if !AllDelivered([]Address{{Checked: true}, {Checked: true}}) {
		t.Fatalf("expected true when every stop is checked")
	}
}

func TestWaypoints(t *testing.T) {
	origin := Coordinates{Lat: 0, Lng: 0}
	stops := []Address{
		{ID: "b", DeliveryOrder: 2, Coordinates: &Coordinates{Lat: 2}},
		{ID: "pending"},
		{ID: "a", DeliveryOrder: 1, Coordinates: &Coordinates{Lat: 1}},
	}

	got := Waypoints(origin, stops, true)
	want := []Coordinates{origin, {Lat: 1}, {Lat: 2}, origin}
	if len(got) != len(want) {
		t.Fatalf("waypoints = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("waypoints = %v, want %v", got, want)
		}
	}

	if oneWay := Waypoints(origin, stops, false); len(oneWay) != 3 {
		t.Fatalf("one-way waypoints = %v, want 3 points", oneWay)
	}
}

func TestCoordinatesValid(t *testing.T) {
	if !(Coordinates{Lat: -23.55, Lng: -46.63}).Valid() {
		t.Fatalf("expected São Paulo to be valid")
	}
	if (Coordinates{Lat: 91}).Valid() || (Coordinates{Lng: -181}).Valid() {
		t.Fatalf("expected out-of-range coordinates to be invalid")
	}
}
