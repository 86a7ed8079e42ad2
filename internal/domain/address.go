package domain

import "slices"

// Address is a single delivery stop.
// Coordinates is nil until the stop has been geocoded; only geocoded
// stops take part in route optimization.
type Address struct {
	ID            string
	PostalCode    string
	Coordinates   *Coordinates
	Description   string
	DeliveryOrder int // 1-based; 0 means "not yet ordered"
	Checked       bool
}

func (a Address) IsGeocoded() bool { return a.Coordinates != nil }

// SortByDeliveryOrder returns a copy of addresses ordered by DeliveryOrder.
// Ordered stops come first; stops without an order keep their relative input order.
func SortByDeliveryOrder(addresses []Address) []Address {
	out := slices.Clone(addresses)
	slices.SortStableFunc(out, func(a, b Address) int {
		switch {
		case a.DeliveryOrder > 0 && b.DeliveryOrder > 0:
			return a.DeliveryOrder - b.DeliveryOrder
		case a.DeliveryOrder > 0:
			return -1
		case b.DeliveryOrder > 0:
			return 1
		}
		return 0
	})
	return out
}

// Renumber assigns DeliveryOrder 1..n following the slice order.
// Used after a manual reorder; the input is not modified.
func Renumber(addresses []Address) []Address {
	out := slices.Clone(addresses)
	for i := range out {
		out[i].DeliveryOrder = i + 1
	}
	return out
}

// AllDelivered reports whether there is at least one stop and every stop is checked.
func AllDelivered(addresses []Address) bool {
	if len(addresses) == 0 {
		return false
	}
	for _, a := range addresses {
		if !a.Checked {
			return false
		}
	}
	return true
}
