package services

import (
	"math"
	"route-planner-service/internal/domain"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers.
func Haversine(a, b domain.Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push h just outside [0, 1] for near-antipodal points.
	h = math.Min(1, math.Max(0, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BarrierRegion marks two anchors between which straight-line distance
// understates real travel distance.
type BarrierRegion struct {
	Name     string
	AnchorA  domain.Coordinates
	AnchorB  domain.Coordinates
	Factor   float64
	RadiusKm float64
}

// DefaultBarriers is the table shipped when no config overrides it:
// Manaus and Porto Velho are linked by a single road through the forest (BR-319).
var DefaultBarriers = []BarrierRegion{
	{
		Name:     "manaus-porto-velho",
		AnchorA:  domain.Coordinates{Lat: -3.1190, Lng: -60.0217},
		AnchorB:  domain.Coordinates{Lat: -8.7612, Lng: -63.9004},
		Factor:   1.8,
		RadiusKm: 100,
	},
}

// crosses reports whether one endpoint is near AnchorA and the other near AnchorB, in either order.
func (r BarrierRegion) crosses(a, b domain.Coordinates) bool {
	near := func(p, anchor domain.Coordinates) bool {
		return Haversine(p, anchor) <= r.RadiusKm
	}
	return (near(a, r.AnchorA) && near(b, r.AnchorB)) ||
		(near(a, r.AnchorB) && near(b, r.AnchorA))
}

// GeoDistance is the barrier-aware DistanceModel.
// When several regions match, the largest factor is applied once.
type GeoDistance struct {
	Barriers []BarrierRegion
}

func NewGeoDistance(barriers []BarrierRegion) *GeoDistance {
	return &GeoDistance{Barriers: barriers}
}

func (g *GeoDistance) Distance(a, b domain.Coordinates) float64 {
	base := Haversine(a, b)
	if base == 0 {
		return 0
	}

	factor := 1.0
	for _, r := range g.Barriers {
		if r.Factor > factor && r.crosses(a, b) {
			factor = r.Factor
		}
	}

	return base * factor
}
