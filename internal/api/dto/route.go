package dto

import (
	"route-planner-service/internal/domain"
	"route-planner-service/internal/services"
)

type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

func (c Coordinates) toDomain() domain.Coordinates {
	return domain.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

type Stop struct {
	ID            string       `json:"id" validate:"max=64"`
	PostalCode    string       `json:"postal_code,omitempty"`
	Description   string       `json:"description,omitempty"`
	Location      *Coordinates `json:"location" validate:"required"`
	DeliveryOrder int          `json:"delivery_order"`
	Checked       bool         `json:"checked"`
}

func (s Stop) ToDomain() domain.Address {
	a := domain.Address{
		ID:            s.ID,
		PostalCode:    s.PostalCode,
		Description:   s.Description,
		DeliveryOrder: s.DeliveryOrder,
		Checked:       s.Checked,
	}
	if s.Location != nil {
		c := s.Location.toDomain()
		a.Coordinates = &c
	}
	return a
}

func NewStop(a domain.Address) Stop {
	s := Stop{
		ID:            a.ID,
		PostalCode:    a.PostalCode,
		Description:   a.Description,
		DeliveryOrder: a.DeliveryOrder,
		Checked:       a.Checked,
	}
	if a.Coordinates != nil {
		s.Location = &Coordinates{Lat: a.Coordinates.Lat, Lng: a.Coordinates.Lng}
	}
	return s
}

type OptimizeRequest struct {
	Origin         Stop   `json:"origin"`
	Stops          []Stop `json:"stops" validate:"max=200,dive"`
	ReturnToOrigin bool   `json:"return_to_origin"`
}

type PlanRequest struct {
	OriginPostalCode string   `json:"origin_postal_code" validate:"required"`
	PostalCodes      []string `json:"postal_codes" validate:"required,min=1,max=200"`
	ReturnToOrigin   bool     `json:"return_to_origin"`
}

type Duration struct {
	Hours   int     `json:"hours"`
	Minutes int     `json:"minutes"`
	Seconds float64 `json:"total_seconds"`
}

type RoutePlanResponse struct {
	Origin            Stop          `json:"origin"`
	Stops             []Stop        `json:"stops"`
	ReturnToOrigin    bool          `json:"return_to_origin"`
	TotalDistanceKm   float64       `json:"total_distance_km"`
	EstimatedDuration Duration      `json:"estimated_duration"`
	Waypoints         []Coordinates `json:"waypoints"`
}

func NewRoutePlanResponse(p domain.RoutePlan) RoutePlanResponse {
	stops := make([]Stop, 0, len(p.Stops))
	for _, s := range p.Stops {
		stops = append(stops, NewStop(s))
	}

	var waypoints []Coordinates
	if p.Origin.Coordinates != nil {
		for _, c := range domain.Waypoints(*p.Origin.Coordinates, p.Stops, p.ReturnToOrigin) {
			waypoints = append(waypoints, Coordinates{Lat: c.Lat, Lng: c.Lng})
		}
	}

	h, m := services.SplitDuration(p.EstimatedDuration)
	return RoutePlanResponse{
		Origin:            NewStop(p.Origin),
		Stops:             stops,
		ReturnToOrigin:    p.ReturnToOrigin,
		TotalDistanceKm:   p.TotalDistanceKm,
		EstimatedDuration: Duration{Hours: h, Minutes: m, Seconds: p.EstimatedDuration.Seconds()},
		Waypoints:         waypoints,
	}
}

type PlanResponse struct {
	Plan   RoutePlanResponse `json:"plan"`
	Failed []BatchItem       `json:"failed"`
}
