package dto

import "route-planner-service/internal/domain"

// GeocodeResponse mirrors the Google Geocoding shape so existing clients keep working.
type GeocodeResponse struct {
	Status  string          `json:"status"`
	Results []GeocodeResult `json:"results"`
}

type GeocodeResult struct {
	PlaceID          string          `json:"place_id,omitempty"`
	FormattedAddress string          `json:"formatted_address"`
	Geometry         GeocodeGeometry `json:"geometry"`
}

type GeocodeGeometry struct {
	Location Coordinates `json:"location"`
}

func NewGeocodeResponse(resp domain.GeocodeResponse) GeocodeResponse {
	out := GeocodeResponse{Status: resp.Status, Results: make([]GeocodeResult, 0, len(resp.Matches))}
	for _, m := range resp.Matches {
		out.Results = append(out.Results, GeocodeResult{
			PlaceID:          m.PlaceID,
			FormattedAddress: m.FormattedAddress,
			Geometry:         GeocodeGeometry{Location: Coordinates{Lat: m.Location.Lat, Lng: m.Location.Lng}},
		})
	}
	return out
}

type ErrorResponse struct {
	Error   string `json:"error"`
	ResetIn *int   `json:"resetIn,omitempty"`
}
