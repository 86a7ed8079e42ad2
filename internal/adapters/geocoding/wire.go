package geocoding

import "route-planner-service/internal/domain"

// wireResponse is the Google Geocoding JSON shape. The gateway's /geocode
// endpoint answers in the same shape.
type wireResponse struct {
	Status       string       `json:"status"`
	Results      []wireResult `json:"results"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

type wireResult struct {
	PlaceID          string `json:"place_id"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (w wireResponse) toDomain() domain.GeocodeResponse {
	out := domain.GeocodeResponse{Status: w.Status}
	for _, r := range w.Results {
		out.Matches = append(out.Matches, domain.GeocodeMatch{
			PlaceID:          r.PlaceID,
			FormattedAddress: r.FormattedAddress,
			Location:         domain.Coordinates{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		})
	}
	return out
}
