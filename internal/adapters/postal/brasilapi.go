package postal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/httpclient"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strconv"
	"strings"
)

const DefaultBrasilAPIURL = "https://brasilapi.com.br/api/cep/v2"

type brasilAPIResponse struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	Location     struct {
		Coordinates struct {
			Longitude string `json:"longitude"`
			Latitude  string `json:"latitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

// BrasilAPI looks up CEPs through BrasilAPI v2, which sometimes includes coordinates.
type BrasilAPI struct {
	client  *httpclient.Client
	baseURL string
}

func NewBrasilAPI(client *httpclient.Client, baseURL string) *BrasilAPI {
	if baseURL == "" {
		baseURL = DefaultBrasilAPIURL
	}
	return &BrasilAPI{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *BrasilAPI) Name() string { return "brasilapi" }

func (b *BrasilAPI) Lookup(ctx context.Context, postalCode string) (_ ports.PostalRecord, err error) {
	defer obs.Time(ctx, "brasilapi.Lookup")(&err)
	defer countCall(b.Name(), &err)

	var data brasilAPIResponse
	if err := b.client.GetJSON(ctx, b.baseURL+"/"+postalCode, &data); err != nil {
		// BrasilAPI answers 400 for codes it considers malformed.
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			return ports.PostalRecord{}, fmt.Errorf("brasilapi %s: %w", postalCode, domain.ErrNotFound)
		}
		return ports.PostalRecord{}, fmt.Errorf("brasilapi %s: %w", postalCode, err)
	}

	rec := ports.PostalRecord{
		PostalCode:   postalCode,
		Street:       data.Street,
		Neighborhood: data.Neighborhood,
		City:         data.City,
		State:        data.State,
		Coordinates:  parseCoordinates(data.Location.Coordinates.Latitude, data.Location.Coordinates.Longitude),
	}
	return rec, nil
}

// parseCoordinates returns nil unless both values parse to a valid pair.
func parseCoordinates(lat, lng string) *domain.Coordinates {
	if strings.TrimSpace(lat) == "" || strings.TrimSpace(lng) == "" {
		return nil
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return nil
	}
	c := domain.Coordinates{Lat: la, Lng: lo}
	if !c.Valid() {
		return nil
	}
	return &c
}

func countCall(provider string, errp *error) {
	outcome := "ok"
	switch err := *errp; {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	obs.UpstreamCalls.WithLabelValues(provider, outcome).Inc()
}
