package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/httpclient"
	"route-planner-service/internal/platform/obs"
	"strings"
)

const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder calls the Google Geocoding API.
//
// Answers that are not usable (non-2xx, or a status other than OK) are
// returned as a response without matches, so callers cache them like any
// other "not found". Only transport failures are errors.
type GoogleGeocoder struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

func NewGoogleGeocoder(client *httpclient.Client, baseURL, apiKey string) *GoogleGeocoder {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &GoogleGeocoder{client: client, baseURL: baseURL, apiKey: strings.TrimSpace(apiKey)}
}

func (g *GoogleGeocoder) Configured() bool { return g.apiKey != "" }

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (_ domain.GeocodeResponse, err error) {
	defer obs.Time(ctx, "google.Geocode")(&err)

	if !g.Configured() {
		return domain.GeocodeResponse{}, fmt.Errorf("google geocode: api key is not set: %w", domain.ErrConfiguration)
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "?" + q.Encode()

	var data wireResponse
	err = g.client.GetJSON(ctx, endpoint, &data)

	var se *httpclient.StatusError
	switch {
	case err == nil:
	case errors.As(err, &se) && !errors.Is(err, domain.ErrUpstreamTimeout):
		obs.UpstreamCalls.WithLabelValues("google", "http_error").Inc()
		slog.WarnContext(ctx, "google geocode returned an error status", "req_id", obs.RequestID(ctx), "code", se.Code)
		return domain.GeocodeResponse{Status: domain.GeocodeStatusUpstreamError}, nil
	case errors.Is(err, domain.ErrUpstreamTimeout):
		obs.UpstreamCalls.WithLabelValues("google", "timeout").Inc()
		return domain.GeocodeResponse{}, fmt.Errorf("google geocode: %w", redact(err, g.apiKey))
	default:
		obs.UpstreamCalls.WithLabelValues("google", "error").Inc()
		// The URL carries the key; keep it out of the error text.
		return domain.GeocodeResponse{}, fmt.Errorf("google geocode: %w", redact(err, g.apiKey))
	}

	if data.Status != domain.GeocodeStatusOK {
		obs.UpstreamCalls.WithLabelValues("google", "not_ok").Inc()
		slog.WarnContext(ctx, "google geocode status not OK",
			"req_id", obs.RequestID(ctx), "status", data.Status, "message", data.ErrorMessage)
		status := data.Status
		if status == "" {
			status = domain.GeocodeStatusUpstreamError
		}
		return domain.GeocodeResponse{Status: status}, nil
	}

	obs.UpstreamCalls.WithLabelValues("google", "ok").Inc()
	return data.toDomain(), nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "REDACTED"), err: errors.Unwrap(err)}
}
