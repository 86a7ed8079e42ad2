package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// PostalRecord is a structured postal-code lookup result.
// Coordinates is nil when the provider has no position for the code.
type PostalRecord struct {
	PostalCode   string
	Street       string
	Neighborhood string
	City         string
	State        string
	Coordinates  *domain.Coordinates
}

// Port: structured postal-code database.
type PostalCodeProvider interface {
	Name() string
	// Return the record for a normalized code.
	// Fails with domain.ErrNotFound when the code does not exist and with
	// domain.ErrUpstreamUnavailable or domain.ErrUpstreamTimeout when the
	// provider cannot answer.
	Lookup(ctx context.Context, postalCode string) (PostalRecord, error)
}

// Port: free-text geocoding as seen by the resolver (through the gateway).
type AddressGeocoder interface {
	// A not-found address is a response with a non-OK status, not an error.
	// Rate limiting surfaces as an error matching domain.ErrRateLimited.
	Geocode(ctx context.Context, address string) (domain.GeocodeResponse, error)
}

// Port: the third-party geocoding provider behind the gateway.
type UpstreamGeocoder interface {
	// Whether the provider credential is configured.
	Configured() bool
	Geocode(ctx context.Context, address string) (domain.GeocodeResponse, error)
}
