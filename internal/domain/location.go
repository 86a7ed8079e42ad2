package domain

import "time"

// Location is a resolved postal code or address.
type Location struct {
	Coordinates Coordinates
	Description string
}

// GeocodeMatch is one candidate returned by the free-text geocoding provider.
type GeocodeMatch struct {
	PlaceID          string      `json:"place_id,omitempty"`
	FormattedAddress string      `json:"formatted_address"`
	Location         Coordinates `json:"location"`
}

// Provider status values for free-text geocoding.
const (
	GeocodeStatusOK            = "OK"
	GeocodeStatusZeroResults   = "ZERO_RESULTS"
	GeocodeStatusUpstreamError = "UPSTREAM_ERROR"
)

// GeocodeResponse is the gateway's answer for one address.
// A non-OK Status with no Matches is a "not found", not a failure.
type GeocodeResponse struct {
	Status  string
	Matches []GeocodeMatch
}

func (r GeocodeResponse) Found() bool {
	return r.Status == GeocodeStatusOK && len(r.Matches) > 0
}

// CacheEntry is what geocode stores hold: either a positive result or a
// recorded negative one, stamped with the time it was stored.
type CacheEntry struct {
	Found    bool           `json:"found"`
	Status   string         `json:"status,omitempty"`
	Matches  []GeocodeMatch `json:"matches,omitempty"`
	StoredAt time.Time      `json:"stored_at"`
}

// Expired reports whether the entry is older than ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) > ttl
}

// RateRecord is a client's fixed-window request counter.
type RateRecord struct {
	Count       int
	WindowStart time.Time
	ResetAt     time.Time
}
