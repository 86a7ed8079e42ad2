package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/httpclient"
	"strings"
	"testing"
	"time"
)

const okBody = `{
	"status": "OK",
	"results": [{
		"place_id": "abc123",
		"formatted_address": "Praça da Sé - Sé, São Paulo - SP, 01001-000, Brazil",
		"geometry": {"location": {"lat": -23.5503, "lng": -46.6339}}
	}]
}`

func TestGoogleGeocoderOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("missing key")
		}
		if r.URL.Query().Get("address") != "Praça da Sé, São Paulo" {
			t.Errorf("address = %q", r.URL.Query().Get("address"))
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	g := NewGoogleGeocoder(httpclient.New(httpclient.Options{}), srv.URL, "secret")
	resp, err := g.Geocode(context.Background(), "Praça da Sé, São Paulo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Found() || resp.Matches[0].PlaceID != "abc123" || resp.Matches[0].Location.Lat != -23.5503 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestGoogleGeocoderNotOK(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus string
	}{
		{
			name: "zero results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
			},
			wantStatus: domain.GeocodeStatusZeroResults,
		},
		{
			name: "denied",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","results":[],"error_message":"bad key"}`))
			},
			wantStatus: "REQUEST_DENIED",
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: domain.GeocodeStatusUpstreamError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewGoogleGeocoder(httpclient.New(httpclient.Options{}), srv.URL, "secret")
			resp, err := g.Geocode(context.Background(), "nowhere")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Found() || resp.Status != tt.wantStatus {
				t.Fatalf("response = %+v, want status %s", resp, tt.wantStatus)
			}
		})
	}
}

func TestGoogleGeocoderUnconfigured(t *testing.T) {
	g := NewGoogleGeocoder(httpclient.New(httpclient.Options{}), "", "  ")
	if g.Configured() {
		t.Fatalf("blank key should not count as configured")
	}
	if _, err := g.Geocode(context.Background(), "x"); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestGoogleGeocoderRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	g := NewGoogleGeocoder(httpclient.New(httpclient.Options{}), base, "supersecretkey")
	_, err := g.Geocode(context.Background(), "x")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "supersecretkey") {
		t.Fatalf("error leaks the api key: %v", err)
	}
}

func TestGatewayClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Query().Get("address") {
		case "busy":
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Rate limit exceeded. Please try again later.","resetIn":12}`))
		case "ab":
			http.Error(w, `{"error":"Address is required and must be at least 3 characters"}`, http.StatusBadRequest)
		case "slow":
			w.WriteHeader(http.StatusRequestTimeout)
		case "nokey":
			http.Error(w, `{"error":"API configuration error"}`, http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(okBody))
		}
	}))
	defer srv.Close()

	c := NewGatewayClient(httpclient.New(httpclient.Options{}), srv.URL+"/")
	ctx := context.Background()

	resp, err := c.Geocode(ctx, "Praça da Sé")
	if err != nil || !resp.Found() {
		t.Fatalf("resp = %+v, err = %v", resp, err)
	}

	_, err = c.Geocode(ctx, "busy")
	var rl *domain.RateLimitError
	if !errors.As(err, &rl) || !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.ResetIn != 12*time.Second {
		t.Fatalf("reset in = %v, want 12s from the body", rl.ResetIn)
	}

	checks := map[string]error{
		"ab":    domain.ErrInvalidInput,
		"slow":  domain.ErrUpstreamTimeout,
		"nokey": domain.ErrConfiguration,
	}
	for addr, want := range checks {
		if _, err := c.Geocode(ctx, addr); !errors.Is(err, want) {
			t.Fatalf("%s: err = %v, want %v", addr, err, want)
		}
	}
}
