package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/httpclient"
	"route-planner-service/internal/platform/obs"
	"strings"
	"time"
)

type gatewayErrorBody struct {
	Error   string  `json:"error"`
	ResetIn float64 `json:"resetIn"`
}

// GatewayClient reaches a remote gateway's /geocode endpoint.
// It translates the gateway's status codes back into domain errors.
type GatewayClient struct {
	client  *httpclient.Client
	baseURL string
}

func NewGatewayClient(client *httpclient.Client, baseURL string) *GatewayClient {
	return &GatewayClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *GatewayClient) Geocode(ctx context.Context, address string) (_ domain.GeocodeResponse, err error) {
	defer obs.Time(ctx, "gateway.client.Geocode")(&err)

	endpoint := c.baseURL + "/geocode?" + url.Values{"address": {address}}.Encode()

	var data wireResponse
	err = c.client.GetJSON(ctx, endpoint, &data)
	if err == nil {
		return data.toDomain(), nil
	}

	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return domain.GeocodeResponse{}, fmt.Errorf("gateway geocode: %w", err)
	}

	switch se.Code {
	case http.StatusTooManyRequests:
		return domain.GeocodeResponse{}, rateLimitError(se)
	case http.StatusBadRequest:
		return domain.GeocodeResponse{}, fmt.Errorf("gateway geocode: %s: %w", se.Body, domain.ErrInvalidInput)
	case http.StatusRequestTimeout:
		return domain.GeocodeResponse{}, fmt.Errorf("gateway geocode: %w", domain.ErrUpstreamTimeout)
	case http.StatusInternalServerError:
		return domain.GeocodeResponse{}, fmt.Errorf("gateway geocode: %s: %w", se.Body, domain.ErrConfiguration)
	}
	return domain.GeocodeResponse{}, fmt.Errorf("gateway geocode: %w: %w", domain.ErrUpstreamUnavailable, se)
}

func rateLimitError(se *httpclient.StatusError) *domain.RateLimitError {
	resetIn := se.RetryAfter

	var body gatewayErrorBody
	if err := json.Unmarshal([]byte(se.Body), &body); err == nil && body.ResetIn > 0 {
		resetIn = time.Duration(body.ResetIn * float64(time.Second))
	}

	return &domain.RateLimitError{ResetAt: time.Now().Add(resetIn), ResetIn: resetIn}
}
