package handlers

import (
	"log/slog"
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/gateway"
	"route-planner-service/internal/platform/obs"
)

type GeocodeHandler struct {
	Gateway *gateway.Service
}

// Geocode is the public gateway endpoint: GET /geocode?address=...
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	resp, err := h.Gateway.Geocode(r.Context(), r.URL.Query().Get("address"), ClientID(r))
	if err != nil {
		// The public contract has no 502; transport failures are server errors here.
		if statusFor(err) == http.StatusBadGateway {
			slog.ErrorContext(r.Context(), "geocode upstream unavailable", "req_id", obs.RequestID(r.Context()), "err", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewGeocodeResponse(resp))
}
