package handlers

import (
	"log/slog"
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/services"
)

type PostalHandler struct {
	Resolver *services.Resolver
}

// Get resolves one postal code: GET /postal-codes/{code}
func (h *PostalHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	raw := r.PathValue("code")
	code, err := services.NormalizePostalCode(raw)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	loc, err := h.Resolver.Resolve(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPostalCodeResponse(code, loc))
}

// Batch resolves many postal codes and reports every outcome in input order.
// Failures of individual codes never fail the request.
func (h *PostalHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req dto.BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	outcomes := h.Resolver.ResolveBatch(ctx, req.PostalCodes, func(done, total int) {
		slog.DebugContext(ctx, "batch progress", "req_id", obs.RequestID(ctx), "done", done, "total", total)
	})

	res := dto.BatchResponse{Results: make([]dto.BatchItem, 0, len(outcomes))}
	for _, o := range outcomes {
		item := dto.NewBatchItem(o, errorMessage)
		if item.Status == dto.BatchStatusSuccess {
			res.SuccessCount++
		} else {
			res.ErrorCount++
		}
		res.Results = append(res.Results, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}
