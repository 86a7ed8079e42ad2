package handlers

import (
	"fmt"
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/services"
)

type RouteHandler struct {
	Planner *services.Planner
}

// Optimize orders already-geocoded stops: POST /routes/optimize
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req dto.OptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	origin := req.Origin.ToDomain()
	if origin.ID == "" {
		origin.ID = "origin"
	}

	stops := make([]domain.Address, 0, len(req.Stops))
	for i, s := range req.Stops {
		a := s.ToDomain()
		if a.ID == "" {
			a.ID = fmt.Sprintf("stop-%d", i+1)
		}
		stops = append(stops, a)
	}

	plan, err := h.Planner.Optimize(origin, stops, req.ReturnToOrigin)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRoutePlanResponse(plan))
}

// Plan resolves postal codes and optimizes the stops that resolved: POST /routes/plan
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req dto.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Planner.Plan(r.Context(), services.PlanRouteRequest{
		OriginPostalCode: req.OriginPostalCode,
		PostalCodes:      req.PostalCodes,
		ReturnToOrigin:   req.ReturnToOrigin,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	failed := make([]dto.BatchItem, 0, len(res.Failed))
	for _, o := range res.Failed {
		failed = append(failed, dto.NewBatchItem(o, errorMessage))
	}

	writeJSON(w, r, http.StatusOK, dto.PlanResponse{
		Plan:   dto.NewRoutePlanResponse(res.Plan),
		Failed: failed,
	})
}
