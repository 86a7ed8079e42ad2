package api

import (
	"net/http"
	"route-planner-service/internal/api/handlers"
	"route-planner-service/internal/gateway"
	"route-planner-service/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	Gateway  *gateway.Service
	Resolver *services.Resolver
	Planner  *services.Planner
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	geocodeHandler := &handlers.GeocodeHandler{Gateway: deps.Gateway}
	postalHandler := &handlers.PostalHandler{Resolver: deps.Resolver}
	routeHandler := &handlers.RouteHandler{Planner: deps.Planner}

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/geocode", geocodeHandler.Geocode)
	mux.HandleFunc("/postal-codes/batch", postalHandler.Batch)
	mux.HandleFunc("/postal-codes/{code}", postalHandler.Get)
	mux.HandleFunc("/routes/optimize", routeHandler.Optimize)
	mux.HandleFunc("/routes/plan", routeHandler.Plan)

	var h http.Handler = mux
	h = recoverMiddleware(h)
	h = loggingMiddleware(h)
	h = clientIDMiddleware(h)
	h = requestIDMiddleware(h)
	h = securityHeaders(h)
	return h
}
