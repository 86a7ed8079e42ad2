package services

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// PlanRouteRequest is a route to plan from raw postal codes.
type PlanRouteRequest struct {
	OriginPostalCode string
	PostalCodes      []string
	ReturnToOrigin   bool
}

// PlanRouteResult is the plan for the stops that resolved, plus the ones that did not.
type PlanRouteResult struct {
	Plan   domain.RoutePlan
	Failed []BatchOutcome
}

// Planner combines resolution, optimization, and route aggregates.
type Planner struct {
	Resolver *Resolver
	Model    ports.DistanceModel
	SpeedKmh float64
}

func NewPlanner(resolver *Resolver, model ports.DistanceModel, speedKmh float64) *Planner {
	if speedKmh <= 0 {
		speedKmh = DefaultAverageSpeedKmh
	}
	return &Planner{Resolver: resolver, Model: model, SpeedKmh: speedKmh}
}

// Optimize orders already-geocoded stops and computes the route aggregates.
func (p *Planner) Optimize(origin domain.Address, stops []domain.Address, returnToOrigin bool) (domain.RoutePlan, error) {
	if origin.Coordinates == nil {
		return domain.RoutePlan{}, fmt.Errorf("optimize: origin is not geocoded: %w", domain.ErrInvalidInput)
	}

	ordered, err := OptimizeRoute(*origin.Coordinates, stops, p.Model)
	if err != nil {
		return domain.RoutePlan{}, fmt.Errorf("optimize: %w", err)
	}

	total := TotalDistance(*origin.Coordinates, ordered, returnToOrigin, p.Model)

	return domain.RoutePlan{
		Origin:            origin,
		Stops:             ordered,
		ReturnToOrigin:    returnToOrigin,
		TotalDistanceKm:   total,
		EstimatedDuration: EstimateDuration(total, p.SpeedKmh),
	}, nil
}

// Plan resolves the origin and every stop, then optimizes the stops that resolved.
// The origin must resolve; stop failures are reported in Failed.
func (p *Planner) Plan(ctx context.Context, req PlanRouteRequest) (*PlanRouteResult, error) {
	if p.Resolver == nil {
		return nil, errors.New("plan route: resolver is not configured")
	}

	originLoc, err := p.Resolver.Resolve(ctx, req.OriginPostalCode)
	if err != nil {
		return nil, fmt.Errorf("plan route: origin: %w", err)
	}
	originCode, _ := NormalizePostalCode(req.OriginPostalCode)
	originCoords := originLoc.Coordinates
	origin := domain.Address{
		ID:          originCode,
		PostalCode:  originCode,
		Coordinates: &originCoords,
		Description: originLoc.Description,
	}

	outcomes := p.Resolver.ResolveBatch(ctx, req.PostalCodes, nil)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	var failed []BatchOutcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}

	plan, err := p.Optimize(origin, Succeeded(outcomes), req.ReturnToOrigin)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	return &PlanRouteResult{Plan: plan, Failed: failed}, nil
}
