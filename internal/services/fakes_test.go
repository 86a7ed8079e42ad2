package services

import (
	"context"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"sync"
	"time"
)

type mapStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

func newMapStore() *mapStore {
	return &mapStore{entries: map[string]domain.CacheEntry{}}
}

func (s *mapStore) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *mapStore) Put(_ context.Context, key string, entry domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

type fakePostal struct {
	name    string
	mu      sync.Mutex
	calls   int
	records map[string]ports.PostalRecord
	err     error
}

func (p *fakePostal) Name() string { return p.name }

func (p *fakePostal) Lookup(_ context.Context, code string) (ports.PostalRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return ports.PostalRecord{}, p.err
	}
	rec, ok := p.records[code]
	if !ok {
		return ports.PostalRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (p *fakePostal) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeGeocoder struct {
	mu      sync.Mutex
	calls   int
	queries []string
	// errs is consumed one per call before answers are used.
	errs    []error
	answers map[string]domain.Coordinates
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (domain.GeocodeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.queries = append(g.queries, address)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return domain.GeocodeResponse{}, err
	}
	c, ok := g.answers[address]
	if !ok {
		return domain.GeocodeResponse{Status: domain.GeocodeStatusZeroResults}, nil
	}
	return domain.GeocodeResponse{
		Status:  domain.GeocodeStatusOK,
		Matches: []domain.GeocodeMatch{{FormattedAddress: address, Location: c}},
	}, nil
}

func (g *fakeGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func noSleepPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

// saoPauloFixture returns providers that resolve three São Paulo codes.
// 01001000 carries coordinates; the others need free-text geocoding.
func saoPauloFixture() (*fakePostal, *fakeGeocoder) {
	postal := &fakePostal{
		name: "brasilapi",
		records: map[string]ports.PostalRecord{
			"01001000": {
				PostalCode: "01001000", Street: "Praça da Sé", Neighborhood: "Sé",
				City: "São Paulo", State: "SP",
				Coordinates: &domain.Coordinates{Lat: -23.5503, Lng: -46.6339},
			},
			"02002000": {
				PostalCode: "02002000", Street: "Rua Voluntários da Pátria", Neighborhood: "Santana",
				City: "São Paulo", State: "SP",
			},
			"03003000": {
				PostalCode: "03003000", Street: "Rua do Gasômetro", Neighborhood: "Brás",
				City: "São Paulo", State: "SP",
			},
		},
	}
	geo := &fakeGeocoder{
		answers: map[string]domain.Coordinates{
			"Rua Voluntários da Pátria, Santana, São Paulo - SP, 02002000": {Lat: -23.5060, Lng: -46.6280},
			"Rua do Gasômetro, Brás, São Paulo - SP, 03003000":             {Lat: -23.5450, Lng: -46.6190},
		},
	}
	return postal, geo
}

func newTestResolver(t interface{ Fatalf(string, ...any) }, cfg ResolverConfig) *Resolver {
	if cfg.Cache == nil {
		cfg.Cache = newMapStore()
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = noSleepPolicy()
	}
	r, err := NewResolver(cfg)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}
