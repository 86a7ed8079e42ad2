package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BatchOutcome is the per-item result of ResolveBatch.
// Exactly one of Stop and Err is set.
type BatchOutcome struct {
	Input      string
	PostalCode string // normalized; empty when the input was malformed
	Stop       *domain.Address
	Err        error
}

// ResolveBatch resolves postal codes concurrently and reports outcomes in input order.
//
// A failing item never aborts the batch. Cancelling ctx stops outstanding
// lookups; their outcomes carry the context error. progress, if set, is
// called after each item completes with the number done so far.
func (r *Resolver) ResolveBatch(ctx context.Context, inputs []string, progress func(done, total int)) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(inputs))
	if len(inputs) == 0 {
		return outcomes
	}

	base := r.now().UnixMilli()

	var mu sync.Mutex
	done := 0
	report := func() {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		progress(done, len(inputs))
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			defer report()

			out := BatchOutcome{Input: in}
			code, err := NormalizePostalCode(in)
			if err != nil {
				out.Err = err
				outcomes[i] = out
				return nil
			}
			out.PostalCode = code

			if err := ctx.Err(); err != nil {
				out.Err = err
				outcomes[i] = out
				return nil
			}

			loc, err := r.Resolve(ctx, code)
			if err != nil {
				out.Err = err
				outcomes[i] = out
				return nil
			}

			coords := loc.Coordinates
			out.Stop = &domain.Address{
				ID:          fmt.Sprintf("%s-%d", code, base+int64(i)),
				PostalCode:  code,
				Coordinates: &coords,
				Description: loc.Description,
			}
			outcomes[i] = out
			return nil
		})
	}

	// Items never return errors; Wait only joins the goroutines.
	_ = g.Wait()

	return outcomes
}

// Succeeded returns the resolved stops in input order.
func Succeeded(outcomes []BatchOutcome) []domain.Address {
	out := make([]domain.Address, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Stop != nil {
			out = append(out, *o.Stop)
		}
	}
	return out
}
