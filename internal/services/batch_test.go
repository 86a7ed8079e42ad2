package services

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"sync"
	"testing"
	"time"
)

func TestResolveBatchPreservesInputOrder(t *testing.T) {
	postal, geo := saoPauloFixture()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := newTestResolver(t, ResolverConfig{
		Primary:     postal,
		Geocoder:    geo,
		Concurrency: 3,
		Now:         func() time.Time { return now },
	})

	inputs := []string{"02002-000", "abc", "99999999", "03003000", "01001000"}

	var mu sync.Mutex
	var progress [][2]int
	outcomes := r.ResolveBatch(context.Background(), inputs, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, [2]int{done, total})
	})

	if len(outcomes) != len(inputs) {
		t.Fatalf("expected %d outcomes, got %d", len(inputs), len(outcomes))
	}
	for i, o := range outcomes {
		if o.Input != inputs[i] {
			t.Fatalf("outcome %d input = %q, want %q", i, o.Input, inputs[i])
		}
		if (o.Stop == nil) == (o.Err == nil) {
			t.Fatalf("outcome %d must have exactly one of Stop and Err: %+v", i, o)
		}
	}

	if !errors.Is(outcomes[1].Err, domain.ErrInvalidInput) || outcomes[1].PostalCode != "" {
		t.Fatalf("outcome 1 = %+v, want invalid input", outcomes[1])
	}
	if !errors.Is(outcomes[2].Err, domain.ErrNotFound) {
		t.Fatalf("outcome 2 err = %v, want ErrNotFound", outcomes[2].Err)
	}

	wantID := fmt.Sprintf("03003000-%d", now.UnixMilli()+3)
	if got := outcomes[3].Stop; got == nil || got.ID != wantID || got.PostalCode != "03003000" || !got.IsGeocoded() {
		t.Fatalf("outcome 3 stop = %+v, want id %s", got, wantID)
	}

	if len(progress) != len(inputs) {
		t.Fatalf("progress called %d times, want %d", len(progress), len(inputs))
	}
	if last := progress[len(progress)-1]; last != [2]int{len(inputs), len(inputs)} {
		t.Fatalf("last progress = %v", last)
	}

	ok := Succeeded(outcomes)
	if len(ok) != 3 || ok[0].PostalCode != "02002000" || ok[2].PostalCode != "01001000" {
		t.Fatalf("succeeded = %+v", ok)
	}
}

func TestResolveBatchCancelled(t *testing.T) {
	postal, geo := saoPauloFixture()
	r := newTestResolver(t, ResolverConfig{Primary: postal, Geocoder: geo})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := r.ResolveBatch(ctx, []string{"01001000", "bad", "02002000"}, nil)

	if !errors.Is(outcomes[0].Err, context.Canceled) || !errors.Is(outcomes[2].Err, context.Canceled) {
		t.Fatalf("expected cancelled outcomes, got %+v", outcomes)
	}
	if !errors.Is(outcomes[1].Err, domain.ErrInvalidInput) {
		t.Fatalf("outcome 1 err = %v, want ErrInvalidInput", outcomes[1].Err)
	}
	if postal.Calls() != 0 {
		t.Fatalf("postal calls = %d, want 0", postal.Calls())
	}
}

func TestResolveBatchEmpty(t *testing.T) {
	postal, geo := saoPauloFixture()
	r := newTestResolver(t, ResolverConfig{Primary: postal, Geocoder: geo})

	if got := r.ResolveBatch(context.Background(), nil, nil); len(got) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(got))
	}
}
