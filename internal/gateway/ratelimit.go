package gateway

import (
	"context"
	"log/slog"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"time"
)

// Limiter enforces a fixed-window quota per client.
type Limiter struct {
	store  ports.RateLimitStore
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store ports.RateLimitStore, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}
}

// Allow counts one request for clientID. Once the quota is spent it returns a
// *domain.RateLimitError until the window resets. A failing store lets the
// request through.
func (l *Limiter) Allow(ctx context.Context, clientID string) error {
	now := l.now()

	rec, err := l.store.Hit(ctx, clientID, now, l.window)
	if err != nil {
		slog.ErrorContext(ctx, "rate limit store failed, allowing request",
			"req_id", obs.RequestID(ctx), "client", clientID, "err", err)
		return nil
	}
	if rec.Count <= l.limit {
		return nil
	}

	resetIn := rec.ResetAt.Sub(now)
	if resetIn <= 0 {
		resetIn = time.Millisecond
	}
	if resetIn > l.window {
		resetIn = l.window
	}

	obs.RateLimited.Inc()
	return &domain.RateLimitError{ResetAt: now.Add(resetIn), ResetIn: resetIn}
}
