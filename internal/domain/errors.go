package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrConfiguration       = errors.New("configuration error")
)

// RateLimitError carries client-visible retry guidance.
// It matches ErrRateLimited under errors.Is.
type RateLimitError struct {
	ResetAt time.Time
	ResetIn time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry in %ds", e.RetryAfterSeconds())
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// RetryAfterSeconds rounds ResetIn up to whole seconds, never below 1.
func (e *RateLimitError) RetryAfterSeconds() int {
	s := int(math.Ceil(e.ResetIn.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
