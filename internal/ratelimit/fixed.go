package ratelimit

import (
	"context"
	"net/http"
	"time"
)

// Fixed pauses for a fixed duration between units of work and never delays individual requests
type Fixed struct {
	delays Delays
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewFixed creates a fixed delay policy. The zero Delays value disables pausing entirely
func NewFixed(delays Delays) *Fixed {
	return &Fixed{
		delays: delays,
		sleep:  Sleep,
	}
}

func (f *Fixed) Before(ctx context.Context) error {
	return nil
}

func (f *Fixed) After(resp *http.Response) {}

func (f *Fixed) Pause(ctx context.Context, kind PauseKind) error {
	return f.sleep(ctx, f.delays.forKind(kind))
}
