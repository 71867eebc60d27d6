package ratelimit

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	headerRemaining  = "X-RateLimit-Remaining"
	headerReset      = "X-RateLimit-Reset"
	headerRetryAfter = "Retry-After"
)

// Adaptive pauses between units of work like Fixed, and additionally reads the rate limit headers GitHub returns on
// every response. When the remaining request budget drops to the reserve, or the server asks the client to back off,
// the next request is held until the limit window resets. Requests are never retried
type Adaptive struct {
	*Fixed

	reserve int

	mu       sync.Mutex
	resumeAt time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAdaptive creates an adaptive policy that starts holding requests once at most reserve requests remain
func NewAdaptive(delays Delays, reserve int) *Adaptive {
	return &Adaptive{
		Fixed:   NewFixed(delays),
		reserve: reserve,
		now:     time.Now,
		sleep:   Sleep,
	}
}

func (a *Adaptive) Before(ctx context.Context) error {
	a.mu.Lock()
	wait := a.resumeAt.Sub(a.now())
	a.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	log.Printf("[ratelimit] Rate limit nearly exhausted, waiting %s", wait.Round(time.Second))
	return a.sleep(ctx, wait)
}

func (a *Adaptive) After(resp *http.Response) {
	if retryAfter := parseRetryAfter(resp.Header.Get(headerRetryAfter), a.now); retryAfter > 0 {
		a.holdUntil(a.now().Add(retryAfter))
	}

	remaining, err := strconv.Atoi(resp.Header.Get(headerRemaining))
	if err != nil || remaining > a.reserve {
		return
	}
	reset, err := strconv.ParseInt(resp.Header.Get(headerReset), 10, 64)
	if err != nil {
		return
	}
	a.holdUntil(time.Unix(reset, 0))
}

// holdUntil pushes the resume time forward. It never moves it backward
func (a *Adaptive) holdUntil(t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t.After(a.resumeAt) {
		a.resumeAt = t
	}
}

// parseRetryAfter accepts either a number of seconds or an HTTP date
func parseRetryAfter(value string, now func() time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := time.Parse(time.RFC1123, value); err == nil {
		return retryTime.Sub(now())
	}
	return 0
}
