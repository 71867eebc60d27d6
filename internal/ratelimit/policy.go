// Package ratelimit provides pluggable pacing policies for calls to the GitHub API.
package ratelimit

import (
	"context"
	"net/http"
	"time"
)

// PauseKind identifies the unit of work that just finished and that the next call will follow
type PauseKind int

const (
	PauseBetweenPages PauseKind = iota
	PauseBetweenIssues
	PauseBetweenComments
)

func (k PauseKind) String() string {
	switch k {
	case PauseBetweenPages:
		return "page"
	case PauseBetweenIssues:
		return "issue"
	case PauseBetweenComments:
		return "comment"
	default:
		return "unknown"
	}
}

// Policy decides how long to wait around calls to the API. Before and After are consulted for every HTTP request by
// the rate limiting transport; Pause is consulted by callers between units of work
type Policy interface {
	// Before blocks until the next request may be sent, or until ctx is done
	Before(ctx context.Context) error
	// After observes the response to a request. resp is never nil
	After(resp *http.Response)
	// Pause blocks between units of work of the given kind, or until ctx is done
	Pause(ctx context.Context, kind PauseKind) error
}

// Delays holds the fixed pause durations for each kind of unit of work
type Delays struct {
	Page    time.Duration
	Issue   time.Duration
	Comment time.Duration
}

// DefaultDelays returns the delays used when none are configured
func DefaultDelays() Delays {
	return Delays{
		Page:    1 * time.Second,
		Issue:   1 * time.Second,
		Comment: 500 * time.Millisecond,
	}
}

func (d Delays) forKind(kind PauseKind) time.Duration {
	switch kind {
	case PauseBetweenPages:
		return d.Page
	case PauseBetweenIssues:
		return d.Issue
	case PauseBetweenComments:
		return d.Comment
	default:
		return 0
	}
}

// Sleep waits for d or until ctx is done, whichever comes first. A non-positive d only checks ctx
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
