package transport

import (
	"net/http"

	"github.com/cchalm/issues-copy/internal/ratelimit"
)

// RateLimitedTransport consults a rate limit policy around every request it sends
type RateLimitedTransport struct {
	base   http.RoundTripper
	policy ratelimit.Policy
}

// WithRateLimiting wraps base so that policy is consulted before and after each request. A nil base uses
// http.DefaultTransport, and a nil policy never delays
func WithRateLimiting(base http.RoundTripper, policy ratelimit.Policy) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if policy == nil {
		policy = ratelimit.NewFixed(ratelimit.Delays{})
	}
	return &RateLimitedTransport{base: base, policy: policy}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.policy.Before(req.Context()); err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	t.policy.After(resp)
	return resp, nil
}
