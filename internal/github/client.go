package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"

	"github.com/cchalm/issues-copy/internal/ratelimit"
	"github.com/cchalm/issues-copy/internal/transport"
)

// ClientOptions configures the GitHub API client shared by every operation of a run
type ClientOptions struct {
	Token string
	// BaseURL overrides the REST API root, e.g. for GitHub Enterprise. Empty means api.github.com
	BaseURL string
	// Policy is consulted around every request. Nil never delays
	Policy ratelimit.Policy
}

// NewClient creates a GitHub client that authenticates with a bearer token and paces its requests with the
// configured rate limit policy
func NewClient(ctx context.Context, opts ClientOptions) (*github.Client, error) {
	rateLimited := &http.Client{
		Transport: transport.WithRateLimiting(nil, opts.Policy),
	}

	var httpClient *http.Client
	if opts.Token != "" {
		tokenSource := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		// The oauth2 transport wraps the transport of the client found in the context
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, rateLimited), tokenSource)
	} else {
		httpClient = rateLimited
	}

	client := github.NewClient(httpClient)

	if opts.BaseURL != "" {
		baseURL := opts.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL '%s': %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	return client, nil
}
