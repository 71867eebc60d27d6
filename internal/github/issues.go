package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-github/v72/github"

	"github.com/cchalm/issues-copy/internal/ratelimit"
)

const pageSize = 100

// IssueService handles the GitHub issue operations needed to copy issues between repositories
type IssueService interface {
	ListIssues(ctx context.Context, repo Repo, state string) ([]Issue, error)
	ListComments(ctx context.Context, repo Repo, number int) ([]Comment, error)
	CreateIssue(ctx context.Context, repo Repo, title, body string, labels []string) (*Issue, error)
	CreateComment(ctx context.Context, repo Repo, number int, body string) (*Comment, error)
	CloseIssue(ctx context.Context, repo Repo, number int) error
}

// issueService implements IssueService using the GitHub REST API
type issueService struct {
	client *github.Client
	policy ratelimit.Policy
}

// NewIssueService creates a new IssueService. The policy is consulted between pages when listing issues; a nil
// policy never pauses
func NewIssueService(client *github.Client, policy ratelimit.Policy) IssueService {
	if policy == nil {
		policy = ratelimit.NewFixed(ratelimit.Delays{})
	}
	return &issueService{
		client: client,
		policy: policy,
	}
}

// ListIssues returns every issue in the repository with the given state, in the order GitHub returns them. Pull
// requests are filtered out. Pages are requested until GitHub returns an empty one
func (is *issueService) ListIssues(ctx context.Context, repo Repo, state string) ([]Issue, error) {
	issues := []Issue{}

	for page := 1; ; page++ {
		items, n, err := is.listIssuesPage(ctx, repo, state, page)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues of %s (page %d): %w", repo, page, err)
		}
		// A page holding only pull requests is not the end of the listing, so this checks the unfiltered page
		if n == 0 {
			break
		}

		for _, item := range items {
			issues = append(issues, toIssue(item))
		}

		log.Printf("[github] Fetched %d issues from %s", len(issues), repo)

		if err := is.policy.Pause(ctx, ratelimit.PauseBetweenPages); err != nil {
			return nil, err
		}
	}

	return issues, nil
}

// listIssuesPage fetches one page of the repository issues endpoint. It returns the items that are not pull requests
// and the number of items on the page before filtering. Any item carrying a pull_request key is a pull request, even
// when the value is null, so the page is decoded by hand instead of through Issues.ListByRepo
func (is *issueService) listIssuesPage(ctx context.Context, repo Repo, state string, page int) ([]*github.Issue, int, error) {
	query := url.Values{}
	if state != "" {
		query.Set("state", state)
	}
	query.Set("per_page", strconv.Itoa(pageSize))
	query.Set("page", strconv.Itoa(page))

	u := fmt.Sprintf("repos/%s/%s/issues?%s", repo.Owner, repo.Name, query.Encode())
	req, err := is.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}

	var raw []json.RawMessage
	if _, err := is.client.Do(ctx, req, &raw); err != nil {
		return nil, 0, err
	}

	items := []*github.Issue{}
	for _, item := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, 0, fmt.Errorf("failed to decode issue: %w", err)
		}
		if fields == nil {
			continue
		}
		if _, ok := fields["pull_request"]; ok {
			continue
		}

		var issue github.Issue
		if err := json.Unmarshal(item, &issue); err != nil {
			return nil, 0, fmt.Errorf("failed to decode issue: %w", err)
		}
		items = append(items, &issue)
	}

	return items, len(raw), nil
}

// ListComments returns every comment on an issue, oldest first
func (is *issueService) ListComments(ctx context.Context, repo Repo, number int) ([]Comment, error) {
	comments := []Comment{}

	opts := &github.IssueListCommentsOptions{
		Sort:      github.Ptr("created"),
		Direction: github.Ptr("asc"),
		ListOptions: github.ListOptions{
			PerPage: pageSize,
		},
	}

	for {
		page, resp, err := is.client.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments of %s#%d: %w", repo, number, err)
		}
		for _, c := range page {
			if c == nil {
				continue
			}
			comments = append(comments, toComment(c))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// CreateIssue opens a new issue. Labels are only sent when there are any; GitHub drops labels that do not exist in
// the repository. A 404 is reported as a *RepositoryAccessError
func (is *issueService) CreateIssue(ctx context.Context, repo Repo, title, body string, labels []string) (*Issue, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	created, resp, err := is.client.Issues.Create(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, &RepositoryAccessError{Repo: repo}
		}
		return nil, err
	}

	issue := toIssue(created)
	return &issue, nil
}

// CreateComment adds a comment to an issue
func (is *issueService) CreateComment(ctx context.Context, repo Repo, number int, body string) (*Comment, error) {
	created, _, err := is.client.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment on %s#%d: %w", repo, number, err)
	}

	comment := toComment(created)
	return &comment, nil
}

// CloseIssue sets the state of an issue to closed
func (is *issueService) CloseIssue(ctx context.Context, repo Repo, number int) error {
	_, _, err := is.client.Issues.Edit(ctx, repo.Owner, repo.Name, number, &github.IssueRequest{
		State: github.Ptr(StateClosed),
	})
	if err != nil {
		return fmt.Errorf("failed to close %s#%d: %w", repo, number, err)
	}
	return nil
}

func toIssue(issue *github.Issue) Issue {
	labels := []string{}
	for _, label := range issue.Labels {
		if label == nil {
			continue
		}
		labels = append(labels, label.GetName())
	}

	return Issue{
		Number: issue.GetNumber(),

		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Author:    issue.GetUser().GetLogin(),
		CreatedAt: issue.GetCreatedAt().Time,
		URL:       issue.GetHTMLURL(),
		State:     issue.GetState(),

		Labels: labels,
	}
}

func toComment(comment *github.IssueComment) Comment {
	return Comment{
		ID:        comment.GetID(),
		Author:    comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
		Body:      comment.GetBody(),
	}
}
