// Package copier copies issues and their comments from one repository to another.
package copier

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cchalm/issues-copy/internal/checkpoint"
	githubpkg "github.com/cchalm/issues-copy/internal/github"
	"github.com/cchalm/issues-copy/internal/ratelimit"
)

var tracer = otel.Tracer("github.com/cchalm/issues-copy/internal/copier")

// IssueService is the subset of GitHub operations the copier needs
type IssueService interface {
	ListIssues(ctx context.Context, repo githubpkg.Repo, state string) ([]githubpkg.Issue, error)
	ListComments(ctx context.Context, repo githubpkg.Repo, number int) ([]githubpkg.Comment, error)
	CreateIssue(ctx context.Context, repo githubpkg.Repo, title, body string, labels []string) (*githubpkg.Issue, error)
	CreateComment(ctx context.Context, repo githubpkg.Repo, number int, body string) (*githubpkg.Comment, error)
	CloseIssue(ctx context.Context, repo githubpkg.Repo, number int) error
}

// Options controls a single copy run
type Options struct {
	Source      githubpkg.Repo
	Destination githubpkg.Repo

	// State filters the source issues: open, closed or all
	State string
	// IncludeComments replays the comments of every source issue on its copy
	IncludeComments bool
	// CopyState closes copies of closed source issues. Otherwise every copy is left open
	CopyState bool

	// RunID identifies this run in checkpoint entries and traces
	RunID string
}

// Summary counts what happened to the source issues of a run
type Summary struct {
	Total   int
	Copied  int
	Skipped int
	Failed  int
}

// Copier copies issues sequentially, one API call at a time
type Copier struct {
	issues     IssueService
	policy     ratelimit.Policy
	checkpoint checkpoint.Store
}

// New creates a Copier. A nil policy never pauses and a nil store disables resuming
func New(issues IssueService, policy ratelimit.Policy, store checkpoint.Store) *Copier {
	if policy == nil {
		policy = ratelimit.NewFixed(ratelimit.Delays{})
	}
	if store == nil {
		store = checkpoint.NopStore{}
	}
	return &Copier{
		issues:     issues,
		policy:     policy,
		checkpoint: store,
	}
}

// Run copies every matching source issue to the destination. Failing to list the source issues is the only error
// that ends the run early, apart from cancellation of ctx. Failures of individual issues are logged and counted
func (c *Copier) Run(ctx context.Context, opts Options) (summary Summary, err error) {
	ctx, span := tracer.Start(ctx, "copy_issues", trace.WithAttributes(
		attribute.String("copy.source", opts.Source.String()),
		attribute.String("copy.destination", opts.Destination.String()),
		attribute.Bool("copy.include_comments", opts.IncludeComments),
		attribute.Bool("copy.copy_state", opts.CopyState),
		attribute.String("copy.run_id", opts.RunID),
	))
	defer func() {
		span.SetAttributes(
			attribute.Int("copy.total", summary.Total),
			attribute.Int("copy.copied", summary.Copied),
			attribute.Int("copy.skipped", summary.Skipped),
			attribute.Int("copy.failed", summary.Failed),
		)
		recordError(span, err)
		span.End()
	}()

	log.Printf("[copier] Copying issues from %s to %s", opts.Source, opts.Destination)

	issues, err := c.issues.ListIssues(ctx, opts.Source, opts.State)
	if err != nil {
		return summary, fmt.Errorf("failed to list source issues: %w", err)
	}
	summary.Total = len(issues)
	log.Printf("[copier] Found %d issues in %s", len(issues), opts.Source)

	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		log.Printf("[copier] [%d/%d] Copying #%d - %s", i+1, len(issues), issue.Number, issue.Title)

		destination, skipped, err := c.copyIssue(ctx, opts, issue)
		if err != nil {
			summary.Failed++
			log.Printf("[copier]   ✗ Failed to copy #%d: %v", issue.Number, err)
			continue
		}
		if skipped {
			summary.Skipped++
			log.Printf("[copier]   - Already copied as #%d, skipping", destination)
			continue
		}

		summary.Copied++
		log.Printf("[copier]   ✓ Copied as #%d", destination)

		if err := c.policy.Pause(ctx, ratelimit.PauseBetweenIssues); err != nil {
			return summary, err
		}
	}

	log.Printf("[copier] Done: %d issues, %d copied, %d skipped, %d failed",
		summary.Total, summary.Copied, summary.Skipped, summary.Failed)

	return summary, nil
}

// copyIssue copies one source issue, resuming from its checkpoint entry if there is one. It returns the number of
// the destination issue and whether the issue had already been copied completely
func (c *Copier) copyIssue(ctx context.Context, opts Options, issue githubpkg.Issue) (destination int, skipped bool, err error) {
	ctx, span := tracer.Start(ctx, "copy_issue", trace.WithAttributes(
		attribute.Int("issue.number", issue.Number),
		attribute.String("issue.state", issue.State),
	))
	defer func() {
		span.SetAttributes(attribute.Int("issue.destination", destination))
		recordError(span, err)
		span.End()
	}()

	entry, err := c.checkpoint.Get(issue.Number)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if entry != nil && entry.Done {
		return entry.Destination, true, nil
	}

	if entry == nil {
		created, err := c.issues.CreateIssue(ctx, opts.Destination, issue.Title, issue.Body, issue.Labels)
		if err != nil {
			return 0, false, err
		}
		entry = &checkpoint.Entry{Destination: created.Number, RunID: opts.RunID}
		if err := c.save(issue.Number, entry); err != nil {
			return entry.Destination, false, err
		}
	} else {
		log.Printf("[copier]   Resuming copy into #%d", entry.Destination)
	}

	if targetState(issue, opts.CopyState) == githubpkg.StateClosed && !entry.Closed {
		if err := c.issues.CloseIssue(ctx, opts.Destination, entry.Destination); err != nil {
			return entry.Destination, false, err
		}
		entry.Closed = true
		if err := c.save(issue.Number, entry); err != nil {
			return entry.Destination, false, err
		}
	}

	if opts.IncludeComments {
		if err := c.copyComments(ctx, opts, issue, entry); err != nil {
			return entry.Destination, false, err
		}
	}

	entry.Done = true
	if err := c.save(issue.Number, entry); err != nil {
		return entry.Destination, false, err
	}

	return entry.Destination, false, nil
}

// copyComments replays the comments of the source issue that the entry has not recorded as copied yet
func (c *Copier) copyComments(ctx context.Context, opts Options, issue githubpkg.Issue, entry *checkpoint.Entry) error {
	comments, err := c.issues.ListComments(ctx, opts.Source, issue.Number)
	if err != nil {
		return err
	}

	pending := pendingComments(comments, entry)
	if len(pending) == 0 {
		return nil
	}
	log.Printf("[copier]   → Copying %d comments", len(pending))

	for _, comment := range pending {
		if _, err := c.issues.CreateComment(ctx, opts.Destination, entry.Destination, AttributedBody(comment)); err != nil {
			return err
		}
		entry.CommentsCopied++
		entry.LastCommentID = comment.ID
		if err := c.save(issue.Number, entry); err != nil {
			return err
		}
		if err := c.policy.Pause(ctx, ratelimit.PauseBetweenComments); err != nil {
			return err
		}
	}

	return nil
}

// pendingComments returns the comments created after the last one the entry records as copied. Comment IDs grow with
// creation time, so a source comment deleted between runs does not shift the resume point. Entries without a comment
// ID fall back to the copied count
func pendingComments(comments []githubpkg.Comment, entry *checkpoint.Entry) []githubpkg.Comment {
	if entry.LastCommentID == 0 {
		if entry.CommentsCopied >= len(comments) {
			return nil
		}
		return comments[entry.CommentsCopied:]
	}
	for i, comment := range comments {
		if comment.ID > entry.LastCommentID {
			return comments[i:]
		}
	}
	return nil
}

func (c *Copier) save(source int, entry *checkpoint.Entry) error {
	if err := c.checkpoint.Set(source, *entry); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// AttributedBody formats a copied comment so that it names its original author and creation time
func AttributedBody(comment githubpkg.Comment) string {
	return fmt.Sprintf("**@%s** (%s):\n\n%s", comment.Author, comment.CreatedAt.UTC().Format(time.RFC3339), comment.Body)
}

func targetState(issue githubpkg.Issue, copyState bool) string {
	if copyState {
		return issue.State
	}
	return githubpkg.StateOpen
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
