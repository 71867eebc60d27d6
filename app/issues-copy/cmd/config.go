package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cchalm/issues-copy/internal/config"
)

var cfg = config.Config{}

// flagValues receives flag values. They only override the environment when the flag was given explicitly
var flagValues = struct {
	sourceOwner string
	sourceRepo  string
	destOwner   string
	destRepo    string

	includeComments bool
	copyState       bool
	state           string

	checkpointFile string
	apiURL         string

	rateLimitMode    string
	rateLimitReserve int
	pageDelay        time.Duration
	issueDelay       time.Duration
	commentDelay     time.Duration

	telemetry    bool
	otlpEndpoint string
}{}

func bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&flagValues.sourceOwner, "source-owner", "", "Owner of the source repository (SOURCE_OWNER)")
	flags.StringVar(&flagValues.sourceRepo, "source-repo", "", "Name of the source repository (SOURCE_REPO)")
	flags.StringVar(&flagValues.destOwner, "dest-owner", "", "Owner of the destination repository (DEST_OWNER)")
	flags.StringVar(&flagValues.destRepo, "dest-repo", "", "Name of the destination repository (DEST_REPO)")

	flags.BoolVar(&flagValues.includeComments, "comments", true, "Copy comments (INCLUDE_COMMENTS)")
	flags.BoolVar(&flagValues.copyState, "copy-state", true, "Close copies of closed issues (COPY_STATE)")
	flags.StringVar(&flagValues.state, "state", "all", "Which source issues to copy: open, closed or all (ISSUE_STATE)")

	flags.StringVar(&flagValues.checkpointFile, "checkpoint", "", "File recording progress so an interrupted copy can resume (CHECKPOINT_FILE)")
	flags.StringVar(&flagValues.apiURL, "api-url", "", "GitHub REST API base URL, for GitHub Enterprise (GITHUB_API_URL)")

	flags.StringVar(&flagValues.rateLimitMode, "rate-limit", config.RateLimitFixed, "Rate limit policy: fixed or adaptive (RATE_LIMIT_MODE)")
	flags.IntVar(&flagValues.rateLimitReserve, "rate-limit-reserve", 50, "Remaining requests at which the adaptive policy waits for the limit to reset (RATE_LIMIT_RESERVE)")
	flags.DurationVar(&flagValues.pageDelay, "page-delay", time.Second, "Pause between issue list pages (PAGE_DELAY)")
	flags.DurationVar(&flagValues.issueDelay, "issue-delay", time.Second, "Pause between issues (ISSUE_DELAY)")
	flags.DurationVar(&flagValues.commentDelay, "comment-delay", 500*time.Millisecond, "Pause between comments (COMMENT_DELAY)")

	flags.BoolVar(&flagValues.telemetry, "telemetry", false, "Export traces over OTLP/HTTP (TELEMETRY_ENABLED)")
	flags.StringVar(&flagValues.otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector URL (OTLP_ENDPOINT)")
}

func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	override := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	override("source-owner", func() { c.SourceOwner = flagValues.sourceOwner })
	override("source-repo", func() { c.SourceRepo = flagValues.sourceRepo })
	override("dest-owner", func() { c.DestOwner = flagValues.destOwner })
	override("dest-repo", func() { c.DestRepo = flagValues.destRepo })

	override("comments", func() { c.IncludeComments = flagValues.includeComments })
	override("copy-state", func() { c.CopyState = flagValues.copyState })
	override("state", func() { c.State = flagValues.state })

	override("checkpoint", func() { c.CheckpointFile = flagValues.checkpointFile })
	override("api-url", func() { c.APIURL = flagValues.apiURL })

	override("rate-limit", func() { c.RateLimitMode = flagValues.rateLimitMode })
	override("rate-limit-reserve", func() { c.RateLimitReserve = flagValues.rateLimitReserve })
	override("page-delay", func() { c.Delays.Page = flagValues.pageDelay })
	override("issue-delay", func() { c.Delays.Issue = flagValues.issueDelay })
	override("comment-delay", func() { c.Delays.Comment = flagValues.commentDelay })

	override("telemetry", func() { c.TelemetryEnabled = flagValues.telemetry })
	override("otlp-endpoint", func() { c.OTLPEndpoint = flagValues.otlpEndpoint })
}

func printMissingHelp(w io.Writer, missingErr *config.MissingVariablesError) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Error: required environment variables are not set")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Missing: %s\n\n", strings.Join(missingErr.Keys, ", "))
	fmt.Fprintln(w, "Run it from a GitHub Actions workflow that provides these as inputs, or locally:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, `  export PERSONAL_TOKEN="your_token"`)
	fmt.Fprintln(w, `  export SOURCE_OWNER="owner_name"`)
	fmt.Fprintln(w, `  export SOURCE_REPO="repo_name"`)
	fmt.Fprintln(w, `  export DEST_OWNER="owner_name"`)
	fmt.Fprintln(w, `  export DEST_REPO="repo_name"`)
	fmt.Fprintln(w, "  issues-copy")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The same values can be put in a .env file in the working directory.")
	fmt.Fprintln(w, rule)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
