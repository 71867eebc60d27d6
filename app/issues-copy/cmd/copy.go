package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/cchalm/issues-copy/internal/copier"
	githubpkg "github.com/cchalm/issues-copy/internal/github"
	"github.com/cchalm/issues-copy/internal/telemetry"
)

func runCopy(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	source := githubpkg.Repo{Owner: cfg.SourceOwner, Name: cfg.SourceRepo}
	destination := githubpkg.Repo{Owner: cfg.DestOwner, Name: cfg.DestRepo}
	runID := telemetry.NewRunID()

	log.Printf("Starting issues-copy (run %s)", runID)
	log.Printf("  Source:         %s", source)
	log.Printf("  Destination:    %s", destination)
	log.Printf("  Issue state:    %s", cfg.State)
	log.Printf("  Copy comments:  %s", yesNo(cfg.IncludeComments))
	log.Printf("  Keep state:     %s", yesNo(cfg.CopyState))
	log.Printf("  Rate limiting:  %s", cfg.RateLimitMode)
	log.Printf("  Token:          %s", setOrUnset(cfg.Token))
	if cfg.CheckpointFile != "" {
		log.Printf("  Checkpoint:     %s", cfg.CheckpointFile)
	}

	telemetryProvider, err := createTelemetryProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	store, err := openCheckpoint(source, destination)
	if err != nil {
		return err
	}

	policy := createPolicy()
	issues, err := createIssueService(ctx, policy)
	if err != nil {
		return err
	}

	c := copier.New(issues, policy, store)
	summary, err := c.Run(ctx, copier.Options{
		Source:          source,
		Destination:     destination,
		State:           cfg.State,
		IncludeComments: cfg.IncludeComments,
		CopyState:       cfg.CopyState,
		RunID:           runID,
	})
	if err != nil {
		return fmt.Errorf("copy aborted: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Copy finished: %d issues, %d copied, %d skipped, %d failed\n",
		summary.Total, summary.Copied, summary.Skipped, summary.Failed)
	return nil
}

func setOrUnset(s string) string {
	if s == "" {
		return "not set ✗"
	}
	return "set ✓"
}
