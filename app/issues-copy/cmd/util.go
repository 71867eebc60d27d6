package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/cchalm/issues-copy/internal/checkpoint"
	"github.com/cchalm/issues-copy/internal/config"
	githubpkg "github.com/cchalm/issues-copy/internal/github"
	"github.com/cchalm/issues-copy/internal/ratelimit"
	"github.com/cchalm/issues-copy/internal/telemetry"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, stopping after the current request. Interrupt again to force shutdown")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

func createPolicy() ratelimit.Policy {
	if cfg.RateLimitMode == config.RateLimitAdaptive {
		return ratelimit.NewAdaptive(cfg.Delays, cfg.RateLimitReserve)
	}
	return ratelimit.NewFixed(cfg.Delays)
}

func createIssueService(ctx context.Context, policy ratelimit.Policy) (githubpkg.IssueService, error) {
	client, err := githubpkg.NewClient(ctx, githubpkg.ClientOptions{
		Token:   cfg.Token,
		BaseURL: cfg.APIURL,
		Policy:  policy,
	})
	if err != nil {
		return nil, err
	}
	return githubpkg.NewIssueService(client, policy), nil
}

func openCheckpoint(source, destination githubpkg.Repo) (checkpoint.Store, error) {
	if cfg.CheckpointFile == "" {
		return checkpoint.NopStore{}, nil
	}
	store, err := checkpoint.OpenFileStore(cfg.CheckpointFile, source.String(), destination.String())
	if err != nil {
		return nil, err
	}
	if n := store.Len(); n > 0 {
		log.Printf("[checkpoint] Resuming with %d issues already recorded in %s", n, cfg.CheckpointFile)
	}
	return store, nil
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.TelemetryConfig{
		Enabled:  cfg.TelemetryEnabled,
		Endpoint: cfg.OTLPEndpoint,
		Version:  versionInfo.version,
	}
	return telemetry.NewProvider(ctx, telemetryConfig)
}
