package main

import (
	"context"
	"time"

	"github.com/skillhubhq/skillhub/pkg/api"
	"github.com/skillhubhq/skillhub/pkg/config"
	"github.com/skillhubhq/skillhub/pkg/github"
	"github.com/skillhubhq/skillhub/pkg/indexer"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/review"
	"github.com/skillhubhq/skillhub/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), config.Load())
	},
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "host to bind the API server to")
	serveCmd.Flags().Int("port", 8080, "port to bind the API server to")
	viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	service, err := store.OpenService(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer service.Close()

	// Public reads go through the anon role when configured; without a
	// separate anon DSN the service role covers both.
	reads := store.SkillStore(service)
	var closers []func() error
	if cfg.DatabaseAnonURL != "" {
		anon, err := store.OpenAnon(ctx, cfg.DatabaseAnonURL)
		if err != nil {
			return err
		}
		closers = append(closers, anon.Close)
		reads = anon
	}
	defer func() {
		for _, close := range closers {
			close()
		}
	}()

	gh := github.NewClient(ctx, cfg.GitHubToken)
	generator := review.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ReviewModel)
	reviewer := review.NewReviewer(generator)

	orchestrator := indexer.New(gh, gh, reviewer, service, service, indexer.Options{
		Concurrency:  cfg.IndexerConcurrency,
		ChunkDelay:   time.Duration(cfg.IndexerChunkDelay) * time.Second,
		StageTimeout: time.Duration(cfg.IndexerStageTimout) * time.Second,
	})

	server, err := api.NewServer(&api.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		IndexerToken: cfg.IndexerToken,
	}, api.Deps{
		ReadSkills:   reads,
		WriteSkills:  service,
		Activity:     service,
		Points:       service,
		Fetcher:      gh,
		Reviewer:     reviewer,
		Orchestrator: orchestrator,
		DB:           service,
	})
	if err != nil {
		return err
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
	}).Info("registry API server starting")

	return server.Start(ctx)
}
