package main

import (
	"context"
	"time"

	"github.com/skillhubhq/skillhub/pkg/config"
	"github.com/skillhubhq/skillhub/pkg/github"
	"github.com/skillhubhq/skillhub/pkg/indexer"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/review"
	"github.com/skillhubhq/skillhub/pkg/store"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one auto-indexer batch from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		repoURL, _ := cmd.Flags().GetString("repo-url")
		return runIndex(cmd.Context(), config.Load(), page, limit, repoURL)
	},
}

func init() {
	indexCmd.Flags().Int("page", 1, "discovery page to process")
	indexCmd.Flags().Int("limit", 10, "candidates per page")
	indexCmd.Flags().String("repo-url", "", "index a single repository URL instead of a discovery page")
}

func runIndex(ctx context.Context, cfg *config.Config, page, limit int, repoURL string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	service, err := store.OpenService(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer service.Close()

	gh := github.NewClient(ctx, cfg.GitHubToken)
	reviewer := review.NewReviewer(review.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ReviewModel))

	orchestrator := indexer.New(gh, gh, reviewer, service, service, indexer.Options{
		Concurrency:  cfg.IndexerConcurrency,
		ChunkDelay:   time.Duration(cfg.IndexerChunkDelay) * time.Second,
		StageTimeout: time.Duration(cfg.IndexerStageTimout) * time.Second,
	})

	var summary *indexer.Summary
	if repoURL != "" {
		summary, err = orchestrator.RunRepoURL(ctx, repoURL)
	} else {
		summary, err = orchestrator.RunPage(ctx, page, limit)
	}
	if err != nil {
		return err
	}

	log := logger.G(ctx).WithFields(map[string]interface{}{
		"found":    summary.Found,
		"indexed":  summary.Indexed,
		"rejected": summary.Rejected,
		"skipped":  summary.Skipped,
		"errors":   summary.Errors,
	})
	log.Info("indexer batch finished")

	for _, result := range summary.Results {
		logger.G(ctx).WithFields(map[string]interface{}{
			"repo":   result.Repo,
			"status": result.Status,
			"reason": result.Reason,
		}).Debug("candidate result")
	}
	return nil
}
