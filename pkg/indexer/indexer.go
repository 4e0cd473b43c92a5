// Package indexer coordinates the skill intake pipeline: discovery, dedup,
// content fetch, static scan, AI review, persistence and activity logging.
// Candidates are processed in bounded concurrent chunks; one bad repository
// never aborts a batch.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/github"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/models"
	"github.com/skillhubhq/skillhub/pkg/scanner"
	"github.com/skillhubhq/skillhub/pkg/store"
)

// Status is the terminal state of one candidate's pipeline run.
type Status string

const (
	StatusIndexed  Status = "indexed"
	StatusRejected Status = "rejected"
	StatusSkipped  Status = "skipped"
	StatusError    Status = "error"
)

// ProcessResult reports the outcome for one candidate, in input order.
type ProcessResult struct {
	Repo   string `json:"repo"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Slug   string `json:"slug,omitempty"`
}

// Summary aggregates a batch run.
type Summary struct {
	Found    int             `json:"found"`
	Indexed  int             `json:"indexed"`
	Rejected int             `json:"rejected"`
	Skipped  int             `json:"skipped"`
	Errors   int             `json:"errors"`
	Results  []ProcessResult `json:"results"`
}

// Searcher discovers candidate repositories.
type Searcher interface {
	Search(ctx context.Context, page, perPage int) ([]models.CandidateRepo, error)
}

// Fetcher retrieves repository content for review.
type Fetcher interface {
	FetchRepo(ctx context.Context, owner, repo string) (*models.GitHubStats, error)
	FetchReadme(ctx context.Context, owner, repo string) (string, error)
	FetchManifest(ctx context.Context, owner, repo string) (*models.Manifest, error)
	FetchCodeFiles(ctx context.Context, owner, repo string, maxFiles int) ([]models.CodeFile, error)
}

// Reviewer produces a verdict for fetched content. Implementations resolve
// their own failures fail-closed and never return an error.
type Reviewer interface {
	Review(ctx context.Context, candidate models.CandidateRepo, content *models.FetchedContent) *models.ReviewVerdict
}

// Options tune the orchestrator. Zero values fall back to defaults.
type Options struct {
	Concurrency  int           // candidates in flight per chunk (default 2)
	ChunkDelay   time.Duration // pause between chunks (default 2s)
	StageTimeout time.Duration // per-stage deadline (default 30s)
	MaxCodeFiles int           // sampled source files per candidate (default 5)
}

func (o *Options) fill() {
	if o.Concurrency < 1 {
		o.Concurrency = 2
	}
	if o.ChunkDelay <= 0 {
		o.ChunkDelay = 2 * time.Second
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = 30 * time.Second
	}
	if o.MaxCodeFiles < 1 {
		o.MaxCodeFiles = 5
	}
}

// Orchestrator runs the per-candidate state machine.
type Orchestrator struct {
	searcher Searcher
	fetcher  Fetcher
	reviewer Reviewer
	skills   store.SkillStore
	activity store.ActivityStore
	opts     Options
}

// New creates an orchestrator with injected collaborators.
func New(searcher Searcher, fetcher Fetcher, reviewer Reviewer, skills store.SkillStore, activity store.ActivityStore, opts Options) *Orchestrator {
	opts.fill()
	return &Orchestrator{
		searcher: searcher,
		fetcher:  fetcher,
		reviewer: reviewer,
		skills:   skills,
		activity: activity,
		opts:     opts,
	}
}

// RunPage discovers one page of candidates and processes them. A search
// failure is fatal for the run; it is scaffolding, not a per-candidate stage.
func (o *Orchestrator) RunPage(ctx context.Context, page, limit int) (*Summary, error) {
	candidates, err := o.searcher.Search(ctx, page, limit)
	if err != nil {
		return nil, errors.Wrap(err, "candidate discovery failed")
	}
	return o.RunBatch(ctx, candidates), nil
}

// RunRepoURL injects a single repository, bypassing discovery but running
// the identical per-candidate state machine.
func (o *Orchestrator) RunRepoURL(ctx context.Context, repoURL string) (*Summary, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	candidate := models.CandidateRepo{
		Owner:    owner,
		Repo:     repo,
		FullName: owner + "/" + repo,
		URL:      repoURL,
	}
	return o.RunBatch(ctx, []models.CandidateRepo{candidate}), nil
}

// RunBatch processes candidates in chunks of the configured concurrency,
// pausing between chunks as rate-limit courtesy to the upstream API.
// Results preserve input order even though completion order differs.
func (o *Orchestrator) RunBatch(ctx context.Context, candidates []models.CandidateRepo) *Summary {
	results := make([]ProcessResult, len(candidates))

	for start := 0; start < len(candidates); start += o.opts.Concurrency {
		end := start + o.opts.Concurrency
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = o.processCandidate(ctx, candidates[i])
			}(i)
		}
		wg.Wait()

		if end < len(candidates) {
			select {
			case <-time.After(o.opts.ChunkDelay):
			case <-ctx.Done():
				for i := end; i < len(candidates); i++ {
					results[i] = ProcessResult{
						Repo:   candidates[i].FullName,
						Status: StatusError,
						Reason: ctx.Err().Error(),
					}
				}
				return summarize(results)
			}
		}
	}

	return summarize(results)
}

// processCandidate walks one candidate through the full state machine. Any
// stage failure is captured in the result; nothing propagates as a panic or
// batch-level error.
func (o *Orchestrator) processCandidate(ctx context.Context, candidate models.CandidateRepo) ProcessResult {
	log := logger.G(ctx).WithField("repo", candidate.FullName)
	result := ProcessResult{Repo: candidate.FullName}

	slug := models.Slugify(candidate.Owner, candidate.Repo)

	// Dedup before any network fetch so already-listed repositories never
	// cost a review call.
	exists, err := o.skills.SkillExists(ctx, slug)
	if err != nil {
		result.Status = StatusError
		result.Reason = fmt.Sprintf("dedup check failed: %v", err)
		return result
	}
	if exists {
		log.Debug("candidate already indexed")
		result.Status = StatusSkipped
		result.Reason = "Already indexed"
		return result
	}

	content, stageErr := o.fetchContent(ctx, candidate)
	if stageErr != nil {
		if errors.Is(stageErr, github.ErrReadmeMissing) {
			result.Status = StatusSkipped
			result.Reason = "No README"
			return result
		}
		result.Status = StatusError
		result.Reason = stageErr.Error()
		return result
	}

	// Cheap deterministic pre-filter: critical static findings reject the
	// candidate before spending a model call.
	scan := scanner.Scan(content.CodeFiles)
	if !scan.Passed {
		log.WithField("issues", scan.Issues).Info("candidate rejected by static scan")
		result.Status = StatusRejected
		result.Reason = "Static scan: " + strings.Join(scan.Issues, "; ")
		return result
	}

	reviewCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	verdict := o.reviewer.Review(reviewCtx, candidate, content)
	cancel()

	if !verdict.Approved {
		reason := verdict.Reasoning
		if len(verdict.Issues) > 0 {
			reason = verdict.Issues[0]
		}
		log.WithField("total_score", verdict.TotalScore).Info("candidate rejected by review")
		result.Status = StatusRejected
		result.Reason = reason
		return result
	}

	skill := buildSkillRecord(slug, candidate, content, verdict)
	if err := o.skills.CreateSkill(ctx, skill); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			// Lost the race against a concurrent run; same outcome as the
			// pre-check catching it.
			result.Status = StatusSkipped
			result.Reason = "Already indexed"
			return result
		}
		result.Status = StatusError
		result.Reason = fmt.Sprintf("persist failed: %v", err)
		return result
	}

	if err := o.activity.AppendActivity(ctx, &models.ActivityRecord{
		Event:       models.EventSkillPublished,
		SkillID:     skill.ID,
		ActorName:   "auto-indexer",
		ActorType:   models.ActorAgent,
		Description: fmt.Sprintf("Indexed %s from GitHub", candidate.FullName),
	}); err != nil {
		log.WithError(err).Warn("failed to append activity record for indexed skill")
	}

	log.WithField("slug", slug).Info("candidate indexed")
	result.Status = StatusIndexed
	result.Slug = slug
	return result
}

// fetchContent runs the fetch stages sequentially for one candidate, each
// under its own timeout. A per-file code fetch failure already degrades
// inside the fetcher; a tree-level failure degrades to no sampled files.
func (o *Orchestrator) fetchContent(ctx context.Context, candidate models.CandidateRepo) (*models.FetchedContent, error) {
	readme, err := stage(ctx, o.opts.StageTimeout, func(ctx context.Context) (string, error) {
		return o.fetcher.FetchReadme(ctx, candidate.Owner, candidate.Repo)
	})
	if err != nil {
		return nil, err
	}

	manifest, err := stage(ctx, o.opts.StageTimeout, func(ctx context.Context) (*models.Manifest, error) {
		return o.fetcher.FetchManifest(ctx, candidate.Owner, candidate.Repo)
	})
	if err != nil {
		return nil, err
	}

	stats, err := stage(ctx, o.opts.StageTimeout, func(ctx context.Context) (*models.GitHubStats, error) {
		return o.fetcher.FetchRepo(ctx, candidate.Owner, candidate.Repo)
	})
	if err != nil {
		return nil, err
	}

	files, err := stage(ctx, o.opts.StageTimeout, func(ctx context.Context) ([]models.CodeFile, error) {
		return o.fetcher.FetchCodeFiles(ctx, candidate.Owner, candidate.Repo, o.opts.MaxCodeFiles)
	})
	if err != nil {
		logger.G(ctx).WithError(err).WithField("repo", candidate.FullName).Warn("code file sampling failed, reviewing without file previews")
		files = nil
	}

	return &models.FetchedContent{
		Readme:    readme,
		Manifest:  manifest,
		CodeFiles: files,
		Stats:     *stats,
	}, nil
}

// stage runs one external call under its own deadline.
func stage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stageCtx)
}

func summarize(results []ProcessResult) *Summary {
	summary := &Summary{
		Found:   len(results),
		Results: results,
	}
	for _, result := range results {
		switch result.Status {
		case StatusIndexed:
			summary.Indexed++
		case StatusRejected:
			summary.Rejected++
		case StatusSkipped:
			summary.Skipped++
		case StatusError:
			summary.Errors++
		}
	}
	return summary
}
