package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/github"
	"github.com/skillhubhq/skillhub/pkg/models"
	"github.com/skillhubhq/skillhub/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	candidates []models.CandidateRepo
	err        error
}

func (f *fakeSearcher) Search(ctx context.Context, page, perPage int) ([]models.CandidateRepo, error) {
	return f.candidates, f.err
}

type fakeFetcher struct {
	mu        sync.Mutex
	readmes   map[string]string
	readmeErr map[string]error
	manifests map[string]*models.Manifest
	files     map[string][]models.CodeFile
	calls     int
}

func (f *fakeFetcher) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) FetchRepo(ctx context.Context, owner, repo string) (*models.GitHubStats, error) {
	f.count()
	return &models.GitHubStats{Stars: 500, Forks: 20, License: "MIT"}, nil
}

func (f *fakeFetcher) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	f.count()
	key := owner + "/" + repo
	if err, ok := f.readmeErr[key]; ok {
		return "", err
	}
	if readme, ok := f.readmes[key]; ok {
		return readme, nil
	}
	return "# Default README", nil
}

func (f *fakeFetcher) FetchManifest(ctx context.Context, owner, repo string) (*models.Manifest, error) {
	f.count()
	return f.manifests[owner+"/"+repo], nil
}

func (f *fakeFetcher) FetchCodeFiles(ctx context.Context, owner, repo string, maxFiles int) ([]models.CodeFile, error) {
	f.count()
	return f.files[owner+"/"+repo], nil
}

type fakeReviewer struct {
	mu       sync.Mutex
	verdicts map[string]*models.ReviewVerdict
	calls    int
}

func (f *fakeReviewer) Review(ctx context.Context, candidate models.CandidateRepo, content *models.FetchedContent) *models.ReviewVerdict {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if v, ok := f.verdicts[candidate.FullName]; ok {
		return v
	}
	v := &models.ReviewVerdict{Security: 9, Quality: 9, Usefulness: 9, Compliance: 9}
	v.Finalize()
	return v
}

func (f *fakeReviewer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSkillStore struct {
	mu        sync.Mutex
	existing  map[string]bool
	created   []*models.SkillRecord
	existsErr map[string]error
	createErr map[string]error
}

func newFakeSkillStore() *fakeSkillStore {
	return &fakeSkillStore{existing: make(map[string]bool)}
}

func (f *fakeSkillStore) CreateSkill(ctx context.Context, skill *models.SkillRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.createErr[skill.Slug]; ok {
		return err
	}
	if f.existing[skill.Slug] {
		return store.ErrDuplicateSlug
	}
	f.existing[skill.Slug] = true
	f.created = append(f.created, skill)
	return nil
}

func (f *fakeSkillStore) GetSkillBySlug(ctx context.Context, slug string) (*models.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, skill := range f.created {
		if skill.Slug == slug {
			return skill, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSkillStore) SkillExists(ctx context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.existsErr[slug]; ok {
		return false, err
	}
	return f.existing[slug], nil
}

func (f *fakeSkillStore) ListSkills(ctx context.Context, filter store.ListFilter) ([]*models.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.SkillRecord(nil), f.created...), nil
}

func (f *fakeSkillStore) AllSkills(ctx context.Context) ([]*models.SkillRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.SkillRecord(nil), f.created...), nil
}

func (f *fakeSkillStore) IncrementDownloads(ctx context.Context, slug string) error {
	return nil
}

func (f *fakeSkillStore) createdSlugs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	slugs := make([]string, len(f.created))
	for i, skill := range f.created {
		slugs[i] = skill.Slug
	}
	return slugs
}

type fakeActivityStore struct {
	mu      sync.Mutex
	records []*models.ActivityRecord
	err     error
}

func (f *fakeActivityStore) AppendActivity(ctx context.Context, record *models.ActivityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeActivityStore) RecentActivity(ctx context.Context, limit int) ([]*models.ActivityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.ActivityRecord(nil), f.records...), nil
}

func candidate(owner, repo string) models.CandidateRepo {
	return models.CandidateRepo{
		Owner:    owner,
		Repo:     repo,
		FullName: owner + "/" + repo,
		Language: "Python",
	}
}

func fastOptions() Options {
	return Options{Concurrency: 4, ChunkDelay: time.Millisecond, StageTimeout: time.Second}
}

func TestRunBatchIndexesApprovedCandidate(t *testing.T) {
	skills := newFakeSkillStore()
	activity := &fakeActivityStore{}
	orch := New(&fakeSearcher{}, &fakeFetcher{}, &fakeReviewer{}, skills, activity, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "web-scraper")})

	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, summary.Indexed)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusIndexed, summary.Results[0].Status)
	assert.Equal(t, "acme-web-scraper", summary.Results[0].Slug)

	require.Len(t, skills.created, 1)
	skill := skills.created[0]
	assert.Equal(t, "acme-web-scraper", skill.Slug)
	assert.Equal(t, "skillhub install acme-web-scraper", skill.InstallCommand)
	assert.Equal(t, models.SourceAutoIndexer, skill.Source)
	assert.True(t, skill.Verified, "a 36-point verdict crosses the verified bar")
	assert.Equal(t, models.TrustVerified, skill.TrustLevel)

	require.Len(t, activity.records, 1)
	assert.Equal(t, models.EventSkillPublished, activity.records[0].Event)
	assert.Equal(t, "auto-indexer", activity.records[0].ActorName)
	assert.Equal(t, models.ActorAgent, activity.records[0].ActorType)
}

func TestRunBatchSkipsAlreadyIndexed(t *testing.T) {
	skills := newFakeSkillStore()
	skills.existing["acme-web-scraper"] = true
	fetcher := &fakeFetcher{}
	reviewer := &fakeReviewer{}
	orch := New(&fakeSearcher{}, fetcher, reviewer, skills, &fakeActivityStore{}, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "web-scraper")})

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "Already indexed", summary.Results[0].Reason)
	assert.Zero(t, fetcher.callCount(), "dedup must short-circuit before any fetch")
	assert.Zero(t, reviewer.callCount(), "dedup must short-circuit before the review call")
}

func TestRunBatchSkipsMissingReadme(t *testing.T) {
	fetcher := &fakeFetcher{
		readmeErr: map[string]error{"acme/empty-repo": github.ErrReadmeMissing},
	}
	reviewer := &fakeReviewer{}
	orch := New(&fakeSearcher{}, fetcher, reviewer, newFakeSkillStore(), &fakeActivityStore{}, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "empty-repo")})

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "No README", summary.Results[0].Reason)
	assert.Zero(t, reviewer.callCount())
}

func TestRunBatchRejectsOnCriticalStaticFinding(t *testing.T) {
	fetcher := &fakeFetcher{
		files: map[string][]models.CodeFile{
			"acme/wiper": {{Path: "install.sh", Content: "rm -rf / --force"}},
		},
	}
	reviewer := &fakeReviewer{}
	skills := newFakeSkillStore()
	orch := New(&fakeSearcher{}, fetcher, reviewer, skills, &fakeActivityStore{}, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "wiper")})

	assert.Equal(t, 1, summary.Rejected)
	assert.Contains(t, summary.Results[0].Reason, "Static scan: install.sh:")
	assert.Zero(t, reviewer.callCount(), "static rejection must not spend a model call")
	assert.Empty(t, skills.created)
}

func TestRunBatchRejectsOnReviewVerdict(t *testing.T) {
	rejected := &models.ReviewVerdict{Security: 5, Quality: 4, Usefulness: 3, Compliance: 4, Issues: []string{"no documentation"}}
	rejected.Finalize()
	reviewer := &fakeReviewer{verdicts: map[string]*models.ReviewVerdict{"acme/weak-skill": rejected}}
	skills := newFakeSkillStore()
	orch := New(&fakeSearcher{}, &fakeFetcher{}, reviewer, skills, &fakeActivityStore{}, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "weak-skill")})

	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, "no documentation", summary.Results[0].Reason)
	assert.Empty(t, skills.created, "rejected candidates are never persisted")
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		readmeErr: map[string]error{"acme/broken": errors.New("rate limited")},
	}
	skills := newFakeSkillStore()
	orch := New(&fakeSearcher{}, fetcher, &fakeReviewer{}, skills, &fakeActivityStore{}, fastOptions())

	candidates := []models.CandidateRepo{
		candidate("acme", "first"),
		candidate("acme", "broken"),
		candidate("acme", "third"),
	}
	summary := orch.RunBatch(context.Background(), candidates)

	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Errors)

	// Results preserve input order even though processing is concurrent.
	require.Len(t, summary.Results, 3)
	assert.Equal(t, "acme/first", summary.Results[0].Repo)
	assert.Equal(t, StatusIndexed, summary.Results[0].Status)
	assert.Equal(t, "acme/broken", summary.Results[1].Repo)
	assert.Equal(t, StatusError, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].Reason, "rate limited")
	assert.Equal(t, "acme/third", summary.Results[2].Repo)
	assert.Equal(t, StatusIndexed, summary.Results[2].Status)

	assert.ElementsMatch(t, []string{"acme-first", "acme-third"}, skills.createdSlugs())
}

func TestRunBatchDuplicateInsertRace(t *testing.T) {
	skills := newFakeSkillStore()
	skills.createErr = map[string]error{"acme-raced": store.ErrDuplicateSlug}
	orch := New(&fakeSearcher{}, &fakeFetcher{}, &fakeReviewer{}, skills, &fakeActivityStore{}, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "raced")})

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "Already indexed", summary.Results[0].Reason)
	assert.Zero(t, summary.Errors)
}

func TestRunBatchActivityFailureDoesNotFailIndexing(t *testing.T) {
	activity := &fakeActivityStore{err: errors.New("activity table offline")}
	skills := newFakeSkillStore()
	orch := New(&fakeSearcher{}, &fakeFetcher{}, &fakeReviewer{}, skills, activity, fastOptions())

	summary := orch.RunBatch(context.Background(), []models.CandidateRepo{candidate("acme", "logged")})

	assert.Equal(t, 1, summary.Indexed)
	assert.Len(t, skills.created, 1)
}

func TestRunPagePropagatesSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("search exploded")}
	orch := New(searcher, &fakeFetcher{}, &fakeReviewer{}, newFakeSkillStore(), &fakeActivityStore{}, fastOptions())

	summary, err := orch.RunPage(context.Background(), 1, 10)

	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "candidate discovery failed")
}

func TestRunRepoURL(t *testing.T) {
	t.Run("valid URL runs the pipeline", func(t *testing.T) {
		skills := newFakeSkillStore()
		orch := New(&fakeSearcher{}, &fakeFetcher{}, &fakeReviewer{}, skills, &fakeActivityStore{}, fastOptions())

		summary, err := orch.RunRepoURL(context.Background(), "https://github.com/acme/direct-skill")

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Indexed)
		assert.Equal(t, "acme-direct-skill", summary.Results[0].Slug)
	})

	t.Run("invalid URL is rejected before any work", func(t *testing.T) {
		orch := New(&fakeSearcher{}, &fakeFetcher{}, &fakeReviewer{}, newFakeSkillStore(), &fakeActivityStore{}, fastOptions())

		summary, err := orch.RunRepoURL(context.Background(), "https://gitlab.com/acme/skill")

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRepoURL))
		assert.Nil(t, summary)
	})
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		owner   string
		repo    string
		wantErr bool
	}{
		{"plain", "https://github.com/acme/web-scraper", "acme", "web-scraper", false},
		{"www host", "https://www.github.com/acme/web-scraper", "acme", "web-scraper", false},
		{"git suffix stripped", "https://github.com/acme/web-scraper.git", "acme", "web-scraper", false},
		{"trailing slash", "https://github.com/acme/web-scraper/", "acme", "web-scraper", false},
		{"extra path segments", "https://github.com/acme/web-scraper/tree/main", "acme", "web-scraper", false},
		{"surrounding whitespace", "  https://github.com/acme/web-scraper  ", "acme", "web-scraper", false},
		{"wrong host", "https://gitlab.com/acme/web-scraper", "", "", true},
		{"missing repo", "https://github.com/acme", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRepoURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestBuildSkillRecord(t *testing.T) {
	verdict := &models.ReviewVerdict{Security: 8, Quality: 7, Usefulness: 7, Compliance: 7}
	verdict.Finalize()

	cand := candidate("acme", "web-scraper")
	cand.Description = "Scrapes websites"

	t.Run("manifest fields win over repository facts", func(t *testing.T) {
		content := &models.FetchedContent{
			Readme: "# Readme",
			Manifest: &models.Manifest{
				Name:        "Web Scraper Pro",
				Description: "Professional scraping",
				Version:     "2.1.0",
				License:     "Apache-2.0",
				Category:    "data",
				Frameworks:  []string{"claude", "openai"},
			},
			Stats: models.GitHubStats{Stars: 500, License: "MIT"},
		}

		skill := buildSkillRecord("acme-web-scraper", cand, content, verdict)

		assert.Equal(t, "Web Scraper Pro", skill.Name)
		assert.Equal(t, "Professional scraping", skill.Description)
		assert.Equal(t, "2.1.0", skill.Version)
		assert.Equal(t, "Apache-2.0", skill.License)
		assert.Equal(t, models.CategoryData, skill.Category)
		assert.Equal(t, []string{"claude", "openai"}, skill.Frameworks)
		assert.Equal(t, []string{"python"}, skill.Tags)
	})

	t.Run("fallbacks without manifest", func(t *testing.T) {
		content := &models.FetchedContent{
			Readme: "# Readme",
			Stats:  models.GitHubStats{Stars: 500, License: "MIT"},
		}

		skill := buildSkillRecord("acme-web-scraper", cand, content, verdict)

		assert.Equal(t, "web-scraper", skill.Name)
		assert.Equal(t, "Scrapes websites", skill.Description)
		assert.Equal(t, "1.0.0", skill.Version)
		assert.Equal(t, "MIT", skill.License)
		assert.Equal(t, models.CategoryOther, skill.Category)
		assert.Equal(t, "https://github.com/acme/web-scraper", skill.RepoURL)
	})

	t.Run("approved but unverifiable verdict stays unverified", func(t *testing.T) {
		content := &models.FetchedContent{Readme: "# Readme"}
		skill := buildSkillRecord("acme-web-scraper", cand, content, verdict)

		assert.False(t, skill.Verified)
		assert.Equal(t, models.TrustUnverified, skill.TrustLevel)
	})

	t.Run("invalid manifest category falls back", func(t *testing.T) {
		content := &models.FetchedContent{
			Readme:   "# Readme",
			Manifest: &models.Manifest{Category: "blockchain"},
		}
		skill := buildSkillRecord("acme-web-scraper", cand, content, verdict)
		assert.Equal(t, models.CategoryOther, skill.Category)
	})
}

func TestBuildSubmittedSkill(t *testing.T) {
	verdict := &models.ReviewVerdict{Security: 9, Quality: 9, Usefulness: 9, Compliance: 9}
	verdict.Finalize()
	cand := candidate("acme", "web-scraper")
	content := &models.FetchedContent{
		Readme:   "# Readme",
		Manifest: &models.Manifest{Category: "data"},
	}

	t.Run("submitter metadata wins", func(t *testing.T) {
		skill := BuildSubmittedSkill("acme-web-scraper", cand, content, verdict, SubmissionMeta{
			Category:    "research",
			Tags:        []string{"scraping", "research"},
			Source:      "agent",
			SubmittedBy: "claude-agent-7",
		})

		assert.Equal(t, models.CategoryResearch, skill.Category)
		assert.Equal(t, []string{"scraping", "research"}, skill.Tags)
		assert.Equal(t, models.SourceAgent, skill.Source)
		assert.Equal(t, "claude-agent-7", skill.SubmittedBy)
	})

	t.Run("unknown source defaults to web", func(t *testing.T) {
		skill := BuildSubmittedSkill("acme-web-scraper", cand, content, verdict, SubmissionMeta{Source: "carrier-pigeon"})
		assert.Equal(t, models.SourceWeb, skill.Source)
	})

	t.Run("empty submitter falls back to repository owner", func(t *testing.T) {
		skill := BuildSubmittedSkill("acme-web-scraper", cand, content, verdict, SubmissionMeta{})
		assert.Equal(t, "acme", skill.SubmittedBy)
	})
}

func TestOptionsFill(t *testing.T) {
	opts := Options{}
	opts.fill()

	assert.Equal(t, 2, opts.Concurrency)
	assert.Equal(t, 2*time.Second, opts.ChunkDelay)
	assert.Equal(t, 30*time.Second, opts.StageTimeout)
	assert.Equal(t, 5, opts.MaxCodeFiles)
}
