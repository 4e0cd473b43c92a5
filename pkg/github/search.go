package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/models"
)

// searchQueries is the fixed rotation of discovery queries. Successive pages
// cycle through the list so repeated runs spread coverage across topics and
// filename searches instead of resurfacing one query's top results.
var searchQueries = []string{
	"topic:agent-skills stars:>5",
	"topic:claude-skills",
	"topic:ai-agent-skills stars:>2",
	"filename:SKILL.md path:/",
	`"agent skill" in:readme,description stars:>10`,
	"topic:llm-tools topic:agents stars:>20",
}

// SearchError carries the failing query and the upstream HTTP status. The
// orchestrator treats it as fatal for the page, never retried.
type SearchError struct {
	Query  string
	Status int
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("repository search failed for query %q (status %d): %v", e.Query, e.Status, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Search discovers candidate repositories. The query is selected by
// page modulo the rotation length, and the remote page number advances as
// ceil(page/len(queries)) so each query paginates independently over time.
func (c *Client) Search(ctx context.Context, page, perPage int) ([]models.CandidateRepo, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	query := searchQueries[(page-1)%len(searchQueries)]
	remotePage := (page + len(searchQueries) - 1) / len(searchQueries)

	log := logger.G(ctx).WithFields(map[string]interface{}{
		"query":       query,
		"remote_page": remotePage,
	})
	log.Debug("searching for candidate repositories")

	opts := &gh.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gh.ListOptions{
			Page:    remotePage,
			PerPage: perPage,
		},
	}

	result, resp, err := c.client.Search.Repositories(ctx, query, opts)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &SearchError{Query: query, Status: status, Err: err}
	}

	candidates := make([]models.CandidateRepo, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		owner := repo.GetOwner().GetLogin()
		name := repo.GetName()
		if owner == "" || name == "" {
			continue
		}
		candidates = append(candidates, models.CandidateRepo{
			Owner:       owner,
			Repo:        name,
			FullName:    repo.GetFullName(),
			Description: repo.GetDescription(),
			Stars:       repo.GetStargazersCount(),
			Language:    repo.GetLanguage(),
			UpdatedAt:   repo.GetPushedAt().Time,
			URL:         repo.GetHTMLURL(),
		})
	}

	log.WithField("candidates", len(candidates)).Info("repository search completed")
	return candidates, nil
}

// NumSearchQueries exposes the rotation length for paging math in callers.
func NumSearchQueries() int {
	return len(searchQueries)
}
