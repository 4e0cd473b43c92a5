package indexer

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
)

// ErrInvalidRepoURL marks an injection URL that is not a GitHub repository.
var ErrInvalidRepoURL = errors.New("invalid repository URL")

// ParseRepoURL extracts owner and repo from a GitHub repository URL.
func ParseRepoURL(repoURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil {
		return "", "", errors.Wrapf(ErrInvalidRepoURL, "%q", repoURL)
	}
	if u.Host != "github.com" && u.Host != "www.github.com" {
		return "", "", errors.Wrapf(ErrInvalidRepoURL, "%q: host must be github.com", repoURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Wrapf(ErrInvalidRepoURL, "%q: expected /owner/repo path", repoURL)
	}

	repo := strings.TrimSuffix(parts[1], ".git")
	return parts[0], repo, nil
}

// buildSkillRecord assembles the persistent record for an approved
// candidate, preferring manifest metadata and falling back to repository
// facts.
func buildSkillRecord(slug string, candidate models.CandidateRepo, content *models.FetchedContent, verdict *models.ReviewVerdict) *models.SkillRecord {
	name := candidate.Repo
	description := candidate.Description
	version := "1.0.0"
	license := content.Stats.License
	category := models.CategoryOther
	var frameworks []string

	if m := content.Manifest; m != nil {
		if m.Name != "" {
			name = m.Name
		}
		if m.Description != "" {
			description = m.Description
		}
		if m.Version != "" {
			version = m.Version
		}
		if m.License != "" {
			license = m.License
		}
		if models.ValidCategory(models.Category(m.Category)) {
			category = models.Category(m.Category)
		}
		frameworks = m.Frameworks
	}

	var tags []string
	if candidate.Language != "" {
		tags = append(tags, strings.ToLower(candidate.Language))
	}

	repoURL := candidate.URL
	if repoURL == "" {
		repoURL = "https://github.com/" + candidate.FullName
	}

	skill := &models.SkillRecord{
		Slug:            slug,
		Name:            name,
		Description:     description,
		LongDescription: content.Readme,
		AuthorName:      candidate.Owner,
		AuthorURL:       "https://github.com/" + candidate.Owner,
		RepoURL:         repoURL,
		GitHubOwner:     candidate.Owner,
		GitHubRepo:      candidate.Repo,
		Stars:           content.Stats.Stars,
		Forks:           content.Stats.Forks,
		Category:        category,
		Tags:            tags,
		Frameworks:      frameworks,
		Version:         version,
		License:         license,
		InstallCommand:  "skillhub install " + slug,
		Source:          models.SourceAutoIndexer,
		SubmittedBy:     "auto-indexer",
		Review:          verdict,
		TrustLevel:      models.TrustUnverified,
	}

	if verdict.Verifiable() {
		skill.Verified = true
		skill.TrustLevel = models.TrustVerified
	}

	return skill
}

// SubmissionMeta carries the submitter-provided fields of a web/API/agent
// submission.
type SubmissionMeta struct {
	Category    string
	Tags        []string
	Source      string
	SubmittedBy string
}

// BuildSubmittedSkill assembles the record for a human or agent submission.
// Submitter-provided category and tags win over manifest values; an
// unrecognized category or source falls back to the safe default.
func BuildSubmittedSkill(slug string, candidate models.CandidateRepo, content *models.FetchedContent, verdict *models.ReviewVerdict, meta SubmissionMeta) *models.SkillRecord {
	skill := buildSkillRecord(slug, candidate, content, verdict)

	if models.ValidCategory(models.Category(meta.Category)) {
		skill.Category = models.Category(meta.Category)
	}
	if len(meta.Tags) > 0 {
		skill.Tags = meta.Tags
	}
	if meta.SubmittedBy != "" {
		skill.SubmittedBy = meta.SubmittedBy
	} else {
		skill.SubmittedBy = candidate.Owner
	}

	switch models.Source(meta.Source) {
	case models.SourceWeb, models.SourceAPI, models.SourceAgent:
		skill.Source = models.Source(meta.Source)
	default:
		skill.Source = models.SourceWeb
	}

	return skill
}
