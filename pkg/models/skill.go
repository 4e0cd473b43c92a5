// Package models defines the core domain types for the skill registry:
// skill records, review verdicts, activity and points ledger entries, and
// the candidate/content types flowing through the indexing pipeline.
package models

import (
	"time"
)

// CandidateRepo is a repository discovered by search, not yet evaluated
// or persisted. Identity is owner+repo only.
type CandidateRepo struct {
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description,omitempty"`
	Stars       int       `json:"stars"`
	Language    string    `json:"language,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	URL         string    `json:"url"`
}

// CodeFile is a sampled source file with truncated content. Content may be
// empty when the raw fetch for that file failed.
type CodeFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GitHubStats carries the repository metadata embedded into review prompts
// and persisted on the skill record.
type GitHubStats struct {
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	License   string    `json:"license,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manifest is the optional machine-readable metadata a repository may ship,
// either as skill.json or as SKILL.md frontmatter.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	License     string   `json:"license,omitempty"`
	Category    string   `json:"category,omitempty"`
	Frameworks  []string `json:"frameworks,omitempty"`
}

// FetchedContent bundles everything the fetcher retrieved for one candidate.
type FetchedContent struct {
	Readme    string
	Manifest  *Manifest
	CodeFiles []CodeFile
	Stats     GitHubStats
}

// SkillRecord is the persistent unit of publication. Slug is the globally
// unique identity, derived from owner/repo via Slugify.
type SkillRecord struct {
	ID              string         `json:"id"`
	Slug            string         `json:"slug"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	LongDescription string         `json:"long_description,omitempty"`
	AuthorName      string         `json:"author_name"`
	AuthorURL       string         `json:"author_url,omitempty"`
	RepoURL         string         `json:"repository"`
	GitHubOwner     string         `json:"github_owner"`
	GitHubRepo      string         `json:"github_repo"`
	Stars           int            `json:"stars"`
	Forks           int            `json:"forks"`
	Category        Category       `json:"category"`
	Tags            []string       `json:"tags"`
	Frameworks      []string       `json:"frameworks"`
	Version         string         `json:"version"`
	License         string         `json:"license,omitempty"`
	InstallCommand  string         `json:"install"`
	Verified        bool           `json:"verified"`
	TrustLevel      TrustLevel     `json:"trust_level"`
	Source          Source         `json:"submission_source"`
	SubmittedBy     string         `json:"submitted_by,omitempty"`
	Review          *ReviewVerdict `json:"review,omitempty"`
	Downloads       int            `json:"downloads"`
	Installs        int            `json:"installs"`
	Rating          float64        `json:"rating"`
	RatingCount     int            `json:"rating_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
