package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/github"
	"github.com/skillhubhq/skillhub/pkg/indexer"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/models"
	"github.com/skillhubhq/skillhub/pkg/scanner"
	"github.com/skillhubhq/skillhub/pkg/store"
)

const submitMaxCodeFiles = 5

type submitRequest struct {
	Repository  string   `json:"repository"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Source      string   `json:"submissionSource"`
	SubmittedBy string   `json:"submittedBy"`
}

// handleSubmit serves POST /api/skills/submit: validate the URL, fetch
// content, scan and review it, and persist the record when approved. A
// persistence failure after a successful review is reported as a degraded
// success, not an error; the verdict is always returned so the submitter can
// correct and resubmit.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	owner, repo, err := indexer.ParseRepoURL(req.Repository)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "repository must be a valid GitHub URL", err)
		return
	}
	slug := models.Slugify(owner, repo)

	if exists, err := s.deps.WriteSkills.SkillExists(ctx, slug); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to check existing listings", err)
		return
	} else if exists {
		s.writeError(w, http.StatusConflict, "this repository is already listed", nil)
		return
	}

	stats, err := s.deps.Fetcher.FetchRepo(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, github.ErrRepoNotFound) {
			s.writeError(w, http.StatusNotFound, "repository not found on GitHub", nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to fetch repository", err)
		return
	}

	readme, err := s.deps.Fetcher.FetchReadme(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, github.ErrReadmeMissing) {
			s.writeError(w, http.StatusBadRequest, "repository has no README; add one describing the skill and resubmit", nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to fetch README", err)
		return
	}

	manifest, err := s.deps.Fetcher.FetchManifest(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, github.ErrManifestInvalid) {
			s.writeError(w, http.StatusBadRequest, "skill manifest is malformed", err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to fetch manifest", err)
		return
	}

	codeFiles, err := s.deps.Fetcher.FetchCodeFiles(ctx, owner, repo, submitMaxCodeFiles)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("code sampling failed for submission, reviewing without previews")
		codeFiles = nil
	}

	candidate := models.CandidateRepo{
		Owner:       owner,
		Repo:        repo,
		FullName:    owner + "/" + repo,
		URL:         req.Repository,
		Stars:       stats.Stars,
		Description: "",
	}
	content := &models.FetchedContent{
		Readme:    readme,
		Manifest:  manifest,
		CodeFiles: codeFiles,
		Stats:     *stats,
	}

	scan := scanner.Scan(codeFiles)
	var verdict *models.ReviewVerdict
	if !scan.Passed {
		verdict = &models.ReviewVerdict{
			Issues:    scan.Issues,
			Reasoning: "Rejected by static security scan.",
		}
		verdict.Finalize()
	} else {
		verdict = s.deps.Reviewer.Review(ctx, candidate, content)
	}

	if !verdict.Approved {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"approved": false,
			"review":   verdict,
			"skill":    nil,
		})
		return
	}

	skill := indexer.BuildSubmittedSkill(slug, candidate, content, verdict, indexer.SubmissionMeta{
		Category:    req.Category,
		Tags:        req.Tags,
		Source:      req.Source,
		SubmittedBy: req.SubmittedBy,
	})

	if err := s.deps.WriteSkills.CreateSkill(ctx, skill); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			s.writeError(w, http.StatusConflict, "this repository is already listed", nil)
			return
		}
		// The review succeeded; surface the verdict even though the write
		// failed so the submitter does not pay for a second review.
		logger.G(ctx).WithError(err).Error("failed to persist approved submission")
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"approved": true,
			"review":   verdict,
			"skill":    nil,
			"warning":  "listing could not be saved; please retry later",
		})
		return
	}

	if err := s.deps.Activity.AppendActivity(ctx, &models.ActivityRecord{
		Event:       models.EventSkillPublished,
		SkillID:     skill.ID,
		ActorName:   skill.AuthorName,
		ActorType:   actorTypeForSource(skill.Source),
		Description: "Published " + skill.Name,
	}); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to append activity for submission")
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"approved": true,
		"review":   verdict,
		"skill":    skill,
	})
}

type validateRequest struct {
	Repository string `json:"repository"`
}

// handleValidate serves POST /api/skills/validate: existence and
// README-presence check only, no review.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	owner, repo, err := indexer.ParseRepoURL(req.Repository)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "repository must be a valid GitHub URL", err)
		return
	}

	if _, err := s.deps.Fetcher.FetchRepo(ctx, owner, repo); err != nil {
		if errors.Is(err, github.ErrRepoNotFound) {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"valid":  false,
				"reason": "repository not found",
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to check repository", err)
		return
	}

	if _, err := s.deps.Fetcher.FetchReadme(ctx, owner, repo); err != nil {
		if errors.Is(err, github.ErrReadmeMissing) {
			s.writeJSON(w, http.StatusOK, map[string]interface{}{
				"valid":  false,
				"reason": "repository has no README",
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to check README", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true})
}

func actorTypeForSource(source models.Source) models.ActorType {
	if source == models.SourceAgent || source == models.SourceAutoIndexer {
		return models.ActorAgent
	}
	return models.ActorHuman
}
