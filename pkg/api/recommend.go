package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/skillhubhq/skillhub/pkg/recommend"
)

const (
	defaultRecommendLimit = 3
	maxRecommendLimit     = 10
)

type recommendationItem struct {
	Skill       string         `json:"skill"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"`
	Install     string         `json:"install"`
	Repository  string         `json:"repository"`
	Stats       map[string]any `json:"stats"`
	Reasoning   string         `json:"reasoning"`
}

// handleRecommend serves GET /api/agent/recommend?task=&limit=.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task := strings.TrimSpace(r.URL.Query().Get("task"))
	if task == "" {
		s.writeError(w, http.StatusBadRequest, "task parameter is required", nil)
		return
	}

	limit := defaultRecommendLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}

	// The ranker scores every published skill; a capped listing would make
	// older skills unrecommendable once the catalog outgrows the cap.
	skills, err := s.deps.ReadSkills.AllSkills(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load skill catalog", err)
		return
	}

	recs := recommend.Recommend(task, skills, limit)

	items := make([]recommendationItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recommendationItem{
			Skill:       rec.Skill.Name,
			Slug:        rec.Skill.Slug,
			Description: rec.Skill.Description,
			Confidence:  rec.Confidence,
			Install:     rec.Skill.InstallCommand,
			Repository:  rec.Skill.RepoURL,
			Stats: map[string]any{
				"stars":     rec.Skill.Stars,
				"downloads": rec.Skill.Downloads,
				"rating":    rec.Skill.Rating,
			},
			Reasoning: rec.Reasoning,
		})
	}

	response := map[string]any{
		"task":            task,
		"recommendations": items,
		"meta": map[string]any{
			"catalog_size": len(skills),
			"limit":        limit,
		},
	}
	if composition := recommend.Compose(recs); composition != nil {
		response["suggested_composition"] = composition
	}

	s.writeJSON(w, http.StatusOK, response)
}
