package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/models"
	"github.com/skillhubhq/skillhub/pkg/store"
)

// handleListSkills serves GET /api/agent/skills with optional q, category,
// platform and limit filters, as JSON or an LLM-oriented plain-text listing.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := store.ListFilter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		Platform: query.Get("platform"),
	}
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Limit = parsed
		}
	}

	skills, err := s.deps.ReadSkills.ListSkills(ctx, filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list skills", err)
		return
	}

	if query.Get("format") == "text" {
		s.writeSkillsText(w, skills)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"skills": skills,
		"count":  len(skills),
	})
}

// handleGetSkill serves GET /api/agent/skills/{slug}.
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := mux.Vars(r)["slug"]

	skill, err := s.deps.ReadSkills.GetSkillBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("skill %q not found", slug), nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load skill", err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, skillText(skill))
		return
	}

	s.writeJSON(w, http.StatusOK, skill)
}

// handleInstallSkill serves POST /api/agent/skills/{slug}/install: bump the
// download counter and record the install in the activity feed. The feed
// append is best-effort; the counter is what install stats are read from.
func (s *Server) handleInstallSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := mux.Vars(r)["slug"]

	if err := s.deps.WriteSkills.IncrementDownloads(ctx, slug); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("skill %q not found", slug), nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to record install", err)
		return
	}

	if err := s.deps.Activity.AppendActivity(ctx, &models.ActivityRecord{
		Event:       models.EventSkillInstalled,
		ActorName:   "anonymous",
		ActorType:   models.ActorHuman,
		Description: "Installed " + slug,
	}); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to append install activity")
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleActivity serves GET /api/activity?limit= for the recent feed.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	records, err := s.deps.Activity.RecentActivity(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load activity feed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"activity": records,
		"count":    len(records),
	})
}

func (s *Server) writeSkillsText(w http.ResponseWriter, skills []*models.SkillRecord) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var b strings.Builder
	fmt.Fprintf(&b, "# Agent Skills (%d)\n\n", len(skills))
	for _, skill := range skills {
		b.WriteString(skillText(skill))
		b.WriteString("\n")
	}
	fmt.Fprint(w, b.String())
}

func skillText(skill *models.SkillRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s)\n", skill.Name, skill.Slug)
	if skill.Description != "" {
		fmt.Fprintf(&b, "%s\n", skill.Description)
	}
	fmt.Fprintf(&b, "Category: %s | Stars: %d | Downloads: %d\n", skill.Category, skill.Stars, skill.Downloads)
	if len(skill.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(skill.Tags, ", "))
	}
	fmt.Fprintf(&b, "Install: %s\n", skill.InstallCommand)
	fmt.Fprintf(&b, "Repository: %s\n", skill.RepoURL)
	return b.String()
}
