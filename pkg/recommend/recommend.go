// Package recommend ranks published skills against a free-text task
// description using keyword and metadata matching. It is pure and
// deterministic: no model call, no hidden state.
package recommend

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/skillhubhq/skillhub/pkg/models"
)

// Token-match bonuses, additive per task token.
const (
	nameBonus     = 30
	tagBonus      = 25
	categoryBonus = 20
	textBonus     = 10
)

// Recommendation pairs a skill with its relevance score and an explanation.
type Recommendation struct {
	Skill      *models.SkillRecord
	Score      int
	Confidence float64
	Reasoning  string
}

// Composition groups the top recommendations into a suggested pipeline.
type Composition struct {
	Name  string   `json:"name"`
	Slugs []string `json:"skills"`
}

// Recommend scores every skill against the task and returns the top limit
// matches, highest score first. Skills scoring zero or below are dropped.
// Callers must reject an empty task before calling; an empty token set
// yields popularity-only scores with no relevance signal.
func Recommend(task string, skills []*models.SkillRecord, limit int) []Recommendation {
	tokens := Tokenize(task)
	if limit < 1 {
		limit = 3
	}

	recs := make([]Recommendation, 0, len(skills))
	for _, skill := range skills {
		score := matchScore(tokens, skill)
		if score <= 0 {
			continue
		}
		score += popularityScore(skill)
		recs = append(recs, Recommendation{
			Skill:      skill,
			Score:      score,
			Confidence: confidence(score),
			Reasoning:  reasoning(score, skill),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Skill.Slug < recs[j].Skill.Slug
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// Compose returns the suggested composition for a result set, or nil when
// fewer than two recommendations exist.
func Compose(recs []Recommendation) *Composition {
	if len(recs) < 2 {
		return nil
	}
	slugs := make([]string, len(recs))
	for i, rec := range recs {
		slugs[i] = rec.Skill.Slug
	}
	return &Composition{
		Name:  recs[0].Skill.Slug + "-pipeline",
		Slugs: slugs,
	}
}

// Tokenize lowercases the task and splits on whitespace and common
// separators, discarding tokens of length two or less.
func Tokenize(task string) []string {
	fields := strings.FieldsFunc(strings.ToLower(task), func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case '+', ',', '.', '-', '_':
			return true
		}
		return false
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func matchScore(tokens []string, skill *models.SkillRecord) int {
	name := strings.ToLower(skill.Name)
	category := strings.ToLower(string(skill.Category))
	haystack := name + " " + strings.ToLower(skill.Description) + " " + strings.ToLower(skill.LongDescription)

	tags := make([]string, len(skill.Tags))
	for i, tag := range skill.Tags {
		tags[i] = strings.ToLower(tag)
	}

	score := 0
	for _, token := range tokens {
		if strings.Contains(name, token) {
			score += nameBonus
		}
		for _, tag := range tags {
			if strings.Contains(tag, token) {
				score += tagBonus
				break
			}
		}
		if strings.Contains(category, token) {
			score += categoryBonus
		}
		if strings.Contains(haystack, token) {
			score += textBonus
		}
	}
	return score
}

// popularityScore applies each boost once per skill regardless of how many
// tokens matched.
func popularityScore(skill *models.SkillRecord) int {
	score := 0
	switch {
	case skill.Stars > 10000:
		score += 15
	case skill.Stars > 1000:
		score += 10
	case skill.Stars > 100:
		score += 5
	}
	switch {
	case skill.Downloads > 10000:
		score += 10
	case skill.Downloads > 1000:
		score += 5
	}
	switch {
	case skill.Rating >= 4.8:
		score += 10
	case skill.Rating >= 4.5:
		score += 5
	}
	if skill.Verified {
		score += 5
	}
	return score
}

func confidence(score int) float64 {
	c := float64(score) / 100
	if c > 1 {
		c = 1
	}
	return float64(int(c*100+0.5)) / 100
}

func reasoning(score int, skill *models.SkillRecord) string {
	var label string
	switch {
	case score > 80:
		label = "Strong match"
	case score > 50:
		label = "Good match"
	default:
		label = "Partial match"
	}

	var facts []string
	if skill.Stars > 100 {
		facts = append(facts, formatCount(skill.Stars)+" GitHub stars")
	}
	if skill.Downloads > 1000 {
		facts = append(facts, formatCount(skill.Downloads)+" downloads")
	}
	if skill.Rating >= 4.5 {
		facts = append(facts, fmt.Sprintf("%.1f/5 rating", skill.Rating))
	}
	if skill.Verified {
		facts = append(facts, "verified author")
	}

	out := label
	if len(facts) > 0 {
		out += ": " + strings.Join(facts, ", ")
	}
	if skill.Description != "" {
		out += ". " + skill.Description
	}
	return out
}

func formatCount(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%dK+", n/1000)
	}
	return fmt.Sprintf("%d", n)
}
