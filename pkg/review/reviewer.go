package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/models"
)

const (
	maxReadmeChars    = 2000
	maxCodePreview    = 1000
	maxPreviewFiles   = 3
	failedReasoning   = "Technical error during AI review."
	reviewTemperature = models.ReviewTemperature
)

// ErrReviewParse marks a model response with no parseable JSON object. It is
// handled internally by Review and never escapes to callers.
var ErrReviewParse = errors.New("no JSON object found in review response")

// Reviewer scores repository content via the injected generator.
type Reviewer struct {
	generator Generator
}

// NewReviewer creates a quality reviewer.
func NewReviewer(generator Generator) *Reviewer {
	return &Reviewer{generator: generator}
}

// modelVerdict is the JSON shape the model is asked to produce. Its approved
// field is parsed but never trusted; approval is always recomputed from the
// sub-scores.
type modelVerdict struct {
	Approved      bool     `json:"approved"`
	Security      int      `json:"security_score"`
	Quality       int      `json:"quality_score"`
	Usefulness    int      `json:"usefulness_score"`
	Compliance    int      `json:"compliance_score"`
	MaliciousCode bool     `json:"malicious_code_detected"`
	Issues        []string `json:"issues"`
	Suggestions   []string `json:"suggestions"`
	Reasoning     string   `json:"reasoning"`
}

// Review builds the prompt, invokes the generator and parses the verdict.
// Any generation or parse failure returns the fail-closed zero verdict
// instead of an error: an unreviewable submission must never be approved.
func (r *Reviewer) Review(ctx context.Context, candidate models.CandidateRepo, content *models.FetchedContent) *models.ReviewVerdict {
	prompt := r.buildPrompt(candidate, content)

	raw, err := r.generator.Generate(ctx, prompt, reviewTemperature)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("repo", candidate.FullName).Error("review generation failed")
		return r.failedVerdict(fmt.Sprintf("AI review call failed: %v", errors.Cause(err)))
	}

	parsed, err := parseVerdict(raw)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("repo", candidate.FullName).Error("review response unparseable")
		return r.failedVerdict("AI review response could not be parsed")
	}

	verdict := &models.ReviewVerdict{
		Security:   parsed.Security,
		Quality:    parsed.Quality,
		Usefulness: parsed.Usefulness,
		Compliance: parsed.Compliance,
		Issues:     parsed.Issues,
		Suggestion: parsed.Suggestions,
		Reasoning:  parsed.Reasoning,
		Model:      r.generator.Model(),
		ReviewedAt: time.Now().UTC(),
	}

	// Malicious code zeroes the security score, which forces rejection
	// regardless of the other scores.
	if parsed.MaliciousCode {
		verdict.Security = 0
		verdict.Issues = append(verdict.Issues, "malicious code pattern detected by review model")
	}

	verdict.Finalize()
	return verdict
}

func (r *Reviewer) failedVerdict(issue string) *models.ReviewVerdict {
	v := &models.ReviewVerdict{
		Issues:     []string{issue},
		Reasoning:  failedReasoning,
		Model:      r.generator.Model(),
		ReviewedAt: time.Now().UTC(),
	}
	v.Finalize()
	return v
}

func (r *Reviewer) buildPrompt(candidate models.CandidateRepo, content *models.FetchedContent) string {
	var b strings.Builder

	b.WriteString("You are reviewing an agent skill repository for publication in a public registry.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", candidate.FullName)
	if candidate.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", candidate.Description)
	}
	fmt.Fprintf(&b, "Stars: %d, Forks: %d\n", content.Stats.Stars, content.Stats.Forks)
	if content.Stats.License != "" {
		fmt.Fprintf(&b, "License: %s\n", content.Stats.License)
	}
	if !content.Stats.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Last updated: %s\n", content.Stats.UpdatedAt.Format("2006-01-02"))
	}

	b.WriteString("\n## README\n")
	b.WriteString(truncateRunes(content.Readme, maxReadmeChars))
	b.WriteString("\n")

	if content.Manifest != nil {
		manifestJSON, err := json.MarshalIndent(content.Manifest, "", "  ")
		if err == nil {
			b.WriteString("\n## Manifest\n")
			b.Write(manifestJSON)
			b.WriteString("\n")
		}
	}

	previews := content.CodeFiles
	if len(previews) > maxPreviewFiles {
		previews = previews[:maxPreviewFiles]
	}
	for _, file := range previews {
		fmt.Fprintf(&b, "\n## File: %s\n", file.Path)
		b.WriteString(truncateRunes(file.Content, maxCodePreview))
		b.WriteString("\n")
	}

	b.WriteString(`
Score the skill on four dimensions, each an integer from 0 to 10:
- security_score: absence of dangerous, obfuscated or malicious constructs
- quality_score: code and documentation quality
- usefulness_score: practical value to agent users
- compliance_score: licensing, attribution and metadata completeness

Respond with a single JSON object:
{"approved": bool, "security_score": int, "quality_score": int, "usefulness_score": int, "compliance_score": int, "malicious_code_detected": bool, "issues": ["..."], "suggestions": ["..."], "reasoning": "..."}
`)

	return b.String()
}

// parseVerdict extracts the first balanced JSON object from the response,
// tolerating prose before and after it. Strict whole-response parsing would
// reject a large share of otherwise usable model output.
func parseVerdict(raw string) (*modelVerdict, error) {
	block, ok := firstJSONObject(raw)
	if !ok {
		return nil, ErrReviewParse
	}

	var parsed modelVerdict
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, errors.Wrap(ErrReviewParse, err.Error())
	}
	return &parsed, nil
}

func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
