package github

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// parseSkillFrontmatter extracts manifest fields from the YAML frontmatter
// of a SKILL.md file, the convention agent-skill repositories follow.
func parseSkillFrontmatter(content string) (*models.Manifest, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse SKILL.md")
	}

	data := meta.Get(pctx)
	if data == nil {
		return nil, errors.New("SKILL.md has no frontmatter")
	}

	name, _ := data["name"].(string)
	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}

	manifest := &models.Manifest{Name: name}
	if v, ok := data["description"].(string); ok {
		manifest.Description = v
	}
	if v, ok := data["version"].(string); ok {
		manifest.Version = v
	}
	if v, ok := data["author"].(string); ok {
		manifest.Author = v
	}
	if v, ok := data["license"].(string); ok {
		manifest.License = v
	}
	if v, ok := data["category"].(string); ok {
		manifest.Category = v
	}
	if raw, ok := data["frameworks"].([]interface{}); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				manifest.Frameworks = append(manifest.Frameworks, s)
			}
		}
	}

	return manifest, nil
}
