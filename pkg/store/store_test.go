package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOnlyGatewayRejectsWrites(t *testing.T) {
	anon := &Postgres{readOnly: true}
	ctx := context.Background()

	err := anon.CreateSkill(ctx, &models.SkillRecord{Slug: "acme-skill"})
	assert.True(t, errors.Is(err, ErrReadOnly))

	err = anon.IncrementDownloads(ctx, "acme-skill")
	assert.True(t, errors.Is(err, ErrReadOnly))

	err = anon.AppendActivity(ctx, &models.ActivityRecord{Event: models.EventSkillPublished})
	assert.True(t, errors.Is(err, ErrReadOnly))

	err = anon.AppendPointEvent(ctx, &models.PointEvent{UserID: "user-1", Amount: 5})
	assert.True(t, errors.Is(err, ErrReadOnly))

	err = anon.Migrate(ctx, Migrations)
	assert.True(t, errors.Is(err, ErrReadOnly))
}

func TestSkillRowToModel(t *testing.T) {
	reviewJSON, err := json.Marshal(&models.ReviewVerdict{
		Approved: true, Security: 9, Quality: 9, Usefulness: 9, Compliance: 9, TotalScore: 36,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	row := skillRow{
		ID:          "0b4e2f9a-0000-0000-0000-000000000001",
		Slug:        "acme-web-scraper",
		Name:        "Web Scraper",
		Category:    "data",
		Tags:        []string{"python", "scraping"},
		Frameworks:  []string{"claude"},
		TrustLevel:  "verified",
		Source:      "auto-indexer",
		Review:      reviewJSON,
		Rating:      4.7,
		RatingCount: 12,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	skill, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, models.CategoryData, skill.Category)
	assert.Equal(t, []string{"python", "scraping"}, skill.Tags)
	assert.Equal(t, models.TrustVerified, skill.TrustLevel)
	assert.Equal(t, models.SourceAutoIndexer, skill.Source)
	require.NotNil(t, skill.Review)
	assert.Equal(t, 36, skill.Review.TotalScore)
}

func TestSkillRowToModelWithoutReview(t *testing.T) {
	row := skillRow{Slug: "acme-plain"}

	skill, err := row.toModel()
	require.NoError(t, err)
	assert.Nil(t, skill.Review)
}

func TestSkillRowToModelCorruptReview(t *testing.T) {
	row := skillRow{Slug: "acme-corrupt", Review: []byte("{not json")}

	_, err := row.toModel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme-corrupt")
}

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	require.NotEmpty(t, Migrations)

	seen := make(map[int64]bool)
	var last int64
	for _, m := range Migrations {
		assert.NotZero(t, m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotNil(t, m.Up)
		assert.NotNil(t, m.Down)
		assert.False(t, seen[m.Version], "duplicate migration version %d", m.Version)
		assert.Greater(t, m.Version, last, "migrations must be declared in ascending order")
		seen[m.Version] = true
		last = m.Version
	}
}
