package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
)

const uniqueViolation = "23505"

// skillRow is the database shape of a skill record.
type skillRow struct {
	ID              string         `db:"id"`
	Slug            string         `db:"slug"`
	Name            string         `db:"name"`
	Description     string         `db:"description"`
	LongDescription string         `db:"long_description"`
	AuthorName      string         `db:"author_name"`
	AuthorURL       string         `db:"author_url"`
	RepoURL         string         `db:"repo_url"`
	GitHubOwner     string         `db:"github_owner"`
	GitHubRepo      string         `db:"github_repo"`
	Stars           int            `db:"stars"`
	Forks           int            `db:"forks"`
	Category        string         `db:"category"`
	Tags            pq.StringArray `db:"tags"`
	Frameworks      pq.StringArray `db:"frameworks"`
	Version         string         `db:"version"`
	License         string         `db:"license"`
	InstallCommand  string         `db:"install_command"`
	Verified        bool           `db:"verified"`
	TrustLevel      string         `db:"trust_level"`
	Source          string         `db:"source"`
	SubmittedBy     string         `db:"submitted_by"`
	Review          []byte         `db:"review"`
	Downloads       int            `db:"downloads"`
	Installs        int            `db:"installs"`
	Rating          float64        `db:"rating"`
	RatingCount     int            `db:"rating_count"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

const skillColumns = `id, slug, name, description, long_description, author_name, author_url,
	repo_url, github_owner, github_repo, stars, forks, category, tags, frameworks,
	version, license, install_command, verified, trust_level, source, submitted_by,
	review, downloads, installs, rating, rating_count, created_at, updated_at`

// CreateSkill inserts a new skill record. A duplicate slug maps to
// ErrDuplicateSlug: the unique constraint is the authoritative guard against
// two concurrent indexer runs racing on the same repository.
func (p *Postgres) CreateSkill(ctx context.Context, skill *models.SkillRecord) error {
	if err := p.guardWrite(); err != nil {
		return err
	}

	if skill.ID == "" {
		skill.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if skill.CreatedAt.IsZero() {
		skill.CreatedAt = now
	}
	skill.UpdatedAt = now

	var reviewJSON []byte
	if skill.Review != nil {
		var err error
		reviewJSON, err = json.Marshal(skill.Review)
		if err != nil {
			return errors.Wrap(err, "failed to serialize review verdict")
		}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO skills (`+skillColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`,
		skill.ID, skill.Slug, skill.Name, skill.Description, skill.LongDescription,
		skill.AuthorName, skill.AuthorURL, skill.RepoURL, skill.GitHubOwner, skill.GitHubRepo,
		skill.Stars, skill.Forks, string(skill.Category),
		pq.StringArray(skill.Tags), pq.StringArray(skill.Frameworks),
		skill.Version, skill.License, skill.InstallCommand, skill.Verified,
		string(skill.TrustLevel), string(skill.Source), skill.SubmittedBy,
		reviewJSON, skill.Downloads, skill.Installs, skill.Rating, skill.RatingCount,
		skill.CreatedAt, skill.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return errors.Wrapf(ErrDuplicateSlug, "slug %q", skill.Slug)
		}
		return errors.Wrap(err, "failed to insert skill")
	}
	return nil
}

// GetSkillBySlug returns a single skill, or ErrNotFound.
func (p *Postgres) GetSkillBySlug(ctx context.Context, slug string) (*models.SkillRecord, error) {
	var row skillRow
	err := p.db.GetContext(ctx, &row, `SELECT `+skillColumns+` FROM skills WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "skill %q", slug)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load skill %q", slug)
	}
	return row.toModel()
}

// SkillExists is the indexer's cheap dedup pre-check.
func (p *Postgres) SkillExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM skills WHERE slug = $1)", slug)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check slug %q", slug)
	}
	return exists, nil
}

// ListSkills returns published skills matching the filter, newest first.
func (p *Postgres) ListSkills(ctx context.Context, filter ListFilter) ([]*models.SkillRecord, error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE 1=1`
	var args []interface{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += ` AND (name ILIKE $` + itoa(n) + ` OR description ILIKE $` + itoa(n) + `)`
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + itoa(len(args))
	}
	if filter.Platform != "" {
		args = append(args, filter.Platform)
		query += ` AND $` + itoa(len(args)) + ` = ANY (frameworks)`
	}

	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	var rows []skillRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list skills")
	}

	skills := make([]*models.SkillRecord, 0, len(rows))
	for i := range rows {
		skill, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

// AllSkills returns the entire published catalog, newest first. The
// recommender ranks every listed skill, so unlike ListSkills this read is
// deliberately unbounded.
func (p *Postgres) AllSkills(ctx context.Context) ([]*models.SkillRecord, error) {
	var rows []skillRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT `+skillColumns+` FROM skills ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load skill catalog")
	}

	skills := make([]*models.SkillRecord, 0, len(rows))
	for i := range rows {
		skill, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

// IncrementDownloads bumps the download counter for a skill.
func (p *Postgres) IncrementDownloads(ctx context.Context, slug string) error {
	if err := p.guardWrite(); err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		"UPDATE skills SET downloads = downloads + 1, updated_at = NOW() WHERE slug = $1", slug)
	if err != nil {
		return errors.Wrapf(err, "failed to increment downloads for %q", slug)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "skill %q", slug)
	}
	return nil
}

func (r *skillRow) toModel() (*models.SkillRecord, error) {
	skill := &models.SkillRecord{
		ID:              r.ID,
		Slug:            r.Slug,
		Name:            r.Name,
		Description:     r.Description,
		LongDescription: r.LongDescription,
		AuthorName:      r.AuthorName,
		AuthorURL:       r.AuthorURL,
		RepoURL:         r.RepoURL,
		GitHubOwner:     r.GitHubOwner,
		GitHubRepo:      r.GitHubRepo,
		Stars:           r.Stars,
		Forks:           r.Forks,
		Category:        models.Category(r.Category),
		Tags:            []string(r.Tags),
		Frameworks:      []string(r.Frameworks),
		Version:         r.Version,
		License:         r.License,
		InstallCommand:  r.InstallCommand,
		Verified:        r.Verified,
		TrustLevel:      models.TrustLevel(r.TrustLevel),
		Source:          models.Source(r.Source),
		SubmittedBy:     r.SubmittedBy,
		Downloads:       r.Downloads,
		Installs:        r.Installs,
		Rating:          r.Rating,
		RatingCount:     r.RatingCount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	if len(r.Review) > 0 {
		var verdict models.ReviewVerdict
		if err := json.Unmarshal(r.Review, &verdict); err != nil {
			return nil, errors.Wrapf(err, "failed to decode review for skill %q", r.Slug)
		}
		skill.Review = &verdict
	}
	return skill, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
