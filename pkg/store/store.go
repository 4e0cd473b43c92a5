// Package store is the persistence gateway: the only component that reads or
// writes skill, activity and points records. Components receive the narrow
// port interfaces, never a database handle.
package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
)

var (
	// ErrNotFound marks an absent skill.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlug marks an insert that lost the dedup race. The unique
	// constraint is the real backstop; the indexer's pre-check only avoids
	// wasted fetches.
	ErrDuplicateSlug = errors.New("skill slug already exists")
)

// ListFilter narrows skill listings.
type ListFilter struct {
	Query    string
	Category string
	Platform string
	Limit    int
}

// SkillStore is the write/read port for skill records.
type SkillStore interface {
	CreateSkill(ctx context.Context, skill *models.SkillRecord) error
	GetSkillBySlug(ctx context.Context, slug string) (*models.SkillRecord, error)
	SkillExists(ctx context.Context, slug string) (bool, error)
	ListSkills(ctx context.Context, filter ListFilter) ([]*models.SkillRecord, error)
	AllSkills(ctx context.Context) ([]*models.SkillRecord, error)
	IncrementDownloads(ctx context.Context, slug string) error
}

// ActivityStore is the append-only port for the activity feed.
type ActivityStore interface {
	AppendActivity(ctx context.Context, record *models.ActivityRecord) error
	RecentActivity(ctx context.Context, limit int) ([]*models.ActivityRecord, error)
}

// PointsStore is the append-only port for the points ledger. Totals are
// always computed as the sum of events, never stored.
type PointsStore interface {
	AppendPointEvent(ctx context.Context, event *models.PointEvent) error
	PointEvents(ctx context.Context, userID string, limit int) ([]*models.PointEvent, error)
	PointTotal(ctx context.Context, userID string) (int, error)
}
