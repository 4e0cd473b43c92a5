package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
)

type activityRow struct {
	ID          string         `db:"id"`
	Event       string         `db:"event_type"`
	SkillID     sql.NullString `db:"skill_id"`
	ActorName   string         `db:"actor_name"`
	ActorType   string         `db:"actor_type"`
	Description string         `db:"description"`
	Metadata    []byte         `db:"metadata"`
	CreatedAt   time.Time      `db:"created_at"`
}

// AppendActivity writes one feed entry. Entries are write-once.
func (p *Postgres) AppendActivity(ctx context.Context, record *models.ActivityRecord) error {
	if err := p.guardWrite(); err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var metadata []byte
	if len(record.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(record.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to serialize activity metadata")
		}
	}

	var skillID interface{}
	if record.SkillID != "" {
		skillID = record.SkillID
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO activities (id, event_type, skill_id, actor_name, actor_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, string(record.Event), skillID, record.ActorName,
		string(record.ActorType), record.Description, metadata, record.CreatedAt,
	)
	return errors.Wrap(err, "failed to append activity")
}

// RecentActivity returns the newest limit entries, most recent first.
func (p *Postgres) RecentActivity(ctx context.Context, limit int) ([]*models.ActivityRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var rows []activityRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT id, event_type, skill_id, actor_name, actor_type, description, metadata, created_at
		FROM activities ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent activity")
	}

	records := make([]*models.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		record := &models.ActivityRecord{
			ID:          row.ID,
			Event:       models.EventType(row.Event),
			SkillID:     row.SkillID.String,
			ActorName:   row.ActorName,
			ActorType:   models.ActorType(row.ActorType),
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &record.Metadata); err != nil {
				return nil, errors.Wrapf(err, "failed to decode metadata for activity %s", row.ID)
			}
		}
		records = append(records, record)
	}
	return records, nil
}
