package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/models"
)

type pointRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Amount      int       `db:"amount"`
	Event       string    `db:"event_type"`
	Description string    `db:"description"`
	ReferenceID string    `db:"reference_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// AppendPointEvent writes one ledger entry.
func (p *Postgres) AppendPointEvent(ctx context.Context, event *models.PointEvent) error {
	if err := p.guardWrite(); err != nil {
		return err
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO point_events (id, user_id, amount, event_type, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.UserID, event.Amount, string(event.Event),
		event.Description, event.ReferenceID, event.CreatedAt,
	)
	return errors.Wrap(err, "failed to append point event")
}

// PointEvents returns a user's newest ledger entries.
func (p *Postgres) PointEvents(ctx context.Context, userID string, limit int) ([]*models.PointEvent, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var rows []pointRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, amount, event_type, description, reference_id, created_at
		FROM point_events WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load point events for %q", userID)
	}

	events := make([]*models.PointEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, &models.PointEvent{
			ID:          row.ID,
			UserID:      row.UserID,
			Amount:      row.Amount,
			Event:       models.EventType(row.Event),
			Description: row.Description,
			ReferenceID: row.ReferenceID,
			CreatedAt:   row.CreatedAt,
		})
	}
	return events, nil
}

// PointTotal computes the user's balance as the sum of their events. The sum
// is never cached as a separate counter, so it cannot drift from the ledger.
func (p *Postgres) PointTotal(ctx context.Context, userID string) (int, error) {
	var total int
	err := p.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(amount), 0) FROM point_events WHERE user_id = $1", userID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to sum points for %q", userID)
	}
	return total, nil
}
