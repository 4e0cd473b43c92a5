package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Migration is a timestamp-versioned schema change.
type Migration struct {
	Version     int64 // YYYYMMDDHHmmss
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// Migrate applies all pending migrations in timestamp order. Runs through
// the service role; the anon role has no DDL rights.
func (p *Postgres) Migrate(ctx context.Context, migrations []Migration) error {
	if err := p.guardWrite(); err != nil {
		return err
	}
	if err := p.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := p.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if applied[m.Version] {
			continue
		}
		if err := p.applyMigration(ctx, m); err != nil {
			return errors.Wrapf(err, "failed to apply migration %d: %s", m.Version, m.Description)
		}
	}
	return nil
}

func (p *Postgres) ensureMigrationsTable(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL,
			description TEXT
		)
	`)
	return errors.Wrap(err, "failed to create schema_migrations table")
}

func (p *Postgres) appliedMigrations(ctx context.Context) (map[int64]bool, error) {
	var versions []int64
	if err := p.db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return nil, errors.Wrap(err, "failed to load applied migrations")
	}

	applied := make(map[int64]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func (p *Postgres) applyMigration(ctx context.Context, m Migration) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := m.Up(tx.Tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at, description) VALUES ($1, $2, $3)",
		m.Version, time.Now().UTC(), m.Description)
	if err != nil {
		return errors.Wrap(err, "failed to record migration")
	}

	return tx.Commit()
}

// Migrations is the full ordered schema history.
var Migrations = []Migration{
	{
		Version:     20250812090000,
		Description: "create skills, activities and point_events tables",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS skills (
					id UUID PRIMARY KEY,
					slug TEXT NOT NULL UNIQUE,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					long_description TEXT NOT NULL DEFAULT '',
					author_name TEXT NOT NULL DEFAULT '',
					author_url TEXT NOT NULL DEFAULT '',
					repo_url TEXT NOT NULL,
					github_owner TEXT NOT NULL,
					github_repo TEXT NOT NULL,
					stars INTEGER NOT NULL DEFAULT 0,
					forks INTEGER NOT NULL DEFAULT 0,
					category TEXT NOT NULL,
					tags TEXT[] NOT NULL DEFAULT '{}',
					frameworks TEXT[] NOT NULL DEFAULT '{}',
					version TEXT NOT NULL DEFAULT '1.0.0',
					license TEXT NOT NULL DEFAULT '',
					install_command TEXT NOT NULL DEFAULT '',
					verified BOOLEAN NOT NULL DEFAULT FALSE,
					trust_level TEXT NOT NULL DEFAULT 'unverified',
					source TEXT NOT NULL,
					submitted_by TEXT NOT NULL DEFAULT '',
					review JSONB,
					downloads INTEGER NOT NULL DEFAULT 0,
					installs INTEGER NOT NULL DEFAULT 0,
					rating DOUBLE PRECISION NOT NULL DEFAULT 0,
					rating_count INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_skills_category ON skills (category);
				CREATE INDEX IF NOT EXISTS idx_skills_created_at ON skills (created_at DESC);

				CREATE TABLE IF NOT EXISTS activities (
					id UUID PRIMARY KEY,
					event_type TEXT NOT NULL,
					skill_id UUID REFERENCES skills (id),
					actor_name TEXT NOT NULL DEFAULT '',
					actor_type TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					metadata JSONB,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities (created_at DESC);

				CREATE TABLE IF NOT EXISTS point_events (
					id UUID PRIMARY KEY,
					user_id TEXT NOT NULL,
					amount INTEGER NOT NULL,
					event_type TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					reference_id TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_point_events_user ON point_events (user_id, created_at DESC);
			`)
			return err
		},
		Down: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				DROP TABLE IF EXISTS point_events;
				DROP TABLE IF EXISTS activities;
				DROP TABLE IF EXISTS skills;
			`)
			return err
		},
	},
}
