package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Open connects to Postgres and verifies the connection. The service and
// anon roles are opened through distinct constructors so the capability
// difference stays visible at every call site.
func open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}

// OpenService opens the read-write service-role connection used by the
// indexer, submission handler and points ledger.
func OpenService(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{db: db, readOnly: false}, nil
}

// OpenAnon opens the anon-role connection used by public read endpoints.
// Writes through it fail with ErrReadOnly before reaching the database.
func OpenAnon(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{db: db, readOnly: true}, nil
}

// ErrReadOnly marks a write attempted through the anon-role gateway.
var ErrReadOnly = errors.New("write attempted through read-only store")

// Postgres implements SkillStore, ActivityStore and PointsStore.
type Postgres struct {
	db       *sqlx.DB
	readOnly bool
}

// NewPostgres wraps an existing connection, mainly for tests.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies database connectivity for health checks.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) guardWrite() error {
	if p.readOnly {
		return ErrReadOnly
	}
	return nil
}
