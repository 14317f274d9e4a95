package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS reconcile_runs (
	id                   uuid PRIMARY KEY,
	takeout_dir          text        NOT NULL,
	group_prefix         text        NOT NULL DEFAULT '',
	started_at           timestamptz NOT NULL,
	finished_at          timestamptz NOT NULL,
	legacy_conversations integer     NOT NULL,
	legacy_events        integer     NOT NULL,
	matched              integer     NOT NULL,
	total                integer     NOT NULL,
	unmatched            integer     NOT NULL
);

CREATE TABLE IF NOT EXISTS reconcile_groups (
	run_id   uuid    NOT NULL REFERENCES reconcile_runs (id) ON DELETE CASCADE,
	position integer NOT NULL,
	group_id text    NOT NULL,
	matched  integer NOT NULL,
	total    integer NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS reconcile_matches (
	run_id          uuid             NOT NULL REFERENCES reconcile_runs (id) ON DELETE CASCADE,
	group_id        text             NOT NULL,
	message_index   integer          NOT NULL,
	message_id      text             NOT NULL,
	conversation_id text             NOT NULL,
	event_id        text             NOT NULL,
	delta_ms        double precision NOT NULL
);

CREATE TABLE IF NOT EXISTS reconcile_unmatched (
	run_id          uuid        NOT NULL REFERENCES reconcile_runs (id) ON DELETE CASCADE,
	position        integer     NOT NULL,
	conversation_id text        NOT NULL,
	event_id        text        NOT NULL,
	event_at        timestamptz NOT NULL,
	body            text        NOT NULL,
	PRIMARY KEY (run_id, position)
);`

// EnsureSchema creates the reconciliation tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
