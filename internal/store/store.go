package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store is the persistence adapter for room state. Three logical records per
// room (room, seats, game) plus an alarms table. Every key is only ever
// written by its room's session actor, so per-key write ordering falls out of
// the single-writer discipline rather than anything clever here.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// EnsureSchema creates the tables if missing. Idempotent; called at startup
// and by the test helper.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rooms (
	code        text PRIMARY KEY,
	status      text NOT NULL,
	payload     jsonb NOT NULL,
	updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS room_seats (
	code        text PRIMARY KEY,
	payload     jsonb NOT NULL,
	updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS room_games (
	code        text PRIMARY KEY,
	payload     jsonb NOT NULL,
	updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS room_alarms (
	id          text PRIMARY KEY,
	room_code   text NOT NULL,
	kind        text NOT NULL,
	subject     text NOT NULL DEFAULT '',
	fires_at    timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS room_alarms_room_idx ON room_alarms (room_code);
`
	_, err := s.Pool.Exec(ctx, ddl)
	return err
}
