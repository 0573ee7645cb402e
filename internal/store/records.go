package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// RoomRow is one lobby-visible room record. Payload is the serialized
// RoomState owned by the room package; the store never looks inside it.
type RoomRow struct {
	Code      string
	Status    string
	Payload   []byte
	UpdatedAt time.Time
}

func (s *Store) GetRoom(ctx context.Context, code string) (RoomRow, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT code, status, payload, updated_at FROM rooms WHERE code = $1`, code)
	var r RoomRow
	if err := row.Scan(&r.Code, &r.Status, &r.Payload, &r.UpdatedAt); err != nil {
		return RoomRow{}, mapNotFound(err)
	}
	return r, nil
}

// InsertRoom creates a room record and refuses to touch an existing one, so
// a generated code that collides surfaces as ErrConflict instead of silently
// overwriting a live room.
func (s *Store) InsertRoom(ctx context.Context, code, status string, payload []byte) error {
	tag, err := s.Pool.Exec(ctx, `
INSERT INTO rooms (code, status, payload, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (code) DO NOTHING`,
		code, status, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Store) PutRoom(ctx context.Context, code, status string, payload []byte) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO rooms (code, status, payload, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (code) DO UPDATE SET status = $2, payload = $3, updated_at = now()`,
		code, status, payload)
	return err
}

func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM room_alarms WHERE room_code = $1`, code)
	batch.Queue(`DELETE FROM room_games WHERE code = $1`, code)
	batch.Queue(`DELETE FROM room_seats WHERE code = $1`, code)
	batch.Queue(`DELETE FROM rooms WHERE code = $1`, code)
	return s.Pool.SendBatch(ctx, batch).Close()
}

func (s *Store) GetSeats(ctx context.Context, code string) ([]byte, error) {
	row := s.Pool.QueryRow(ctx, `SELECT payload FROM room_seats WHERE code = $1`, code)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, mapNotFound(err)
	}
	return payload, nil
}

func (s *Store) PutSeats(ctx context.Context, code string, payload []byte) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO room_seats (code, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (code) DO UPDATE SET payload = $2, updated_at = now()`,
		code, payload)
	return err
}

func (s *Store) GetGame(ctx context.Context, code string) ([]byte, error) {
	row := s.Pool.QueryRow(ctx, `SELECT payload FROM room_games WHERE code = $1`, code)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, mapNotFound(err)
	}
	return payload, nil
}

func (s *Store) PutGame(ctx context.Context, code string, payload []byte) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO room_games (code, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (code) DO UPDATE SET payload = $2, updated_at = now()`,
		code, payload)
	return err
}

func (s *Store) DeleteGame(ctx context.Context, code string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM room_games WHERE code = $1`, code)
	return err
}

// ListRooms returns rooms in the given statuses, newest first. Lobby reads go
// through here and tolerate eventually-consistent snapshots.
func (s *Store) ListRooms(ctx context.Context, statuses ...string) ([]RoomRow, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT code, status, payload, updated_at FROM rooms
WHERE status = ANY($1) ORDER BY updated_at DESC LIMIT 200`, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RoomRow{}
	for rows.Next() {
		var r RoomRow
		if err := rows.Scan(&r.Code, &r.Status, &r.Payload, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
