package store

import (
	"context"
	"time"
)

// Alarm kinds. Subject carries the seat identity for seat_expiry alarms and
// is empty otherwise.
const (
	AlarmSeatExpiry   = "seat_expiry"
	AlarmTurnAFK      = "turn_afk"
	AlarmRoomLifetime = "room_lifetime"
)

// Alarm is a persisted one-shot wall-clock callback. Persisting before arming
// the in-process timer is what lets a restarted process re-arm every pending
// deadline from the table alone.
type Alarm struct {
	ID       string
	RoomCode string
	Kind     string
	Subject  string
	FiresAt  time.Time
}

func (s *Store) PutAlarm(ctx context.Context, a Alarm) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO room_alarms (id, room_code, kind, subject, fires_at) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET fires_at = $5`,
		a.ID, a.RoomCode, a.Kind, a.Subject, a.FiresAt)
	return err
}

func (s *Store) DeleteAlarm(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM room_alarms WHERE id = $1`, id)
	return err
}

// DeleteAlarms removes every alarm matching room, kind and subject. Used to
// cancel a seat's expiry on reclaim and the AFK alarm on a valid command.
func (s *Store) DeleteAlarms(ctx context.Context, roomCode, kind, subject string) error {
	_, err := s.Pool.Exec(ctx,
		`DELETE FROM room_alarms WHERE room_code = $1 AND kind = $2 AND subject = $3`,
		roomCode, kind, subject)
	return err
}

// ListAlarms returns every persisted alarm, soonest first. Called once at
// startup to re-arm timers.
func (s *Store) ListAlarms(ctx context.Context) ([]Alarm, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, room_code, kind, subject, fires_at FROM room_alarms ORDER BY fires_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Alarm{}
	for rows.Next() {
		var a Alarm
		if err := rows.Scan(&a.ID, &a.RoomCode, &a.Kind, &a.Subject, &a.FiresAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
