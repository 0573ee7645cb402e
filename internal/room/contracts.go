package room

import (
	"context"

	"dicee-server/internal/game"
	"dicee-server/internal/store"
)

// Role of a connection within a room.
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Command kinds accepted from clients.
const (
	CmdStartGame = "start_game"
	CmdRoll      = "roll"
	CmdKeep      = "keep"
	CmdScore     = "score"
	CmdRematch   = "rematch"
	CmdLeave     = "leave"
)

// Command is a parsed, transport-agnostic player command.
type Command struct {
	Kind     string
	Keep     *[game.DiceCount]bool
	Indices  []int
	Category string
}

// Conn is the actor's view of one live transport handle. Send is
// fire-and-forget and must preserve per-connection ordering; implementations
// never block the caller.
type Conn interface {
	ID() string
	Send(event any)
	Close()
}

// Store is the persistence surface the room layer needs. *store.Store
// satisfies it; tests swap in an in-memory fake.
type Store interface {
	GetRoom(ctx context.Context, code string) (store.RoomRow, error)
	InsertRoom(ctx context.Context, code, status string, payload []byte) error
	PutRoom(ctx context.Context, code, status string, payload []byte) error
	GetSeats(ctx context.Context, code string) ([]byte, error)
	PutSeats(ctx context.Context, code string, payload []byte) error
	GetGame(ctx context.Context, code string) ([]byte, error)
	PutGame(ctx context.Context, code string, payload []byte) error
	PutAlarm(ctx context.Context, a store.Alarm) error
	DeleteAlarms(ctx context.Context, roomCode, kind, subject string) error
	ListAlarms(ctx context.Context) ([]store.Alarm, error)
}
