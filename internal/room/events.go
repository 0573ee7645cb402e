package room

import "dicee-server/internal/game"

const ProtocolVersion = "1.0"

// SeatInfo is the client-visible view of a seat.
type SeatInfo struct {
	PlayerID            string `json:"player_id"`
	DisplayName         string `json:"display_name"`
	AvatarRef           string `json:"avatar_ref,omitempty"`
	TurnOrder           int    `json:"turn_order"`
	Connected           bool   `json:"connected"`
	ReconnectDeadlineMS int64  `json:"reconnect_deadline_ms,omitempty"`
}

// RoomSnapshot is the room portion of the connected event.
type RoomSnapshot struct {
	RoomCode       string     `json:"room_code"`
	Status         Status     `json:"status"`
	MaxPlayers     int        `json:"max_players"`
	SpectatorCount int        `json:"spectator_count"`
	Players        []SeatInfo `json:"players"`
}

// ConnectedEvent carries the full resync a new or reconnecting client needs.
// Game is always present while the room is playing, so a reconnecting
// observer can render the live board without a second round trip.
type ConnectedEvent struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	PlayerID        string       `json:"player_id,omitempty"`
	Role            string       `json:"role"`
	Reclaimed       bool         `json:"reclaimed,omitempty"`
	Room            RoomSnapshot `json:"room"`
	Game            *game.State  `json:"game,omitempty"`
}

type PlayerJoinedEvent struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Seat            SeatInfo `json:"seat"`
}

type PlayerLeftEvent struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
}

type GameStartedEvent struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	PlayerOrder     []string    `json:"player_order"`
	Game            *game.State `json:"game"`
}

type TurnStartedEvent struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	TurnNumber      int    `json:"turn_number"`
	RoundNumber     int    `json:"round_number"`
	RollsRemaining  int    `json:"rolls_remaining"`
}

type DiceRolledEvent struct {
	Type            string               `json:"type"`
	ProtocolVersion string               `json:"protocol_version"`
	PlayerID        string               `json:"player_id"`
	Dice            [game.DiceCount]int  `json:"dice"`
	KeptMask        [game.DiceCount]bool `json:"kept_mask"`
	RollsRemaining  int                  `json:"rolls_remaining"`
	Phase           game.Phase           `json:"phase"`
}

type DiceKeptEvent struct {
	Type            string               `json:"type"`
	ProtocolVersion string               `json:"protocol_version"`
	PlayerID        string               `json:"player_id"`
	KeptMask        [game.DiceCount]bool `json:"kept_mask"`
}

type CategoryScoredEvent struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	PlayerID        string           `json:"player_id"`
	Result          game.ScoreResult `json:"result"`
	Auto            bool             `json:"auto,omitempty"`
}

// PlayerDisconnectedEvent includes the reconnect deadline so clients can
// render a countdown.
type PlayerDisconnectedEvent struct {
	Type                string `json:"type"`
	ProtocolVersion     string `json:"protocol_version"`
	PlayerID            string `json:"player_id"`
	ReconnectDeadlineMS int64  `json:"reconnect_deadline_ms"`
}

type PlayerReconnectedEvent struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
}

type SeatExpiredEvent struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
}

type GameOverEvent struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Rankings        []game.Ranking `json:"rankings"`
}

type ErrorEvent struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

func newErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: "error", ProtocolVersion: ProtocolVersion, Code: ErrorCode(err), Message: err.Error()}
}
