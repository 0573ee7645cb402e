package room

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"sort"
	"time"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusStarting  Status = "starting"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the room can never leave this status.
func (s Status) Terminal() bool {
	return s == StatusAbandoned
}

// PlayerSeat binds a persistent player identity to a turn order slot.
// Connected == true implies both disconnect fields are nil.
type PlayerSeat struct {
	Identity          string     `json:"player_id"`
	TurnOrder         int        `json:"turn_order"`
	Connected         bool       `json:"connected"`
	DisconnectedAt    *time.Time `json:"disconnected_at,omitempty"`
	ReconnectDeadline *time.Time `json:"reconnect_deadline,omitempty"`
	DisplayName       string     `json:"display_name"`
	AvatarRef         string     `json:"avatar_ref,omitempty"`
}

// Expired reports whether the reconnection window has passed.
func (p *PlayerSeat) Expired(now time.Time) bool {
	return !p.Connected && p.ReconnectDeadline != nil && !p.ReconnectDeadline.After(now)
}

// Active reports whether the seat counts toward room occupancy: connected, or
// disconnected but still within its reconnection window.
func (p *PlayerSeat) Active(now time.Time) bool {
	if p.Connected {
		return true
	}
	return p.ReconnectDeadline != nil && p.ReconnectDeadline.After(now)
}

// RoomState is the authoritative room record. Seats are persisted as a
// separate record and serialized as an explicit list, never as a map.
type RoomState struct {
	Code        string                 `json:"room_code"`
	Status      Status                 `json:"status"`
	PlayerOrder []string               `json:"player_order"`
	MaxPlayers  int                    `json:"max_players"`
	CreatedAt   time.Time              `json:"created_at"`
	Seats       map[string]*PlayerSeat `json:"-"`
}

func NewRoomState(code string, maxPlayers int, now time.Time) *RoomState {
	return &RoomState{
		Code:       code,
		Status:     StatusWaiting,
		MaxPlayers: maxPlayers,
		CreatedAt:  now.UTC(),
		Seats:      map[string]*PlayerSeat{},
	}
}

// MarshalSeats serializes the seat map as a list ordered by turn order, so
// the record round-trips through the storage layer without depending on map
// encoding behavior.
func (r *RoomState) MarshalSeats() ([]byte, error) {
	list := make([]*PlayerSeat, 0, len(r.Seats))
	for _, seat := range r.Seats {
		list = append(list, seat)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TurnOrder < list[j].TurnOrder })
	return json.Marshal(list)
}

// UnmarshalSeats reconstructs the in-memory seat map from the persisted list.
func (r *RoomState) UnmarshalSeats(payload []byte) error {
	var list []*PlayerSeat
	if err := json.Unmarshal(payload, &list); err != nil {
		return err
	}
	r.Seats = make(map[string]*PlayerSeat, len(list))
	for _, seat := range list {
		r.Seats[seat.Identity] = seat
	}
	return nil
}

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRoomCode returns a 6-character code from an alphabet with no ambiguous
// characters.
func NewRoomCode() string {
	code := make([]byte, 6)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code)
}
