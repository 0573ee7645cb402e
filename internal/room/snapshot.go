package room

import (
	"sort"
	"time"
)

func seatInfo(seat *PlayerSeat, now time.Time) SeatInfo {
	info := SeatInfo{
		PlayerID:    seat.Identity,
		DisplayName: seat.DisplayName,
		AvatarRef:   seat.AvatarRef,
		TurnOrder:   seat.TurnOrder,
		Connected:   seat.Connected,
	}
	if seat.ReconnectDeadline != nil && seat.ReconnectDeadline.After(now) {
		info.ReconnectDeadlineMS = seat.ReconnectDeadline.UnixMilli()
	}
	return info
}

func (a *Actor) roomSnapshot() RoomSnapshot {
	now := a.clock()
	players := make([]SeatInfo, 0, len(a.room.Seats))
	for _, seat := range a.room.Seats {
		players = append(players, seatInfo(seat, now))
	}
	sort.Slice(players, func(i, j int) bool { return players[i].TurnOrder < players[j].TurnOrder })
	spectators := 0
	for _, entry := range a.conns {
		if entry.role == RoleSpectator {
			spectators++
		}
	}
	return RoomSnapshot{
		RoomCode:       a.room.Code,
		Status:         a.room.Status,
		MaxPlayers:     a.room.MaxPlayers,
		SpectatorCount: spectators,
		Players:        players,
	}
}

// connectedEvent builds the full resync for one handle. The game snapshot
// rides along whenever a game exists, not only at game start, so a client
// connecting into a live game renders the board immediately.
func (a *Actor) connectedEvent(identity string, role Role, reclaimed bool) ConnectedEvent {
	ev := ConnectedEvent{
		Type:            "connected",
		ProtocolVersion: ProtocolVersion,
		PlayerID:        identity,
		Role:            string(role),
		Reclaimed:       reclaimed,
		Room:            a.roomSnapshot(),
	}
	if a.gameState != nil {
		ev.Game = a.gameState
	}
	return ev
}
