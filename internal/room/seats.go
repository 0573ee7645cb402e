package room

import (
	"sort"
	"time"
)

// ReclaimOutcome is the result of a reconnection attempt.
type ReclaimOutcome int

const (
	ReclaimNotFound ReclaimOutcome = iota
	Reclaimed
	ReclaimExpired
)

// ActiveSeatCount counts seats holding a capacity slot: connected, or within
// their reconnection window. Expired seats never count.
func (r *RoomState) ActiveSeatCount(now time.Time) int {
	n := 0
	for _, seat := range r.Seats {
		if seat.Active(now) {
			n++
		}
	}
	return n
}

// ReserveSeat admits a new identity. The room is full when active occupancy
// has reached MaxPlayers; expired seats left behind by slow alarms do not
// block the join.
func (r *RoomState) ReserveSeat(identity, displayName, avatarRef string, now time.Time) (*PlayerSeat, error) {
	if seat, ok := r.Seats[identity]; ok && !seat.Expired(now) {
		// Same identity connecting again; treat as reclaim by the caller.
		return seat, nil
	}
	// Unconditionally sweep expired seats so their slots are joinable.
	for id, seat := range r.Seats {
		if seat.Expired(now) {
			r.removeSeat(id)
		}
	}
	if r.ActiveSeatCount(now) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}
	seat := &PlayerSeat{
		Identity:    identity,
		TurnOrder:   r.nextTurnOrder(),
		Connected:   true,
		DisplayName: displayName,
		AvatarRef:   avatarRef,
	}
	r.Seats[identity] = seat
	return seat, nil
}

// MarkDisconnected starts the seat's reconnection window and returns the
// seat, or nil when the identity holds no seat.
func (r *RoomState) MarkDisconnected(identity string, now time.Time, window time.Duration) *PlayerSeat {
	seat, ok := r.Seats[identity]
	if !ok {
		return nil
	}
	at := now.UTC()
	deadline := at.Add(window)
	seat.Connected = false
	seat.DisconnectedAt = &at
	seat.ReconnectDeadline = &deadline
	return seat
}

// TryReclaim restores a disconnected seat inside its window. A seat past its
// deadline is deleted here, on the reclaim path, not only when the expiry
// alarm fires: alarms can be delayed or coalesced, and a reconnect attempt
// must never observe a stale seat still occupying a slot.
func (r *RoomState) TryReclaim(identity string, now time.Time) (*PlayerSeat, ReclaimOutcome) {
	seat, ok := r.Seats[identity]
	if !ok {
		return nil, ReclaimNotFound
	}
	if seat.Connected {
		// Already connected elsewhere; treat the newer transport as the
		// reclaim so a page refresh takes over the seat.
		return seat, Reclaimed
	}
	if seat.Expired(now) {
		r.removeSeat(identity)
		return nil, ReclaimExpired
	}
	seat.Connected = true
	seat.DisconnectedAt = nil
	seat.ReconnectDeadline = nil
	return seat, Reclaimed
}

// ExpireSeat performs the alarm-triggered cleanup. Idempotent: a seat already
// reclaimed or deleted is left alone.
func (r *RoomState) ExpireSeat(identity string, now time.Time) bool {
	seat, ok := r.Seats[identity]
	if !ok || !seat.Expired(now) {
		return false
	}
	r.removeSeat(identity)
	return true
}

func (r *RoomState) removeSeat(identity string) {
	delete(r.Seats, identity)
	for i, id := range r.PlayerOrder {
		if id == identity {
			r.PlayerOrder = append(r.PlayerOrder[:i], r.PlayerOrder[i+1:]...)
			break
		}
	}
}

// SeatedOrder lists seat identities by turn order. Used to fix the player
// order when a game starts.
func (r *RoomState) SeatedOrder() []string {
	seats := make([]*PlayerSeat, 0, len(r.Seats))
	for _, seat := range r.Seats {
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].TurnOrder < seats[j].TurnOrder })
	order := make([]string, len(seats))
	for i, seat := range seats {
		order[i] = seat.Identity
	}
	return order
}

func (r *RoomState) nextTurnOrder() int {
	used := map[int]bool{}
	for _, seat := range r.Seats {
		used[seat.TurnOrder] = true
	}
	for i := 0; ; i++ {
		if !used[i] {
			return i
		}
	}
}
