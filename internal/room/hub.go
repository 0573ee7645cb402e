package room

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dicee-server/internal/config"
	"dicee-server/internal/game"
	"dicee-server/internal/store"
)

// Hub owns the actor registry: one live actor per room, created lazily from
// persisted records. Actors for silent rooms are evicted by the janitor and
// transparently reloaded on the next inbound event; the actor's only source
// of truth across that gap is the store.
type Hub struct {
	cfg     config.RoomConfig
	store   Store
	engine  *game.Engine
	alarms  *AlarmScheduler
	clock   func() time.Time
	newCode func() string

	mu    sync.Mutex
	rooms map[string]*Actor
}

func NewHub(st Store, cfg config.RoomConfig, engine *game.Engine, clock func() time.Time) *Hub {
	if clock == nil {
		clock = time.Now
	}
	h := &Hub{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		clock:   clock,
		newCode: NewRoomCode,
		rooms:   map[string]*Actor{},
	}
	h.alarms = NewAlarmScheduler(st, h.deliverAlarm)
	return h
}

// Start re-arms persisted alarms and begins the idle-actor janitor.
func (h *Hub) Start(ctx context.Context) error {
	if err := h.alarms.RearmPending(ctx); err != nil {
		return err
	}
	go h.janitor(ctx)
	return nil
}

// CreateRoom persists a fresh waiting room and returns its state. The actor
// spins up on the first connection.
func (h *Hub) CreateRoom(ctx context.Context, maxPlayers int) (*RoomState, error) {
	if maxPlayers < 2 || maxPlayers > 4 {
		maxPlayers = h.cfg.MaxPlayersDefault
	}
	now := h.clock()
	var r *RoomState
	for attempt := 0; ; attempt++ {
		r = NewRoomState(h.newCode(), maxPlayers, now)
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		err = h.store.InsertRoom(ctx, r.Code, string(r.Status), payload)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) || attempt >= 4 {
			return nil, err
		}
	}
	seats, err := r.MarshalSeats()
	if err != nil {
		return nil, err
	}
	if err := h.store.PutSeats(ctx, r.Code, seats); err != nil {
		return nil, err
	}
	if h.cfg.MaxRoomLifetime > 0 {
		if err := h.alarms.Schedule(ctx, r.Code, store.AlarmRoomLifetime, "", now.Add(h.cfg.MaxRoomLifetime)); err != nil {
			return nil, err
		}
	}
	log.Info().Str("room", r.Code).Int("max_players", maxPlayers).Msg("room_created")
	return r, nil
}

// Get returns the live actor for code, loading it from the store if needed.
func (h *Hub) Get(ctx context.Context, code string) (*Actor, error) {
	h.mu.Lock()
	if a, ok := h.rooms[code]; ok {
		h.mu.Unlock()
		return a, nil
	}
	h.mu.Unlock()

	a, err := h.load(ctx, code)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.rooms[code]; ok {
		a.Stop()
		return existing, nil
	}
	h.rooms[code] = a
	go a.run()
	return a, nil
}

// load reconstructs an actor purely from persisted records. Seats that claim
// to be connected but have no live transport (the process was suspended) are
// put back into their reconnection window, exactly as if they had just
// dropped.
func (h *Hub) load(ctx context.Context, code string) (*Actor, error) {
	row, err := h.store.GetRoom(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	r := &RoomState{}
	if err := json.Unmarshal(row.Payload, r); err != nil {
		return nil, err
	}
	r.Seats = map[string]*PlayerSeat{}
	if seats, err := h.store.GetSeats(ctx, code); err == nil {
		if err := r.UnmarshalSeats(seats); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	var gs *game.State
	if payload, err := h.store.GetGame(ctx, code); err == nil {
		gs = &game.State{}
		if err := json.Unmarshal(payload, gs); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	a := newActor(code, h.cfg, h.store, h.alarms, h.engine, h.clock, r, gs)
	if err := h.reconcileSeats(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (h *Hub) reconcileSeats(ctx context.Context, a *Actor) error {
	now := h.clock()
	window := h.cfg.ReconnectWaiting
	if a.room.Status == StatusPlaying {
		window = h.cfg.ReconnectPlaying
	}
	changed := false
	for _, seat := range a.room.Seats {
		if !seat.Connected {
			continue
		}
		s := a.room.MarkDisconnected(seat.Identity, now, window)
		if s == nil {
			continue
		}
		if err := h.alarms.Schedule(ctx, a.code, store.AlarmSeatExpiry, s.Identity, *s.ReconnectDeadline); err != nil {
			return err
		}
		changed = true
	}
	if !changed {
		return nil
	}
	payload, err := a.room.MarshalSeats()
	if err != nil {
		return err
	}
	return h.store.PutSeats(ctx, a.code, payload)
}

// deliverAlarm routes a fired alarm into its room's actor, reloading the
// actor when it was evicted. Alarms for vanished rooms are dropped with their
// rows.
func (h *Hub) deliverAlarm(alarm store.Alarm) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a, err := h.Get(ctx, alarm.RoomCode)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			_ = h.store.DeleteAlarms(ctx, alarm.RoomCode, alarm.Kind, alarm.Subject)
			return
		}
		log.Error().Str("room", alarm.RoomCode).Str("kind", alarm.Kind).Err(err).Msg("alarm_delivery_failed")
		return
	}
	a.DeliverAlarm(alarm)
}

// Shutdown stops every actor and all in-process timers.
func (h *Hub) Shutdown() {
	h.alarms.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, a := range h.rooms {
		a.Stop()
		delete(h.rooms, code)
	}
}

func (h *Hub) janitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

// sweep evicts actors with no connections that have been idle past the
// configured window. Their state lives in the store; the next event reloads
// them.
func (h *Hub) sweep(now time.Time) {
	if h.cfg.IdleEviction <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, a := range h.rooms {
		idle, conns := a.IdleFor(now)
		if conns == 0 && idle > h.cfg.IdleEviction {
			a.Stop()
			delete(h.rooms, code)
			log.Info().Str("room", code).Dur("idle", idle).Msg("actor_evicted")
		}
	}
}
