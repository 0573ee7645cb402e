package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"dicee-server/internal/config"
	"dicee-server/internal/game"
	"dicee-server/internal/store"
)

type eventKind int

const (
	evConnect eventKind = iota
	evCommand
	evDisconnect
	evAlarm
)

type inbound struct {
	kind eventKind

	conn        Conn
	connID      string
	identity    string
	displayName string
	avatarRef   string
	role        Role

	cmd   Command
	alarm store.Alarm
}

type connEntry struct {
	conn     Conn
	identity string
	role     Role
}

// Actor owns one room's authoritative state. Every inbound event (connect,
// command, disconnect, alarm) funnels through a single goroutine and is
// handled to completion, including the awaited persistence write, before the
// next event is looked at. Broadcasts happen strictly after the write acks.
type Actor struct {
	code   string
	cfg    config.RoomConfig
	store  Store
	alarms *AlarmScheduler
	engine *game.Engine
	clock  func() time.Time

	inbox chan inbound
	done  chan struct{}

	// janitor-visible counters
	lastActivity atomic.Int64
	connCount    atomic.Int64

	// goroutine-confined state below
	room       *RoomState
	gameState  *game.State
	conns      map[string]*connEntry
	byIdentity map[string]*connEntry
	degraded   bool
}

func newActor(code string, cfg config.RoomConfig, st Store, alarms *AlarmScheduler, engine *game.Engine, clock func() time.Time, room *RoomState, gs *game.State) *Actor {
	a := &Actor{
		code:       code,
		cfg:        cfg,
		store:      st,
		alarms:     alarms,
		engine:     engine,
		clock:      clock,
		inbox:      make(chan inbound, 64),
		done:       make(chan struct{}),
		room:       room,
		gameState:  gs,
		conns:      map[string]*connEntry{},
		byIdentity: map[string]*connEntry{},
	}
	a.lastActivity.Store(clock().UnixNano())
	return a
}

func (a *Actor) Code() string { return a.code }

// Connect enqueues a connection handshake. The same path serves first joins,
// reconnects, and the replay performed after a process resume.
func (a *Actor) Connect(conn Conn, identity, displayName, avatarRef string, role Role) {
	a.enqueue(inbound{kind: evConnect, conn: conn, identity: identity, displayName: displayName, avatarRef: avatarRef, role: role})
}

// Command enqueues a player command originating from connID.
func (a *Actor) Command(connID string, cmd Command) {
	a.enqueue(inbound{kind: evCommand, connID: connID, cmd: cmd})
}

// Disconnect enqueues a transport-gone notification.
func (a *Actor) Disconnect(connID string) {
	a.enqueue(inbound{kind: evDisconnect, connID: connID})
}

// DeliverAlarm enqueues a fired wall-clock alarm.
func (a *Actor) DeliverAlarm(alarm store.Alarm) {
	a.enqueue(inbound{kind: evAlarm, alarm: alarm})
}

func (a *Actor) enqueue(ev inbound) {
	select {
	case a.inbox <- ev:
	case <-a.done:
		if ev.conn != nil {
			ev.conn.Close()
		}
	}
}

// Stop terminates the event loop. Connections are closed by the loop exit.
func (a *Actor) Stop() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

// IdleFor reports how long ago the actor last handled an event, and its live
// connection count. Read by the hub janitor.
func (a *Actor) IdleFor(now time.Time) (time.Duration, int) {
	return now.Sub(time.Unix(0, a.lastActivity.Load())), int(a.connCount.Load())
}

func (a *Actor) run() {
	defer func() {
		for _, entry := range a.conns {
			entry.conn.Close()
		}
	}()
	for {
		select {
		case ev := <-a.inbox:
			a.handle(ev)
		case <-a.done:
			return
		}
	}
}

func (a *Actor) handle(ev inbound) {
	a.lastActivity.Store(a.clock().UnixNano())
	switch ev.kind {
	case evConnect:
		a.handleConnect(ev)
	case evCommand:
		a.handleCommand(ev)
	case evDisconnect:
		a.handleDisconnect(ev.connID)
	case evAlarm:
		a.handleAlarm(ev.alarm)
	}
	a.connCount.Store(int64(len(a.conns)))
}

// --- connection lifecycle ---

func (a *Actor) handleConnect(ev inbound) {
	conn, now := ev.conn, a.clock()
	if a.degraded {
		conn.Send(newErrorEvent(ErrStorageFailed))
		conn.Close()
		return
	}
	if a.room.Status.Terminal() {
		conn.Send(newErrorEvent(ErrRoomClosed))
		conn.Close()
		return
	}
	if ev.role == RoleSpectator {
		a.register(conn, ev.identity, RoleSpectator)
		conn.Send(a.connectedEvent(ev.identity, RoleSpectator, false))
		return
	}

	_, outcome := a.room.TryReclaim(ev.identity, now)
	switch outcome {
	case Reclaimed:
		// Replacing a still-registered transport (page refresh) closes the
		// older one; the newest handle owns the seat.
		if old := a.byIdentity[ev.identity]; old != nil {
			a.unregister(old.conn.ID())
			old.conn.Close()
		}
		if err := a.alarms.Cancel(context.Background(), a.code, store.AlarmSeatExpiry, ev.identity); err != nil {
			a.degrade(err)
			conn.Close()
			return
		}
		if !a.persistSeats() {
			conn.Close()
			return
		}
		a.register(conn, ev.identity, RolePlayer)
		conn.Send(a.connectedEvent(ev.identity, RolePlayer, true))
		a.broadcastExcept(conn.ID(), PlayerReconnectedEvent{Type: "player_reconnected", ProtocolVersion: ProtocolVersion, PlayerID: ev.identity})
		log.Info().Str("room", a.code).Str("player_id", ev.identity).Msg("seat_reclaimed")

	case ReclaimExpired:
		// The stale seat was deleted on this reclaim attempt; persist the
		// cleanup before answering so capacity and observability agree.
		if a.gameState != nil {
			a.engine.RemovePlayer(a.gameState, ev.identity)
		}
		if !a.persistSeats() || !a.persistRoom() || !a.persistGameIfAny() {
			conn.Close()
			return
		}
		a.broadcast(SeatExpiredEvent{Type: "player_seat_expired", ProtocolVersion: ProtocolVersion, PlayerID: ev.identity})
		conn.Send(newErrorEvent(ErrSeatExpired))
		conn.Close()
		a.afterGameMaybeOver(false)
		log.Info().Str("room", a.code).Str("player_id", ev.identity).Msg("seat_expired_on_reclaim")

	case ReclaimNotFound:
		a.handleFreshJoin(ev, now)
	}
}

func (a *Actor) handleFreshJoin(ev inbound, now time.Time) {
	conn := ev.conn
	seat, err := a.room.ReserveSeat(ev.identity, ev.displayName, ev.avatarRef, now)
	if err != nil {
		conn.Send(newErrorEvent(err))
		conn.Close()
		return
	}
	a.room.PlayerOrder = appendMissing(a.room.PlayerOrder, ev.identity)
	if a.gameState != nil && a.room.Status == StatusPlaying {
		a.engine.AddPlayer(a.gameState, ev.identity)
	}
	if !a.persistSeats() || !a.persistRoom() || !a.persistGameIfAny() {
		conn.Close()
		return
	}
	a.register(conn, ev.identity, RolePlayer)
	conn.Send(a.connectedEvent(ev.identity, RolePlayer, false))
	a.broadcastExcept(conn.ID(), PlayerJoinedEvent{Type: "player_joined", ProtocolVersion: ProtocolVersion, Seat: seatInfo(seat, now)})
	log.Info().Str("room", a.code).Str("player_id", ev.identity).Int("turn_order", seat.TurnOrder).Msg("seat_reserved")
}

func (a *Actor) handleDisconnect(connID string) {
	entry, ok := a.conns[connID]
	if !ok {
		return
	}
	a.unregister(connID)
	if entry.role != RolePlayer || a.degraded || a.room.Status.Terminal() {
		return
	}
	// A newer transport may already own the seat; only the registered one
	// starts the reconnection window.
	if cur := a.byIdentity[entry.identity]; cur != nil {
		return
	}
	now := a.clock()
	window := a.cfg.ReconnectWaiting
	if a.room.Status == StatusPlaying {
		window = a.cfg.ReconnectPlaying
	}
	seat := a.room.MarkDisconnected(entry.identity, now, window)
	if seat == nil {
		return
	}
	if err := a.alarms.Schedule(context.Background(), a.code, store.AlarmSeatExpiry, entry.identity, *seat.ReconnectDeadline); err != nil {
		a.degrade(err)
		return
	}
	if !a.persistSeats() {
		return
	}
	a.broadcast(PlayerDisconnectedEvent{
		Type:                "player_disconnected",
		ProtocolVersion:     ProtocolVersion,
		PlayerID:            entry.identity,
		ReconnectDeadlineMS: seat.ReconnectDeadline.UnixMilli(),
	})
	log.Info().Str("room", a.code).Str("player_id", entry.identity).Time("deadline", *seat.ReconnectDeadline).Msg("player_disconnected")
}

// --- commands ---

func (a *Actor) handleCommand(ev inbound) {
	entry, ok := a.conns[ev.connID]
	if !ok {
		return
	}
	conn := entry.conn
	if a.degraded {
		conn.Send(newErrorEvent(ErrStorageFailed))
		return
	}
	if a.room.Status.Terminal() {
		conn.Send(newErrorEvent(ErrRoomClosed))
		return
	}
	if entry.role != RolePlayer {
		conn.Send(newErrorEvent(ErrBadRequest))
		return
	}
	var err error
	switch ev.cmd.Kind {
	case CmdStartGame:
		err = a.startGame(entry)
	case CmdRoll:
		err = a.roll(entry, ev.cmd.Keep)
	case CmdKeep:
		err = a.keep(entry, ev.cmd.Indices)
	case CmdScore:
		err = a.score(entry, ev.cmd.Category, false)
	case CmdRematch:
		err = a.rematch(entry)
	case CmdLeave:
		err = a.leave(entry)
	default:
		err = ErrBadRequest
	}
	if err != nil {
		// Validation failures answer the originating connection only; state
		// was not mutated and nothing is broadcast.
		conn.Send(newErrorEvent(err))
	}
}

func (a *Actor) startGame(entry *connEntry) error {
	if a.room.Status != StatusWaiting {
		return game.ErrInvalidPhase
	}
	now := a.clock()
	if a.room.ActiveSeatCount(now) < 2 {
		return ErrBadRequest
	}
	order := a.room.SeatedOrder()
	a.room.Status = StatusStarting
	a.room.PlayerOrder = order
	a.gameState = game.NewState(order)
	a.room.Status = StatusPlaying
	if !a.persistRoom() || !a.persistSeats() || !a.persistGame() {
		return ErrStorageFailed
	}
	a.broadcast(GameStartedEvent{Type: "game_started", ProtocolVersion: ProtocolVersion, PlayerOrder: order, Game: a.gameState})
	a.broadcastTurnStarted()
	a.armAFK()
	log.Info().Str("room", a.code).Int("players", len(order)).Msg("game_started")
	return nil
}

func (a *Actor) roll(entry *connEntry, keep *[game.DiceCount]bool) error {
	if a.room.Status != StatusPlaying || a.gameState == nil {
		return game.ErrInvalidPhase
	}
	if err := a.engine.Roll(a.gameState, entry.identity, keep); err != nil {
		return err
	}
	a.armAFK()
	if !a.persistGame() {
		return ErrStorageFailed
	}
	a.broadcast(DiceRolledEvent{
		Type:            "dice_rolled",
		ProtocolVersion: ProtocolVersion,
		PlayerID:        entry.identity,
		Dice:            *a.gameState.CurrentDice,
		KeptMask:        a.gameState.KeptMask,
		RollsRemaining:  a.gameState.RollsRemaining,
		Phase:           a.gameState.Phase,
	})
	return nil
}

func (a *Actor) keep(entry *connEntry, indices []int) error {
	if a.room.Status != StatusPlaying || a.gameState == nil {
		return game.ErrInvalidPhase
	}
	if err := a.engine.Keep(a.gameState, entry.identity, indices); err != nil {
		return err
	}
	a.armAFK()
	if !a.persistGame() {
		return ErrStorageFailed
	}
	a.broadcast(DiceKeptEvent{Type: "dice_kept", ProtocolVersion: ProtocolVersion, PlayerID: entry.identity, KeptMask: a.gameState.KeptMask})
	return nil
}

func (a *Actor) score(entry *connEntry, category string, auto bool) error {
	if a.room.Status != StatusPlaying || a.gameState == nil {
		return game.ErrInvalidPhase
	}
	c, ok := game.ParseCategory(category)
	if !ok {
		return game.ErrUnknownCategory
	}
	res, err := a.engine.Score(a.gameState, entry.identity, c)
	if err != nil {
		return err
	}
	if res.GameOver {
		a.room.Status = StatusCompleted
		_ = a.alarms.Cancel(context.Background(), a.code, store.AlarmTurnAFK, "")
	}
	if !a.persistGame() || !a.persistRoom() {
		return ErrStorageFailed
	}
	a.broadcast(CategoryScoredEvent{Type: "category_scored", ProtocolVersion: ProtocolVersion, PlayerID: entry.identity, Result: res, Auto: auto})
	a.afterGameMaybeOver(true)
	return nil
}

func (a *Actor) rematch(entry *connEntry) error {
	if a.room.Status != StatusCompleted || a.gameState == nil || a.gameState.Phase != game.PhaseGameOver {
		return game.ErrInvalidPhase
	}
	order := a.room.SeatedOrder()
	if len(order) < 2 {
		return ErrBadRequest
	}
	a.room.PlayerOrder = order
	a.gameState = game.NewState(order)
	a.room.Status = StatusPlaying
	if !a.persistRoom() || !a.persistGame() {
		return ErrStorageFailed
	}
	a.broadcast(GameStartedEvent{Type: "game_started", ProtocolVersion: ProtocolVersion, PlayerOrder: order, Game: a.gameState})
	a.broadcastTurnStarted()
	a.armAFK()
	log.Info().Str("room", a.code).Str("player_id", entry.identity).Msg("rematch_started")
	return nil
}

func (a *Actor) leave(entry *connEntry) error {
	identity := entry.identity
	a.room.removeSeat(identity)
	if a.gameState != nil {
		a.engine.RemovePlayer(a.gameState, identity)
	}
	if err := a.alarms.Cancel(context.Background(), a.code, store.AlarmSeatExpiry, identity); err != nil {
		a.degrade(err)
		return ErrStorageFailed
	}
	if !a.persistSeats() || !a.persistRoom() || !a.persistGameIfAny() {
		return ErrStorageFailed
	}
	a.unregister(entry.conn.ID())
	entry.conn.Close()
	a.broadcast(PlayerLeftEvent{Type: "player_left", ProtocolVersion: ProtocolVersion, PlayerID: identity})
	a.afterGameMaybeOver(false)
	a.abandonIfEmpty()
	return nil
}

// --- alarms ---

func (a *Actor) handleAlarm(alarm store.Alarm) {
	// Drop the persisted row first; handlers below are idempotent, so a
	// crash between delete and effect is recovered by state, not the alarm.
	if err := a.alarms.Cancel(context.Background(), alarm.RoomCode, alarm.Kind, alarm.Subject); err != nil {
		a.degrade(err)
		return
	}
	if a.degraded {
		return
	}
	switch alarm.Kind {
	case store.AlarmSeatExpiry:
		a.expireSeat(alarm.Subject)
	case store.AlarmTurnAFK:
		a.afkTimeout()
	case store.AlarmRoomLifetime:
		a.closeRoom()
	}
}

func (a *Actor) expireSeat(identity string) {
	now := a.clock()
	if !a.room.ExpireSeat(identity, now) {
		return
	}
	if a.gameState != nil {
		a.engine.RemovePlayer(a.gameState, identity)
	}
	if !a.persistSeats() || !a.persistRoom() || !a.persistGameIfAny() {
		return
	}
	a.broadcast(SeatExpiredEvent{Type: "player_seat_expired", ProtocolVersion: ProtocolVersion, PlayerID: identity})
	log.Info().Str("room", a.code).Str("player_id", identity).Msg("seat_expired")
	a.afterGameMaybeOver(false)
	a.abandonIfEmpty()
}

func (a *Actor) afkTimeout() {
	if a.room.Status != StatusPlaying || a.gameState == nil {
		return
	}
	current := a.gameState.CurrentPlayer()
	res, err := a.engine.AutoScore(a.gameState)
	if err != nil {
		log.Warn().Str("room", a.code).Err(err).Msg("afk_autoscore_failed")
		return
	}
	if res.GameOver {
		a.room.Status = StatusCompleted
	}
	if !a.persistGame() || !a.persistRoom() {
		return
	}
	a.broadcast(CategoryScoredEvent{Type: "category_scored", ProtocolVersion: ProtocolVersion, PlayerID: current, Result: res, Auto: true})
	log.Info().Str("room", a.code).Str("player_id", current).Str("category", string(res.Category)).Msg("afk_autoscored")
	a.afterGameMaybeOver(true)
}

func (a *Actor) closeRoom() {
	a.room.Status = StatusAbandoned
	if !a.persistRoom() {
		return
	}
	a.broadcast(newErrorEvent(ErrRoomClosed))
	a.alarms.CancelRoomTimers(a.code)
	for id, entry := range a.conns {
		entry.conn.Close()
		delete(a.conns, id)
	}
	a.byIdentity = map[string]*connEntry{}
	log.Info().Str("room", a.code).Msg("room_lifetime_expired")
}

// --- shared transitions ---

func (a *Actor) afterGameMaybeOver(announceNextTurn bool) {
	if a.gameState == nil {
		return
	}
	if a.gameState.Phase == game.PhaseGameOver {
		if a.room.Status == StatusPlaying {
			a.room.Status = StatusCompleted
			if !a.persistRoom() {
				return
			}
		}
		_ = a.alarms.Cancel(context.Background(), a.code, store.AlarmTurnAFK, "")
		a.broadcast(GameOverEvent{Type: "game_over", ProtocolVersion: ProtocolVersion, Rankings: game.Rankings(a.gameState)})
		log.Info().Str("room", a.code).Msg("game_over")
		return
	}
	if announceNextTurn && a.room.Status == StatusPlaying {
		a.broadcastTurnStarted()
		a.armAFK()
	}
}

func (a *Actor) abandonIfEmpty() {
	if a.room.Status.Terminal() || len(a.room.Seats) > 0 {
		return
	}
	a.room.Status = StatusAbandoned
	if !a.persistRoom() {
		return
	}
	a.alarms.CancelRoomTimers(a.code)
	log.Info().Str("room", a.code).Msg("room_abandoned")
}

func (a *Actor) broadcastTurnStarted() {
	if a.gameState == nil {
		return
	}
	a.broadcast(TurnStartedEvent{
		Type:            "turn_started",
		ProtocolVersion: ProtocolVersion,
		PlayerID:        a.gameState.CurrentPlayer(),
		TurnNumber:      a.gameState.TurnNumber,
		RoundNumber:     a.gameState.RoundNumber,
		RollsRemaining:  a.gameState.RollsRemaining,
	})
}

// armAFK (re)schedules the per-turn idle alarm. Called at each turn start and
// after every valid command by the acting player, which resets the clock.
func (a *Actor) armAFK() {
	if a.cfg.TurnAFKTimeout <= 0 || a.room.Status != StatusPlaying || a.gameState == nil || a.gameState.Phase == game.PhaseGameOver {
		return
	}
	at := a.clock().Add(a.cfg.TurnAFKTimeout)
	if err := a.alarms.Schedule(context.Background(), a.code, store.AlarmTurnAFK, "", at); err != nil {
		a.degrade(err)
	}
}

// --- persistence, ordered before any broadcast ---

func (a *Actor) persistRoom() bool {
	payload, err := json.Marshal(a.room)
	if err != nil {
		a.degrade(err)
		return false
	}
	return a.write(func(ctx context.Context) error {
		return a.store.PutRoom(ctx, a.code, string(a.room.Status), payload)
	})
}

func (a *Actor) persistSeats() bool {
	payload, err := a.room.MarshalSeats()
	if err != nil {
		a.degrade(err)
		return false
	}
	return a.write(func(ctx context.Context) error {
		return a.store.PutSeats(ctx, a.code, payload)
	})
}

func (a *Actor) persistGame() bool {
	payload, err := json.Marshal(a.gameState)
	if err != nil {
		a.degrade(err)
		return false
	}
	return a.write(func(ctx context.Context) error {
		return a.store.PutGame(ctx, a.code, payload)
	})
}

func (a *Actor) persistGameIfAny() bool {
	if a.gameState == nil {
		return true
	}
	return a.persistGame()
}

func (a *Actor) write(op func(context.Context) error) bool {
	attempts := a.cfg.StoreWriteRetries
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = op(ctx)
		cancel()
		if err == nil {
			return true
		}
		time.Sleep(time.Duration(i+1) * 50 * time.Millisecond)
	}
	a.degrade(err)
	return false
}

// degrade marks the room unusable after a persistence failure. Pretending a
// write succeeded would make broadcast state diverge from ground truth, so
// the failure is surfaced to every client instead.
func (a *Actor) degrade(err error) {
	if a.degraded {
		return
	}
	a.degraded = true
	log.Error().Str("room", a.code).Err(err).Msg("room_degraded")
	a.broadcast(newErrorEvent(fmt.Errorf("%w: %v", ErrStorageFailed, err)))
}

// --- connection registry & fan-out ---

func (a *Actor) register(conn Conn, identity string, role Role) {
	entry := &connEntry{conn: conn, identity: identity, role: role}
	a.conns[conn.ID()] = entry
	if role == RolePlayer {
		a.byIdentity[identity] = entry
	}
}

func (a *Actor) unregister(connID string) {
	entry, ok := a.conns[connID]
	if !ok {
		return
	}
	delete(a.conns, connID)
	if entry.role == RolePlayer && a.byIdentity[entry.identity] == entry {
		delete(a.byIdentity, entry.identity)
	}
}

func (a *Actor) broadcast(event any) {
	for _, entry := range a.conns {
		entry.conn.Send(event)
	}
}

func (a *Actor) broadcastExcept(connID string, event any) {
	for id, entry := range a.conns {
		if id != connID {
			entry.conn.Send(event)
		}
	}
}

func appendMissing(order []string, identity string) []string {
	for _, id := range order {
		if id == identity {
			return order
		}
	}
	return append(order, identity)
}
