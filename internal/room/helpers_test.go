package room

import (
	"reflect"
	"sync"
	"time"

	"dicee-server/internal/config"
	"dicee-server/internal/game"
	"dicee-server/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeConn struct {
	id string
	st *memStore

	mu     sync.Mutex
	events []any
	closed bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event any) {
	if c.st != nil {
		c.st.markSend(eventType(event))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) received() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.events...)
}

func (c *fakeConn) eventTypes() []string {
	types := []string{}
	for _, ev := range c.received() {
		types = append(types, eventType(ev))
	}
	return types
}

func (c *fakeConn) lastError() (ErrorEvent, bool) {
	var out ErrorEvent
	found := false
	for _, ev := range c.received() {
		if e, ok := ev.(ErrorEvent); ok {
			out = e
			found = true
		}
	}
	return out, found
}

// eventType reads the wire type tag every event struct carries.
func eventType(event any) string {
	v := reflect.ValueOf(event)
	if v.Kind() == reflect.Struct {
		if f := v.FieldByName("Type"); f.IsValid() && f.Kind() == reflect.String {
			return f.String()
		}
	}
	return "unknown"
}

func testRoomConfig() config.RoomConfig {
	return config.RoomConfig{
		MaxPlayersDefault:   4,
		MaxRoomLifetime:     24 * time.Hour,
		ReconnectWaiting:    5 * time.Minute,
		ReconnectPlaying:    2 * time.Minute,
		TurnAFKTimeout:      90 * time.Second,
		IdleEviction:        10 * time.Minute,
		StoreWriteRetries:   1,
		UpperBonusThreshold: 63,
		UpperBonusScore:     35,
		ExtraDiceeBonus:     100,
	}
}

type actorFixture struct {
	actor *Actor
	st    *memStore
	clk   *fakeClock
}

// newActorFixture builds an actor whose events are handled synchronously by
// the tests themselves; the loop goroutine never runs.
func newActorFixture(maxPlayers, face int) *actorFixture {
	st := newMemStore()
	clk := newFakeClock()
	cfg := testRoomConfig()
	engine := game.NewEngine(game.StandardRules{}, game.DefaultBonusRules(), func() int { return face })
	scheduler := NewAlarmScheduler(st, func(store.Alarm) {})
	state := NewRoomState("TEST42", maxPlayers, clk.Now())
	a := newActor(state.Code, cfg, st, scheduler, engine, clk.Now, state, nil)
	return &actorFixture{actor: a, st: st, clk: clk}
}

func (f *actorFixture) connect(connID, identity string) *fakeConn {
	c := &fakeConn{id: connID, st: f.st}
	f.actor.handle(inbound{kind: evConnect, conn: c, identity: identity, displayName: identity, role: RolePlayer})
	return c
}

func (f *actorFixture) spectate(connID string) *fakeConn {
	c := &fakeConn{id: connID, st: f.st}
	f.actor.handle(inbound{kind: evConnect, conn: c, identity: "watcher-" + connID, role: RoleSpectator})
	return c
}

func (f *actorFixture) command(c *fakeConn, cmd Command) {
	f.actor.handle(inbound{kind: evCommand, connID: c.id, cmd: cmd})
}

func (f *actorFixture) disconnect(c *fakeConn) {
	f.actor.handle(inbound{kind: evDisconnect, connID: c.id})
}

func (f *actorFixture) fireAlarm(kind, subject string) {
	f.actor.handle(inbound{kind: evAlarm, alarm: store.Alarm{
		ID:       f.actor.code + ":" + kind + ":" + subject,
		RoomCode: f.actor.code,
		Kind:     kind,
		Subject:  subject,
		FiresAt:  f.clk.Now(),
	}})
}
