package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicee-server/internal/config"
	"dicee-server/internal/game"
	"dicee-server/internal/room"
	"dicee-server/internal/store"
)

type memStore struct {
	mu     sync.Mutex
	rooms  map[string]store.RoomRow
	seats  map[string][]byte
	games  map[string][]byte
	alarms map[string]store.Alarm
}

func newMemStore() *memStore {
	return &memStore{
		rooms:  map[string]store.RoomRow{},
		seats:  map[string][]byte{},
		games:  map[string][]byte{},
		alarms: map[string]store.Alarm{},
	}
}

func (m *memStore) GetRoom(_ context.Context, code string) (store.RoomRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rooms[code]
	if !ok {
		return store.RoomRow{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memStore) PutRoom(_ context.Context, code, status string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[code] = store.RoomRow{Code: code, Status: status, Payload: payload}
	return nil
}

func (m *memStore) InsertRoom(_ context.Context, code, status string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[code]; exists {
		return store.ErrConflict
	}
	m.rooms[code] = store.RoomRow{Code: code, Status: status, Payload: payload}
	return nil
}

func (m *memStore) GetSeats(_ context.Context, code string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.seats[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return payload, nil
}

func (m *memStore) PutSeats(_ context.Context, code string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seats[code] = payload
	return nil
}

func (m *memStore) GetGame(_ context.Context, code string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.games[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return payload, nil
}

func (m *memStore) PutGame(_ context.Context, code string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[code] = payload
	return nil
}

func (m *memStore) PutAlarm(_ context.Context, a store.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alarms[a.ID] = a
	return nil
}

func (m *memStore) DeleteAlarms(_ context.Context, roomCode, kind, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.alarms, roomCode+":"+kind+":"+subject)
	return nil
}

func (m *memStore) ListAlarms(_ context.Context) ([]store.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Alarm, 0, len(m.alarms))
	for _, a := range m.alarms {
		out = append(out, a)
	}
	return out, nil
}

type wsFixture struct {
	hub *room.Hub
	srv *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	cfg := config.RoomConfig{
		MaxPlayersDefault:   4,
		MaxRoomLifetime:     24 * time.Hour,
		ReconnectWaiting:    5 * time.Minute,
		ReconnectPlaying:    2 * time.Minute,
		TurnAFKTimeout:      time.Minute,
		IdleEviction:        10 * time.Minute,
		StoreWriteRetries:   1,
		UpperBonusThreshold: 63,
		UpperBonusScore:     35,
		ExtraDiceeBonus:     100,
	}
	engine := game.NewEngine(game.StandardRules{}, game.DefaultBonusRules(), func() int { return 6 })
	hub := room.NewHub(newMemStore(), cfg, engine, time.Now)

	r := chi.NewRouter()
	r.Get("/ws/{room_code}", NewServer(hub).HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})
	return &wsFixture{hub: hub, srv: srv}
}

func (f *wsFixture) dial(t *testing.T, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/" + code
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// readUntil reads frames until one carries the wanted type, failing the test
// if it does not arrive in time.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("waiting for %q: %v", wantType, err)
		}
		if frame["type"] == wantType {
			return frame
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, playerID, name string) map[string]any {
	t.Helper()
	sendJSON(t, conn, JoinMessage{Type: "join", PlayerID: playerID, DisplayName: name})
	return readUntil(t, conn, "connected")
}

func TestHandleWSUnknownRoom(t *testing.T) {
	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/NOSUCH"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJoinMintsIdentity(t *testing.T) {
	f := newWSFixture(t)
	r, err := f.hub.CreateRoom(context.Background(), 4)
	require.NoError(t, err)

	conn := f.dial(t, r.Code)
	connected := join(t, conn, "", "Alice")

	assert.Equal(t, "player", connected["role"])
	assert.NotEmpty(t, connected["player_id"])
	roomView, ok := connected["room"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, r.Code, roomView["room_code"])
}

func TestFrameBeforeJoinRejected(t *testing.T) {
	f := newWSFixture(t)
	r, err := f.hub.CreateRoom(context.Background(), 4)
	require.NoError(t, err)

	conn := f.dial(t, r.Code)
	sendJSON(t, conn, RollMessage{Type: "roll"})
	frame := readUntil(t, conn, "error")
	assert.Equal(t, "bad_request", frame["code"])

	// The connection is still usable; a join is accepted afterwards.
	connected := join(t, conn, "alice", "Alice")
	assert.Equal(t, "alice", connected["player_id"])
}

func TestTwoPlayerGameOverWebsocket(t *testing.T) {
	f := newWSFixture(t)
	r, err := f.hub.CreateRoom(context.Background(), 4)
	require.NoError(t, err)

	c1 := f.dial(t, r.Code)
	join(t, c1, "alice", "Alice")
	c2 := f.dial(t, r.Code)
	join(t, c2, "bob", "Bob")
	readUntil(t, c1, "player_joined")

	sendJSON(t, c1, map[string]string{"type": "start_game"})
	started := readUntil(t, c2, "game_started")
	order, ok := started["player_order"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"alice", "bob"}, order)
	turn := readUntil(t, c2, "turn_started")
	assert.Equal(t, "alice", turn["player_id"])
	// Drain alice's opening turn frame from c1 so the post-score read below
	// observes the handover, not the game start.
	turn = readUntil(t, c1, "turn_started")
	assert.Equal(t, "alice", turn["player_id"])

	sendJSON(t, c1, RollMessage{Type: "roll"})
	rolled := readUntil(t, c2, "dice_rolled")
	assert.Equal(t, "alice", rolled["player_id"])
	dice, ok := rolled["dice"].([]any)
	require.True(t, ok)
	assert.Len(t, dice, game.DiceCount)

	sendJSON(t, c1, ScoreMessage{Type: "score", Category: "sixes"})
	scored := readUntil(t, c2, "category_scored")
	result, ok := scored["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(30), result["points"])

	turn = readUntil(t, c1, "turn_started")
	assert.Equal(t, "bob", turn["player_id"])
}

func TestMalformedKeepMaskRejected(t *testing.T) {
	f := newWSFixture(t)
	r, err := f.hub.CreateRoom(context.Background(), 4)
	require.NoError(t, err)

	c1 := f.dial(t, r.Code)
	join(t, c1, "alice", "Alice")
	c2 := f.dial(t, r.Code)
	join(t, c2, "bob", "Bob")

	sendJSON(t, c1, map[string]string{"type": "start_game"})
	readUntil(t, c1, "turn_started")
	sendJSON(t, c1, RollMessage{Type: "roll"})
	readUntil(t, c1, "dice_rolled")

	sendJSON(t, c1, RollMessage{Type: "roll", Keep: []bool{true, true}})
	frame := readUntil(t, c1, "error")
	assert.Equal(t, "bad_request", frame["code"])
}

func TestDisconnectBroadcastsWindow(t *testing.T) {
	f := newWSFixture(t)
	r, err := f.hub.CreateRoom(context.Background(), 4)
	require.NoError(t, err)

	c1 := f.dial(t, r.Code)
	join(t, c1, "alice", "Alice")
	c2 := f.dial(t, r.Code)
	join(t, c2, "bob", "Bob")
	readUntil(t, c1, "player_joined")

	require.NoError(t, c2.Close())

	frame := readUntil(t, c1, "player_disconnected")
	assert.Equal(t, "bob", frame["player_id"])
	deadline, ok := frame["reconnect_deadline_ms"].(float64)
	require.True(t, ok)
	assert.Greater(t, deadline, float64(time.Now().UnixMilli()))

	// Rejoining with the same identity reclaims the seat.
	c2b := f.dial(t, r.Code)
	connected := join(t, c2b, "bob", "Bob")
	assert.Equal(t, true, connected["reclaimed"])
	reconnect := readUntil(t, c1, "player_reconnected")
	assert.Equal(t, "bob", reconnect["player_id"])
}
