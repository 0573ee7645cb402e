package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dicee-server/internal/store"
)

// memStore is an in-memory Store with a shared journal, so tests can assert
// that writes land before broadcasts.
type memStore struct {
	mu     sync.Mutex
	rooms  map[string]store.RoomRow
	seats  map[string][]byte
	games  map[string][]byte
	alarms map[string]store.Alarm
	fail   bool
	log    []string
}

func newMemStore() *memStore {
	return &memStore{
		rooms:  map[string]store.RoomRow{},
		seats:  map[string][]byte{},
		games:  map[string][]byte{},
		alarms: map[string]store.Alarm{},
	}
}

func (m *memStore) mark(entry string) {
	m.log = append(m.log, entry)
}

func (m *memStore) markSend(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mark("send:" + eventType)
}

func (m *memStore) journal() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

func (m *memStore) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *memStore) write(entry string, apply func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("write refused")
	}
	m.mark(entry)
	apply()
	return nil
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
	return m.write("put_room", func() {
		m.rooms[code] = store.RoomRow{Code: code, Status: status, Payload: payload, UpdatedAt: time.Now()}
	})
}

func (m *memStore) InsertRoom(_ context.Context, code, status string, payload []byte) error {
	m.mu.Lock()
	_, exists := m.rooms[code]
	m.mu.Unlock()
	if exists {
		return store.ErrConflict
	}
	return m.write("insert_room", func() {
		m.rooms[code] = store.RoomRow{Code: code, Status: status, Payload: payload, UpdatedAt: time.Now()}
	})
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
	return m.write("put_seats", func() { m.seats[code] = payload })
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
	return m.write("put_game", func() { m.games[code] = payload })
}

func (m *memStore) PutAlarm(_ context.Context, a store.Alarm) error {
	return m.write("put_alarm", func() { m.alarms[a.ID] = a })
}

func (m *memStore) DeleteAlarms(_ context.Context, roomCode, kind, subject string) error {
	return m.write("delete_alarms", func() {
		delete(m.alarms, fmt.Sprintf("%s:%s:%s", roomCode, kind, subject))
	})
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

func (m *memStore) alarm(roomCode, kind, subject string) (store.Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alarms[fmt.Sprintf("%s:%s:%s", roomCode, kind, subject)]
	return a, ok
}
