package room

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dicee-server/internal/store"
)

// AlarmScheduler arms wall-clock timers backed by persisted alarm rows. The
// row is written before the timer is armed, so a restarted process can re-arm
// every pending deadline from the table. Alarm ids are deterministic per
// (room, kind, subject): re-scheduling replaces the previous deadline.
type AlarmScheduler struct {
	store   Store
	deliver func(store.Alarm)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewAlarmScheduler(st Store, deliver func(store.Alarm)) *AlarmScheduler {
	return &AlarmScheduler{store: st, deliver: deliver, timers: map[string]*time.Timer{}}
}

func alarmID(roomCode, kind, subject string) string {
	return roomCode + ":" + kind + ":" + subject
}

// Schedule persists the alarm, then arms the in-process timer. The persist is
// awaited: an alarm that exists only in memory would vanish on restart.
func (s *AlarmScheduler) Schedule(ctx context.Context, roomCode, kind, subject string, at time.Time) error {
	a := store.Alarm{
		ID:       alarmID(roomCode, kind, subject),
		RoomCode: roomCode,
		Kind:     kind,
		Subject:  subject,
		FiresAt:  at.UTC(),
	}
	if err := s.store.PutAlarm(ctx, a); err != nil {
		return err
	}
	s.arm(a)
	return nil
}

// Cancel stops the timer and removes the persisted row. Unknown alarms are a
// no-op.
func (s *AlarmScheduler) Cancel(ctx context.Context, roomCode, kind, subject string) error {
	id := alarmID(roomCode, kind, subject)
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	return s.store.DeleteAlarms(ctx, roomCode, kind, subject)
}

// CancelRoomTimers stops every in-process timer for a room. Persisted rows go
// away with the room record itself.
func (s *AlarmScheduler) CancelRoomTimers(roomCode string) {
	prefix := roomCode + ":"
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		if strings.HasPrefix(id, prefix) {
			t.Stop()
			delete(s.timers, id)
		}
	}
}

// RearmPending arms a timer for every persisted alarm. Overdue alarms fire
// immediately. Called once at process start.
func (s *AlarmScheduler) RearmPending(ctx context.Context) error {
	alarms, err := s.store.ListAlarms(ctx)
	if err != nil {
		return err
	}
	for _, a := range alarms {
		s.arm(a)
	}
	if len(alarms) > 0 {
		log.Info().Int("count", len(alarms)).Msg("alarms_rearmed")
	}
	return nil
}

// Stop drops all timers without touching persisted rows; used on shutdown.
func (s *AlarmScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *AlarmScheduler) arm(a store.Alarm) {
	s.mu.Lock()
	if t, ok := s.timers[a.ID]; ok {
		t.Stop()
	}
	d := time.Until(a.FiresAt)
	if d < 0 {
		d = 0
	}
	s.timers[a.ID] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, a.ID)
		s.mu.Unlock()
		s.deliver(a)
	})
	s.mu.Unlock()
}
